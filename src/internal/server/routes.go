package server

import (
	"net/http"
	"os"
	"path/filepath"
	"phdsim-telemetry-svc/src/internal/dependency"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api"

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupGameRoutes(router, deps)
	setupStaticRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	mongodb := deps.Mongodb
	redisClient := deps.Redis
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		log.Debug("Health check endpoint requested")

		mongoStatus := "ok"
		if err := mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := redisClient.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(200, gin.H{
			"status":    "healthy",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	})
}

func setupGameRoutes(router *gin.Engine, deps *dependency.Manager) {
	handler := deps.GameHandler

	api := router.Group(apiPrefix)
	{
		api.POST("/game/start", handler.StartGame)
		api.POST("/game/end", handler.EndGame)
		api.GET("/game/:player_id", handler.GetPlayerGame)
		api.GET("/stats", handler.GetStats)
		api.GET("/leaderboard", handler.GetLeaderboard)
		api.GET("/players", handler.GetPlayers)
	}
}

// setupStaticRoutes serves the game frontend from the configured directory.
// API paths never fall through to the static handler, and unknown paths
// fall back to the index document so client-side routing keeps working.
func setupStaticRoutes(router *gin.Engine, deps *dependency.Manager) {
	staticDir := deps.Config.Static.Dir
	indexFile := filepath.Join(staticDir, deps.Config.Static.Index)

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, apiPrefix) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Not found",
				"message": "API endpoint not found",
			})
			return
		}

		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		requested := filepath.Join(staticDir, filepath.Clean("/"+path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			c.File(requested)
			return
		}

		if _, err := os.Stat(indexFile); err == nil {
			c.File(indexFile)
			return
		}

		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "File not found",
		})
	})

	router.GET("/", func(c *gin.Context) {
		if _, err := os.Stat(indexFile); err == nil {
			c.File(indexFile)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": deps.Config.App.Name,
			"health":  "/health",
			"api":     apiPrefix + "/*",
		})
	})
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}
