package game

import (
	"context"
	"errors"
	"net/http"
	"phdsim-telemetry-svc/src/clients"
	"phdsim-telemetry-svc/src/internal/cache"
	"phdsim-telemetry-svc/src/internal/config"
	"phdsim-telemetry-svc/src/internal/models"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	StartGame(c *gin.Context)
	EndGame(c *gin.Context)
	GetPlayerGame(c *gin.Context)
	GetStats(c *gin.Context)
	GetLeaderboard(c *gin.Context)
	GetPlayers(c *gin.Context)
}

type handler struct {
	config       *config.Configuration
	service      Service
	cacheService cache.Service
	publisher    *clients.ActivityPublisher
}

func NewHandler(cfg *config.Configuration, service Service, cacheService cache.Service, publisher *clients.ActivityPublisher) Handler {
	return &handler{
		config:       cfg,
		service:      service,
		cacheService: cacheService,
		publisher:    publisher,
	}
}

func (h *handler) StartGame(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Invalid start game request body")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	clientIP := resolveClientIP(c)

	logrus.WithFields(logrus.Fields{
		"player_id": req.PlayerID,
		"client_ip": clientIP,
	}).Info("StartGame request received")

	session, err := h.service.StartGame(ctx, &req, clientIP)
	if err != nil {
		logrus.WithError(err).WithField("player_id", req.PlayerID).Error("Failed to start game session")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to start game session",
			"message": err.Error(),
		})
		return
	}

	h.publisher.PublishActivityWithDetails(
		req.PlayerID,
		models.ServiceGameStart,
		models.ActionGameStarted,
		clientIP,
		req.UserAgent,
		nil,
	)

	c.JSON(http.StatusOK, session)
}

func (h *handler) EndGame(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req EndGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Invalid end game request body")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	logrus.WithFields(logrus.Fields{
		"player_id":         req.PlayerID,
		"graduation_status": req.GraduationStatus,
	}).Info("EndGame request received")

	session, err := h.service.EndGame(ctx, &req)
	if err != nil {
		if errors.Is(err, models.ErrNoActiveGame) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "No active game session",
				"message": "No active game session found for this player",
			})
			return
		}
		logrus.WithError(err).WithField("player_id", req.PlayerID).Error("Failed to end game session")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to end game session",
			"message": err.Error(),
		})
		return
	}

	// Ended sessions change every aggregate; drop the cached views.
	h.cacheService.InvalidateGameCaches(ctx)

	h.publisher.PublishActivityWithDetails(
		req.PlayerID,
		models.ServiceGameEnd,
		models.ActionGameEnded,
		"", "",
		map[string]string{
			"graduation_status": req.GraduationStatus,
			"is_winner":         strconv.FormatBool(*req.IsWinner),
		},
	)

	c.JSON(http.StatusOK, session)
}

func (h *handler) GetPlayerGame(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	playerID := c.Param("player_id")

	session, err := h.service.GetPlayerGame(ctx, playerID)
	if err != nil {
		if errors.Is(err, models.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Game session not found",
				"message": "No game session found for this player",
			})
			return
		}
		logrus.WithError(err).WithField("player_id", playerID).Error("Failed to get game session")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve game session",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *handler) GetStats(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	cached, err := h.cacheService.GetStats(ctx)
	if err == nil && cached != nil {
		logrus.Debug("Game statistics served from cache")
		c.JSON(http.StatusOK, cached)
		return
	}

	stats, err := h.service.GetStats(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get game statistics")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve game statistics",
			"message": err.Error(),
		})
		return
	}

	h.cacheService.SaveStats(ctx, stats)

	c.JSON(http.StatusOK, stats)
}

func (h *handler) GetLeaderboard(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	cached, err := h.cacheService.GetLeaderboard(ctx)
	if err == nil && cached != nil {
		logrus.Debug("Leaderboard served from cache")
		c.JSON(http.StatusOK, cached)
		return
	}

	board, err := h.service.GetLeaderboard(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get leaderboard")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve leaderboard",
			"message": err.Error(),
		})
		return
	}

	h.cacheService.SaveLeaderboard(ctx, board)

	c.JSON(http.StatusOK, board)
}

func (h *handler) GetPlayers(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	req := &PlayerListRequest{
		Page: parseIntParam(c, "page", 1),
		Size: parseIntParam(c, "size", h.config.Pagination.DefaultSize),
	}

	logrus.WithFields(logrus.Fields{
		"page": req.Page,
		"size": req.Size,
	}).Debug("GetPlayers request received")

	response, err := h.service.ListPlayers(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Failed to list players")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve players",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}

// resolveClientIP prefers the first entry of X-Forwarded-For over the
// transport-layer peer address.
func resolveClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return c.RemoteIP()
}

func parseIntParam(c *gin.Context, param string, defaultValue int) int {
	value := c.Query(param)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"param": param,
			"value": value,
			"error": err,
		}).Warn("Invalid integer parameter, using default")

		return defaultValue
	}
	return parsed
}
