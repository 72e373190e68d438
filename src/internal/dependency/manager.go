package dependency

import (
	"phdsim-telemetry-svc/src/clients"
	"phdsim-telemetry-svc/src/internal/cache"
	"phdsim-telemetry-svc/src/internal/config"
	"phdsim-telemetry-svc/src/internal/game"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Router       *gin.Engine
	Config       *config.Configuration
	Mongodb      *clients.MongoDB
	Redis        *clients.RedisClient
	RabbitMQ     *clients.RabbitMQ
	GameService  game.Service
	GameHandler  game.Handler
	CacheService cache.Service
	Publisher    *clients.ActivityPublisher
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {
	cacheService := cache.NewCacheService(redisClient.Client, cfg)
	gameRepo := game.NewGameRepository(mongodb, cfg.Database.GameCollection)
	gameService := game.NewGameService(gameRepo, cfg)

	publisher := clients.NewActivityPublisher(cfg, clients.ChannelOf(rabbitMQ))

	gameHandler := game.NewHandler(cfg, gameService, cacheService, publisher)

	return &Manager{
		Router:       router,
		Config:       cfg,
		Mongodb:      mongodb,
		Redis:        redisClient,
		RabbitMQ:     rabbitMQ,
		GameService:  gameService,
		GameHandler:  gameHandler,
		CacheService: cacheService,
		Publisher:    publisher,
	}
}
