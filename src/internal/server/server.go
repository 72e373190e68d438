package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"phdsim-telemetry-svc/src/clients"
	"phdsim-telemetry-svc/src/internal/config"
	"phdsim-telemetry-svc/src/internal/dependency"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

type Server struct {
	cfg  *config.Configuration
	deps *dependency.Manager
}

func New(cfg *config.Configuration) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.Timeout)*time.Second)
	defer cancel()
	if err := mongodb.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("Failed to ensure database indexes")
	}

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}

	var rabbitMQ *clients.RabbitMQ
	if cfg.Queue.RabbitMQ.Url != "" {
		rabbitMQ, err = clients.NewRabbitMQ(&cfg.Queue)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to RabbitMQ, activity events disabled")
			rabbitMQ = nil
		} else if err := rabbitMQ.SetupExchange(); err != nil {
			log.WithError(err).Warn("Failed to declare activity exchange, activity events disabled")
			rabbitMQ.Close()
			rabbitMQ = nil
		}
	} else {
		log.Info("RabbitMQ url not configured, activity events disabled")
	}

	deps := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)
	SetupRoutes(deps)

	return &Server{
		cfg:  cfg,
		deps: deps,
	}
}

func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.deps.Router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on :%s", s.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Infof("Received signal %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
		return err
	}

	s.closeClients(ctx)

	log.Info("Server stopped")
	return nil
}

func (s *Server) closeClients(ctx context.Context) {
	if s.deps.RabbitMQ != nil {
		s.deps.RabbitMQ.Close()
	}
	s.deps.Redis.Close()
	s.deps.Mongodb.Close(ctx)
}
