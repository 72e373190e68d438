package cache

import (
	"context"
	"encoding/json"
	"errors"
	"phdsim-telemetry-svc/src/internal/config"
	"phdsim-telemetry-svc/src/internal/models"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Service interface {
	GetStats(ctx context.Context) (*models.Stats, error)
	SaveStats(ctx context.Context, stats *models.Stats) error
	GetLeaderboard(ctx context.Context) (*models.Leaderboard, error)
	SaveLeaderboard(ctx context.Context, board *models.Leaderboard) error
	InvalidateGameCaches(ctx context.Context) error
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache,
	}
}

func (c *cacheService) GetStats(ctx context.Context) (*models.Stats, error) {
	data, err := c.client.Get(ctx, c.cfg.StatsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.Debug("Game stats not found in cache")
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).Error("Failed to get game stats from cache")
		return nil, models.ErrRedisGet
	}

	var stats models.Stats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal game stats from cache")
		return nil, models.ErrRedisGet
	}

	logrus.Debug("Game stats retrieved from cache")
	return &stats, nil
}

func (c *cacheService) SaveStats(ctx context.Context, stats *models.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal game stats for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.StatsExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, c.cfg.StatsKey, data, expiration).Err(); err != nil {
		logrus.WithError(err).Error("Failed to cache game stats")
		return models.ErrRedisSet
	}

	return nil
}

func (c *cacheService) GetLeaderboard(ctx context.Context) (*models.Leaderboard, error) {
	data, err := c.client.Get(ctx, c.cfg.LeaderboardKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.Debug("Leaderboard not found in cache")
			return nil, nil
		}
		logrus.WithError(err).Error("Failed to get leaderboard from cache")
		return nil, models.ErrRedisGet
	}

	var board models.Leaderboard
	if err := json.Unmarshal([]byte(data), &board); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal leaderboard from cache")
		return nil, models.ErrRedisGet
	}

	logrus.Debug("Leaderboard retrieved from cache")
	return &board, nil
}

func (c *cacheService) SaveLeaderboard(ctx context.Context, board *models.Leaderboard) error {
	data, err := json.Marshal(board)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal leaderboard for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.LeaderboardExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, c.cfg.LeaderboardKey, data, expiration).Err(); err != nil {
		logrus.WithError(err).Error("Failed to cache leaderboard")
		return models.ErrRedisSet
	}

	return nil
}

// InvalidateGameCaches drops the cached stats and leaderboard after a
// session ends, so read endpoints pick up the new outcome immediately.
func (c *cacheService) InvalidateGameCaches(ctx context.Context) error {
	if err := c.client.Del(ctx, c.cfg.StatsKey, c.cfg.LeaderboardKey).Err(); err != nil {
		logrus.WithError(err).Error("Failed to invalidate game caches")
		return models.ErrRedisDel
	}
	logrus.Debug("Game caches invalidated")
	return nil
}
