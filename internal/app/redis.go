package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/amp-server/internal/config"
	"github.com/taoyao-code/amp-server/internal/health"
	"github.com/taoyao-code/amp-server/internal/metrics"
	redisstorage "github.com/taoyao-code/amp-server/internal/storage/redis"
)

// NewRedisClient 未启用时返回 nil, nil
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, skipping initialization")
		return nil, nil
	}
	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("redis client initialized", zap.String("addr", cfg.Addr), zap.Int("pool_size", cfg.PoolSize))
	return client, nil
}

// NewStatusMirror 状态镜像
func NewStatusMirror(client *redisstorage.Client, cfg cfgpkg.RedisConfig, logger *zap.Logger, m *metrics.AppMetrics) *redisstorage.StatusMirror {
	return redisstorage.NewStatusMirror(client.Client, cfg.StatusKey, cfg.Channel, logger, m)
}

// AddRedisChecker 添加 Redis 检查器
func AddRedisChecker(agg *health.Aggregator, client *redisstorage.Client) {
	if client != nil {
		agg.AddChecker(health.NewRedisChecker(client))
	}
}
