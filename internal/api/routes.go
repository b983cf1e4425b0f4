package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/api/middleware"
	"github.com/taoyao-code/amp-server/internal/broker"
	"github.com/taoyao-code/amp-server/internal/logging"
)

// Deps 路由依赖；Journal、Snapshots 为空时对应接口返回 503
type Deps struct {
	Broker    *broker.Broker
	Journal   JournalReader
	Snapshots SnapshotReader
	Auth      middleware.AuthConfig
	WS        WSConfig
	Logger    *zap.Logger
}

// RegisterRoutes 注册 /ws 与 /api 路由，返回 WebSocket 处理器以便查询会话数
func RegisterRoutes(r gin.IRouter, d Deps) *WSHandler {
	logger := logging.OrNop(d.Logger)
	if d.Broker == nil {
		return nil
	}

	h := NewStatusHandler(d.Broker, d.Journal, d.Snapshots, logger)
	ws := NewWSHandler(d.Broker, d.WS, logger)

	auth := middleware.APIKeyAuth(d.Auth, logger)
	if d.Auth.Enabled {
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(d.Auth.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for trusted networks!")
	}

	r.GET("/ws", auth, ws.Serve)

	g := r.Group("/api", auth)
	g.GET("/status", h.GetStatus)
	g.POST("/status/refresh", h.Refresh)
	g.GET("/actions", h.ListActions)
	g.POST("/actions", h.ApplyAction)
	g.GET("/journal", h.ListJournal)
	g.GET("/snapshots/latest", h.LatestSnapshot)

	logger.Info("api routes registered", zap.Int("endpoints", 7))
	return ws
}
