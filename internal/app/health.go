package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/amp-server/internal/health"
)

// NewHealthAggregator 初始只包含设备检查；两个保活周期内无成功交互视为降级
func NewHealthAggregator(dev health.DeviceState, keepAlive time.Duration) *health.Aggregator {
	return health.NewAggregator(health.NewDeviceChecker(dev, 2*keepAlive))
}

// RegisterHealthRoutes 注册健康检查路由
func RegisterHealthRoutes(r *gin.Engine, agg *health.Aggregator) {
	health.RegisterHTTPRoutes(r, agg)
}

// AddDatabaseChecker 添加数据库检查器
func AddDatabaseChecker(agg *health.Aggregator, pool *pgxpool.Pool) {
	if pool != nil {
		agg.AddChecker(health.NewDatabaseChecker(pool))
	}
}
