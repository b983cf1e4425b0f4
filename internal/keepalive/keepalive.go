// Package keepalive 周期性重置功放空闲计时，防止其自动待机
package keepalive

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/logging"
	"github.com/taoyao-code/amp-server/internal/metrics"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

// Target 需要保活的对象（*broker.Broker 满足）
type Target interface {
	KeepAlive(ctx context.Context) (amp.Status, error)
}

// Worker 保活协程
type Worker struct {
	target   Target
	interval time.Duration
	logger   *zap.Logger
	metrics  *metrics.AppMetrics
}

func New(target Target, interval time.Duration, logger *zap.Logger, m *metrics.AppMetrics) *Worker {
	return &Worker{target: target, interval: interval, logger: logging.OrNop(logger), metrics: m}
}

// Run 阻塞直到 ctx 取消；interval<=0 时直接返回
func (w *Worker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("keepalive disabled")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.logger.Info("keepalive started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("keepalive stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	// 单次保活不应超过一个周期，否则排队的请求会越积越多
	tctx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()
	_, err := w.target.KeepAlive(tctx)
	if w.metrics != nil {
		w.metrics.KeepAliveTotal.WithLabelValues(metrics.Result(err)).Inc()
	}
	if err != nil && ctx.Err() == nil {
		w.logger.Warn("keepalive failed", zap.Error(err))
	}
}
