package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
)

// NewPool 创建 pgx 连接池并探活；logger 非空时挂载 SQL 追踪
func NewPool(ctx context.Context, dsn string, maxOpen, maxIdle int, maxLifetime time.Duration, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if logger != nil {
		cfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   &zapTraceLogger{logger: logger},
			LogLevel: tracelog.LogLevelInfo,
		}
	}

	// 写入量很小（每次操作一行），连接数保持在个位数即可
	cfg.MaxConns = 4
	if maxOpen > 0 {
		cfg.MaxConns = int32(maxOpen)
	}
	cfg.MinConns = 1
	if maxIdle > 0 {
		cfg.MinConns = int32(maxIdle)
	}
	cfg.MaxConnLifetime = time.Hour
	if maxLifetime > 0 {
		cfg.MaxConnLifetime = maxLifetime
	}
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// zapTraceLogger 将 pgx tracelog 输出转到 zap
type zapTraceLogger struct {
	logger *zap.Logger
}

func (l *zapTraceLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		l.logger.Debug("pgx: "+msg, fields...)
	case tracelog.LogLevelWarn:
		l.logger.Warn("pgx: "+msg, fields...)
	case tracelog.LogLevelError:
		l.logger.Error("pgx: "+msg, fields...)
	default:
		l.logger.Info("pgx: "+msg, fields...)
	}
}
