package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/broker"
	"github.com/taoyao-code/amp-server/internal/logging"
	"github.com/taoyao-code/amp-server/internal/metrics"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

// ErrNoMirror 键不存在
var ErrNoMirror = errors.New("status mirror is empty")

// mirrored Redis 中保存的快照格式
type mirrored struct {
	amp.Status
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusMirror 把最新快照 SET 到 key，并 PUBLISH 到频道
type StatusMirror struct {
	rdb     redis.UniversalClient
	key     string
	channel string
	logger  *zap.Logger
	metrics *metrics.AppMetrics
	now     func() time.Time
}

func NewStatusMirror(rdb redis.UniversalClient, key, channel string, logger *zap.Logger, m *metrics.AppMetrics) *StatusMirror {
	return &StatusMirror{
		rdb:     rdb,
		key:     key,
		channel: channel,
		logger:  logging.OrNop(logger),
		metrics: m,
		now:     time.Now,
	}
}

// Write 写入一个快照（SET 与 PUBLISH 在同一 pipeline）
func (m *StatusMirror) Write(ctx context.Context, s amp.Status) error {
	payload, err := json.Marshal(mirrored{Status: s, UpdatedAt: m.now().UTC()})
	if err != nil {
		return err
	}
	_, err = m.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, m.key, payload, 0)
		if m.channel != "" {
			p.Publish(ctx, m.channel, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror status: %w", err)
	}
	return nil
}

// Latest 读取镜像中的快照
func (m *StatusMirror) Latest(ctx context.Context) (amp.Status, time.Time, error) {
	raw, err := m.rdb.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return amp.Status{}, time.Time{}, ErrNoMirror
	}
	if err != nil {
		return amp.Status{}, time.Time{}, err
	}
	var v mirrored
	if err := json.Unmarshal(raw, &v); err != nil {
		return amp.Status{}, time.Time{}, err
	}
	return v.Status, v.UpdatedAt, nil
}

// Run 消费订阅直到 ctx 取消或订阅关闭；写入失败只记日志
func (m *StatusMirror) Run(ctx context.Context, sub *broker.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-sub.C():
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := m.Write(wctx, st)
			cancel()
			if m.metrics != nil {
				m.metrics.MirrorWriteTotal.WithLabelValues("redis", metrics.Result(err)).Inc()
			}
			if err != nil {
				m.logger.Warn("redis mirror write failed", zap.Error(err))
			}
		}
	}
}
