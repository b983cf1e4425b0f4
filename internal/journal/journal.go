// Package journal 异步持久化 broker 操作记录
//
// broker 在释放设备锁之后同步调用 Recorder，这里只做非阻塞入队，
// 由单个后台 goroutine 批量写库。队列满时丢弃并计数。
package journal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/broker"
	"github.com/taoyao-code/amp-server/internal/logging"
	"github.com/taoyao-code/amp-server/internal/storage/models"
)

// Store 日志落库接口（gormrepo.Repository 满足）
type Store interface {
	SaveCommands(ctx context.Context, recs []models.CommandRecord) error
}

// Options 队列参数
type Options struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
}

func (o *Options) withDefaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = time.Second
	}
}

// Journal 实现 broker.Recorder
type Journal struct {
	store   Store
	opts    Options
	logger  *zap.Logger
	queue   chan models.CommandRecord
	dropped atomic.Uint64
	wg      sync.WaitGroup
	once    sync.Once
}

var _ broker.Recorder = (*Journal)(nil)

func New(store Store, opts Options, logger *zap.Logger) *Journal {
	opts.withDefaults()
	return &Journal{
		store:  store,
		opts:   opts,
		logger: logging.OrNop(logger),
		queue:  make(chan models.CommandRecord, opts.QueueSize),
	}
}

// Record 入队，不阻塞调用方
func (j *Journal) Record(_ context.Context, r broker.Record) {
	select {
	case j.queue <- ToModel(r):
	default:
		if n := j.dropped.Add(1); n == 1 || n%100 == 0 {
			j.logger.Warn("journal queue full, record dropped", zap.String("action", r.Action), zap.Uint64("dropped", n))
		}
	}
}

// Dropped 因队列满丢弃的记录数
func (j *Journal) Dropped() uint64 { return j.dropped.Load() }

// Start 启动写库协程；ctx 取消后把队列剩余记录写完再退出
func (j *Journal) Start(ctx context.Context) {
	j.once.Do(func() {
		j.wg.Add(1)
		go j.loop(ctx)
	})
}

// Wait 等待写库协程退出
func (j *Journal) Wait() { j.wg.Wait() }

func (j *Journal) loop(ctx context.Context) {
	defer j.wg.Done()
	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]models.CommandRecord, 0, j.opts.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		// 退出阶段 ctx 已取消，落库使用独立超时
		wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := j.store.SaveCommands(wctx, batch); err != nil {
			j.logger.Error("journal flush failed", zap.Int("records", len(batch)), zap.Error(err))
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-j.queue:
			batch = append(batch, rec)
			if len(batch) >= j.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case rec := <-j.queue:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

// UnknownAction 未知 action 统一落库的名称，原文保留在 error 列
const UnknownAction = "unknown"

// maxErrorLen error 列最大字节数
const maxErrorLen = 256

// ToModel broker 记录转表记录
// 未知 action 来自客户端原文，不直接写入 action 列
func ToModel(r broker.Record) models.CommandRecord {
	action := r.Action
	if errors.Is(r.Err, broker.ErrUnknownAction) {
		action = UnknownAction
	}
	m := models.CommandRecord{
		ID:         r.ID,
		Action:     cleanText(action, maxErrorLen),
		Success:    r.Err == nil,
		StartedAt:  r.StartedAt.UTC(),
		DurationMs: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		msg := cleanText(r.Err.Error(), maxErrorLen)
		m.Error = &msg
	}
	if r.Status != nil {
		vol := int16(r.Status.MainVolume)
		in := int16(r.Status.Input)
		standby := r.Status.Standby
		m.MainVolume = &vol
		m.Input = &in
		m.Standby = &standby
	}
	return m
}

// cleanText 去掉 NUL、修正非法 UTF-8 并按字节截断（PostgreSQL TEXT 不接受 0x00）
func cleanText(s string, n int) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if len(s) > n {
		s = s[:n]
	}
	return strings.ToValidUTF8(s, "")
}
