// Package broker 串行化对唯一设备的访问，并向所有订阅者广播状态快照
//
// 线上协议没有请求 ID，两条交错的帧与一条损坏的帧无法区分，
// 因此每次操作（发送、应答、随后的状态读取）都在同一个独占区内完成。
package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/logging"
	"github.com/taoyao-code/amp-server/internal/metrics"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

// DefaultBuffer 每个订阅者的默认缓冲
const DefaultBuffer = 8

// Broker 设备状态代理
type Broker struct {
	guard chan struct{} // 容量 1 的信号量，持有者独占设备
	dev   Device
	seq   uint64 // 仅在独占区内递增

	inputs   *amp.InputTable
	buffer   int
	logger   *zap.Logger
	metrics  *metrics.AppMetrics
	recorder Recorder

	mu        sync.Mutex // 保护订阅表与发布序号
	subs      map[uint64]*Subscription
	nextID    uint64
	published uint64
	closed    bool

	healthMu sync.RWMutex
	lastOK   time.Time
	lastErr  error
}

// Option broker 可选项
type Option func(*Broker)

func WithLogger(l *zap.Logger) Option { return func(b *Broker) { b.logger = logging.OrNop(l) } }

func WithMetrics(m *metrics.AppMetrics) Option { return func(b *Broker) { b.metrics = m } }

func WithRecorder(r Recorder) Option { return func(b *Broker) { b.recorder = r } }

// WithInputTable 设置 select_input_<variant> 的变体表
func WithInputTable(t *amp.InputTable) Option { return func(b *Broker) { b.inputs = t } }

// WithBuffer 设置订阅者缓冲大小
func WithBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// New 创建 broker；dev 此后只能经由 broker 访问
func New(dev Device, opts ...Option) *Broker {
	b := &Broker{
		guard:  make(chan struct{}, 1),
		dev:    dev,
		inputs: amp.DefaultInputTable(),
		buffer: DefaultBuffer,
		logger: zap.NewNop(),
		subs:   make(map[uint64]*Subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// acquire 等待独占权；仅在尚未获得时响应 ctx 取消
func (b *Broker) acquire(ctx context.Context) error {
	select {
	case b.guard <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Broker) release() { <-b.guard }

// Apply 执行一个入站 action，成功后广播新状态并返回
// 未知 action 不产生任何 I/O 与广播
func (b *Broker) Apply(ctx context.Context, action string) (amp.Status, error) {
	o, err := resolve(action, b.inputs)
	if err != nil {
		b.logger.Warn("broker rejected action", zap.String("action", action), zap.Error(err))
		b.observe(ctx, action, time.Now(), nil, err)
		return amp.Status{}, err
	}
	return b.do(ctx, o)
}

// KeepAlive 重置设备空闲计时
func (b *Broker) KeepAlive(ctx context.Context) (amp.Status, error) {
	return b.do(ctx, op{name: opResetIdleTimeout, run: Device.ResetIdleTimeout})
}

// ResetConfiguration 写入出厂配置块
func (b *Broker) ResetConfiguration(ctx context.Context) (amp.Status, error) {
	return b.do(ctx, op{name: opConfigurationReset, run: Device.ConfigurationReset})
}

// Refresh 强制读取一次状态并广播
func (b *Broker) Refresh(ctx context.Context) (amp.Status, error) {
	return b.do(ctx, op{name: opStatus})
}

// Status 返回缓存状态（无缓存时读取一次），不广播
func (b *Broker) Status(ctx context.Context) (amp.Status, error) {
	if err := b.acquire(ctx); err != nil {
		return amp.Status{}, err
	}
	defer b.release()
	s, err := b.dev.CachedStatus()
	b.setHealth(err)
	return s, err
}

func (b *Broker) do(ctx context.Context, o op) (amp.Status, error) {
	start := time.Now()
	if err := b.acquire(ctx); err != nil {
		b.observe(ctx, o.name, start, nil, err)
		return amp.Status{}, err
	}
	s, seq, err := b.exec(o)
	b.setHealth(err)
	if err != nil {
		b.observe(ctx, o.name, start, nil, err)
		return amp.Status{}, err
	}
	b.publish(seq, s)
	b.observe(ctx, o.name, start, &s, nil)
	return s, nil
}

// exec 在独占区内执行操作与随后的状态读取；任何情况下都释放独占权
func (b *Broker) exec(o op) (amp.Status, uint64, error) {
	defer b.release()
	if o.run != nil {
		if err := o.run(b.dev); err != nil {
			return amp.Status{}, 0, err
		}
	}
	s, err := b.dev.Status()
	if err != nil {
		return amp.Status{}, 0, err
	}
	b.seq++
	return s, b.seq, nil
}

// publish 向所有订阅者投递快照；比已发布快照更旧的直接跳过
func (b *Broker) publish(seq uint64, s amp.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || seq <= b.published {
		return
	}
	b.published = seq
	var dropped int
	for _, sub := range b.subs {
		if sub.offer(s) {
			dropped++
		}
	}
	if b.metrics != nil {
		b.metrics.PublishTotal.Inc()
		b.metrics.DroppedTotal.Add(float64(dropped))
	}
}

// Subscribe 注册订阅者并立即投递当前缓存状态
func (b *Broker) Subscribe(ctx context.Context) (*Subscription, error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	defer b.release()

	s, err := b.dev.CachedStatus()
	b.setHealth(err)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.nextID++
	sub := &Subscription{id: b.nextID, ch: make(chan amp.Status, b.buffer), broker: b}
	sub.offer(s)
	b.subs[sub.id] = sub
	if b.metrics != nil {
		b.metrics.SubscriberGauge.Set(float64(len(b.subs)))
	}
	return sub, nil
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	close(sub.ch)
	if b.metrics != nil {
		b.metrics.SubscriberGauge.Set(float64(len(b.subs)))
	}
}

// Subscribers 当前订阅者数量
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close 关闭所有订阅，之后不再广播
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
	if b.metrics != nil {
		b.metrics.SubscriberGauge.Set(0)
	}
}

// Inputs 当前输入变体表
func (b *Broker) Inputs() *amp.InputTable { return b.inputs }

// Health 最近一次成功时间与最近一次设备错误（成功后清空）
func (b *Broker) Health() (time.Time, error) {
	b.healthMu.RLock()
	defer b.healthMu.RUnlock()
	return b.lastOK, b.lastErr
}

// setHealth 记录链路结果；未触及链路的错误（不支持的操作、取消）不影响健康状态
func (b *Broker) setHealth(err error) {
	if errors.Is(err, amp.ErrUnsupportedOperation) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	b.healthMu.Lock()
	defer b.healthMu.Unlock()
	if err != nil {
		b.lastErr = err
		return
	}
	b.lastOK = time.Now()
	b.lastErr = nil
}

func (b *Broker) observe(ctx context.Context, action string, start time.Time, s *amp.Status, err error) {
	if b.metrics != nil {
		label := action
		if errors.Is(err, ErrUnknownAction) {
			label = "unknown" // 避免任意字符串撑大标签基数
		}
		b.metrics.ActionTotal.WithLabelValues(label, metrics.Result(err)).Inc()
	}
	if err != nil {
		b.logger.Warn("broker action failed", zap.String("action", action), zap.Error(err))
	} else {
		b.logger.Debug("broker action applied", zap.String("action", action), zap.Any("status", s))
	}
	if b.recorder != nil {
		b.recorder.Record(ctx, Record{
			ID:        uuid.New(),
			Action:    action,
			Err:       err,
			Status:    s,
			StartedAt: start,
			Duration:  time.Since(start),
		})
	}
}
