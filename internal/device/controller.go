// Package device 持有一条串口链路与最近一次状态缓存
package device

import (
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/amp-server/internal/logging"
	"github.com/taoyao-code/amp-server/internal/metrics"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

// Link 定长读写链路（serialport.Transport 满足）
type Link interface {
	Write(buf []byte) error
	Read(n int) ([]byte, error)
}

// Controller 功放控制器
//
// 不是并发安全的：一条链路同一时刻只能有一个请求在途，
// 由 broker 独占持有并串行调用。
type Controller struct {
	link    Link
	cached  *amp.Status
	logger  *zap.Logger
	metrics *metrics.AppMetrics
}

// Option 控制器可选项
type Option func(*Controller)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = logging.OrNop(l) }
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.AppMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// New 创建控制器
func New(link Link, opts ...Option) *Controller {
	c := &Controller{link: link, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// exchange 发送一帧并读取定长应答
func (c *Controller) exchange(cmd amp.Command) (reply []byte, err error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.FrameTotal.WithLabelValues(cmd.Name, metrics.Result(err)).Inc()
			c.metrics.FrameLatency.WithLabelValues(cmd.Name).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			c.logger.Warn("device exchange failed", zap.String("command", cmd.Name), zap.Error(err))
		}
	}()

	if err = c.link.Write(cmd.Frame); err != nil {
		return nil, err
	}
	if reply, err = c.link.Read(cmd.ReplyLen); err != nil {
		return nil, err
	}
	c.logger.Debug("device exchange",
		zap.String("command", cmd.Name),
		zap.Binary("tx", cmd.Frame),
		zap.Binary("rx", reply))
	return reply, nil
}

// run 交换并按指令定义校验应答
func (c *Controller) run(cmd amp.Command) error {
	reply, err := c.exchange(cmd)
	if err != nil {
		return err
	}
	if err := cmd.Check(reply); err != nil {
		c.logger.Warn("device reply rejected", zap.String("command", cmd.Name), zap.Error(err))
		return err
	}
	return nil
}

// Status 完整查询一次状态；成功后覆盖缓存，失败时缓存保持不变
func (c *Controller) Status() (amp.Status, error) {
	reply, err := c.exchange(amp.StatusRequest())
	if err != nil {
		return amp.Status{}, err
	}
	s, err := amp.DecodeStatus(reply)
	if err != nil {
		c.logger.Warn("device status rejected", zap.Binary("rx", reply), zap.Error(err))
		return amp.Status{}, err
	}
	if !amp.StatusChecksumOK(reply) {
		c.logger.Debug("device status checksum mismatch", zap.Binary("rx", reply))
	}
	c.cached = &s
	return s, nil
}

// CachedStatus 有缓存直接返回，否则查询一次
func (c *Controller) CachedStatus() (amp.Status, error) {
	if c.cached != nil {
		return *c.cached, nil
	}
	return c.Status()
}

// HasCache 是否已有状态缓存
func (c *Controller) HasCache() bool { return c.cached != nil }

// 以下变更操作都不刷新缓存，由调用方随后调用 Status。

func (c *Controller) VolumeUp() error   { return c.run(amp.VolumeUp()) }
func (c *Controller) VolumeDown() error { return c.run(amp.VolumeDown()) }
func (c *Controller) TurnOn() error     { return c.run(amp.TurnOn()) }
func (c *Controller) TurnOff() error    { return c.run(amp.TurnOff()) }

// Mute 协议未知，不做任何 I/O
func (c *Controller) Mute() error {
	_, err := amp.Mute()
	return err
}

func (c *Controller) SelectInput(in amp.Input) error  { return c.run(amp.SelectInput(in)) }
func (c *Controller) SelectEffect(e amp.Effect) error { return c.run(amp.SelectEffect(e)) }
func (c *Controller) ConfigurationReset() error       { return c.run(amp.ConfigurationReset()) }
func (c *Controller) ResetIdleTimeout() error         { return c.run(amp.ResetIdleTimeout()) }
