package broker

import (
	"sync"
	"sync/atomic"

	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

// Subscription 一个状态订阅者
//
// 缓冲有界，满时丢弃最旧的快照；只有最新快照有意义，
// 中间快照丢失是可以接受的。
type Subscription struct {
	id      uint64
	ch      chan amp.Status
	broker  *Broker
	once    sync.Once
	dropped atomic.Uint64
}

// C 快照通道，订阅关闭后被 close
func (s *Subscription) C() <-chan amp.Status { return s.ch }

// ID 订阅编号
func (s *Subscription) ID() uint64 { return s.id }

// Dropped 因缓冲满而丢弃的快照数
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close 取消订阅，可重复调用
func (s *Subscription) Close() {
	s.once.Do(func() { s.broker.unsubscribe(s) })
}

// offer 非阻塞投递，调用方持有 broker.mu
func (s *Subscription) offer(st amp.Status) (dropped bool) {
	select {
	case s.ch <- st:
		return false
	default:
	}
	select {
	case <-s.ch:
		dropped = true
		s.dropped.Add(1)
	default:
	}
	select {
	case s.ch <- st:
	default:
	}
	return dropped
}
