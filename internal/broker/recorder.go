package broker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

// Record 一次 broker 操作的结果
type Record struct {
	ID        uuid.UUID
	Action    string
	Err       error
	Status    *amp.Status // 成功时为操作后的新快照
	StartedAt time.Time
	Duration  time.Duration
}

// Recorder 操作记录接收者；实现不得阻塞
type Recorder interface {
	Record(ctx context.Context, r Record)
}

// RecorderFunc 函数适配
type RecorderFunc func(ctx context.Context, r Record)

func (f RecorderFunc) Record(ctx context.Context, r Record) { f(ctx, r) }
