package broker

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction 入站 action 不在已知集合内
	ErrUnknownAction = errors.New("broker: unknown action")

	// ErrClosed broker 已关闭
	ErrClosed = errors.New("broker: closed")
)

// UnknownActionError 携带原始 action 字符串
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("broker: unknown action %q", e.Action)
}

func (e *UnknownActionError) Unwrap() error { return ErrUnknownAction }
