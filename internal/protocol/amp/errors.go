package amp

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedHeader 状态应答头不是 AA 0A 14
	ErrUnexpectedHeader = errors.New("amp: unexpected status header")

	// ErrUnexpectedEcho 应答与期望回显不一致
	ErrUnexpectedEcho = errors.New("amp: unexpected echo")

	// ErrUnsupportedOperation 协议中没有对应指令（如静音）
	ErrUnsupportedOperation = errors.New("amp: unsupported operation")

	// ErrShortReply 应答长度不足
	ErrShortReply = errors.New("amp: short reply")
)

// HeaderError 状态应答头不匹配
type HeaderError struct {
	Got []byte
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("amp: unexpected status header % X, want % X", e.Got, StatusHeader)
}

func (e *HeaderError) Unwrap() error { return ErrUnexpectedHeader }

// EchoError 回显校验失败
type EchoError struct {
	Command  string
	Expected []byte
	Got      []byte
}

func (e *EchoError) Error() string {
	return fmt.Sprintf("amp: %s: unexpected echo % X, want % X", e.Command, e.Got, e.Expected)
}

func (e *EchoError) Unwrap() error { return ErrUnexpectedEcho }

// UnsupportedError 指出哪一个操作没有线上指令
type UnsupportedError struct {
	Operation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("amp: %s has no known wire command", e.Operation)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedOperation }
