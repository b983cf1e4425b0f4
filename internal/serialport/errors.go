package serialport

import (
	"errors"
	"fmt"
)

var (
	// ErrOpen 串口打开失败
	ErrOpen = errors.New("serial: open failed")

	// ErrTimeout 读超时，未收齐期望字节数；已读到的部分被丢弃
	ErrTimeout = errors.New("serial: read timeout")

	// ErrShortWrite 写入字节数不足，不做重试
	ErrShortWrite = errors.New("serial: short write")

	// ErrNoPort 枚举不到匹配的设备
	ErrNoPort = errors.New("serial: no matching port")
)

// OpenError 携带端口名与底层错误
type OpenError struct {
	Port string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("serial: open %s: %v", e.Port, e.Err)
}

func (e *OpenError) Unwrap() []error { return []error{ErrOpen, e.Err} }

// TimeoutError 读超时详情
type TimeoutError struct {
	Want int
	Got  int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("serial: read timeout after %d of %d bytes", e.Got, e.Want)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// ShortWriteError 写入不完整
type ShortWriteError struct {
	Want    int
	Written int
}

func (e *ShortWriteError) Error() string {
	return fmt.Sprintf("serial: short write %d of %d bytes", e.Written, e.Want)
}

func (e *ShortWriteError) Unwrap() error { return ErrShortWrite }
