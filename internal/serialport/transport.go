// Package serialport 功放串口链路：整帧写入与定长读取
package serialport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/amp-server/internal/config"
	"github.com/taoyao-code/amp-server/internal/logging"
)

// 设备固定的电气参数：57600 8O1
const (
	BaudRate = 57_600
	DataBits = 8
)

// DefaultReadTimeout 单次读超时
const DefaultReadTimeout = time.Second

// inputResetter 可丢弃接收缓冲的端口（go.bug.st/serial.Port 满足）
type inputResetter interface {
	ResetInputBuffer() error
}

// Transport 定长读写链路，不是并发安全的
type Transport struct {
	rw      io.ReadWriter
	timeout time.Duration
	logger  *zap.Logger
}

// New 基于任意 io.ReadWriter 构造链路（测试中使用脚本化的假端口）
func New(rw io.ReadWriter, timeout time.Duration, logger *zap.Logger) *Transport {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &Transport{rw: rw, timeout: timeout, logger: logging.OrNop(logger)}
}

// Mode 返回设备要求的串口模式
func Mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: BaudRate,
		DataBits: DataBits,
		Parity:   serial.OddParity,
		StopBits: serial.OneStopBit,
	}
}

// openPort 测试可替换
var openPort = func(name string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(name, mode)
}

// Open 以固定参数打开串口
func Open(name string, cfg cfgpkg.SerialConfig, logger *zap.Logger) (*Transport, error) {
	if name == "" {
		return nil, &OpenError{Port: name, Err: fmt.Errorf("empty port name")}
	}
	port, err := openPort(name, Mode())
	if err != nil {
		return nil, &OpenError{Port: name, Err: err}
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		_ = port.Close()
		return nil, &OpenError{Port: name, Err: fmt.Errorf("set read timeout: %w", err)}
	}
	logging.OrNop(logger).Info("serial port opened",
		zap.String("port", name),
		zap.Int("baud", BaudRate),
		zap.Duration("read_timeout", timeout))
	return New(port, timeout, logger), nil
}

// Write 整帧写入；短写直接报错，避免重发半帧打乱设备解析
func (t *Transport) Write(buf []byte) error {
	n, err := t.rw.Write(buf)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != len(buf) {
		return &ShortWriteError{Want: len(buf), Written: n}
	}
	return nil
}

// Read 累积读取直到恰好 n 字节或超时
// 超时后丢弃已读部分并尽量清空接收缓冲，此时字节流已失步
func (t *Transport) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	deadline := time.Now().Add(t.timeout)
	for got < n {
		k, err := t.rw.Read(buf[got:])
		got += k
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("serial read: %w", err)
		}
		if got >= n {
			break
		}
		if !time.Now().Before(deadline) {
			t.discard()
			return nil, &TimeoutError{Want: n, Got: got}
		}
		if k == 0 {
			// 端口自身带读超时；对不阻塞的实现做一次短暂让出
			time.Sleep(time.Millisecond)
		}
	}
	return buf, nil
}

func (t *Transport) discard() {
	r, ok := t.rw.(inputResetter)
	if !ok {
		return
	}
	if err := r.ResetInputBuffer(); err != nil {
		t.logger.Warn("serial reset input buffer failed", zap.Error(err))
	}
}

// Close 关闭底层端口
func (t *Transport) Close() error {
	if c, ok := t.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
