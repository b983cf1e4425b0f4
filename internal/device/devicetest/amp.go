// Package devicetest 提供模拟功放，供 device/broker/api 测试使用
package devicetest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/taoyao-code/amp-server/internal/protocol/amp"
	"github.com/taoyao-code/amp-server/internal/serialport"
)

// ErrInterleaved 上一帧应答尚未读取就写入了下一帧
var ErrInterleaved = errors.New("devicetest: frame written before previous reply was read")

// StatusFrame 将 Status 编码为带校验和的 24 字节状态应答
func StatusFrame(s amp.Status) []byte {
	data := make([]byte, 20)
	data[0] = s.MainVolume
	data[4] = s.Input - 1
	data[8] = byte(s.Input2Effect)
	data[9] = byte(s.Input6Effect)
	data[10] = byte(s.Input1Effect)
	if s.Standby {
		data[17] = 0x01
	}
	return amp.Record(amp.RecordTypeStatus, data)
}

// Amp 按帧内容模拟设备行为的半双工链路
type Amp struct {
	mu        sync.Mutex
	state     amp.Status
	pending   []byte
	busy      bool
	overrides map[string][]byte

	// Delay 每次读取前的等待，用于放大并发窗口
	Delay time.Duration

	writes      [][]byte
	reads       int
	interleaved int
}

// NewAmp 以给定初始状态创建模拟设备
func NewAmp(initial amp.Status) *Amp {
	return &Amp{state: initial, overrides: make(map[string][]byte)}
}

// Override 下一次收到 frame 时以 reply 代替正常应答（一次性）
func (a *Amp) Override(frame, reply []byte) {
	a.mu.Lock()
	a.overrides[hex.EncodeToString(frame)] = reply
	a.mu.Unlock()
}

// State 当前模拟状态
func (a *Amp) State() amp.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Writes 已写入的帧副本
func (a *Amp) Writes() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]byte, len(a.writes))
	copy(out, a.writes)
	return out
}

// Reads 已完成的读取次数
func (a *Amp) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads
}

// Interleaved 检测到的交错写入次数
func (a *Amp) Interleaved() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interleaved
}

func (a *Amp) Write(frame []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy {
		a.interleaved++
		return ErrInterleaved
	}
	a.busy = true
	a.writes = append(a.writes, append([]byte(nil), frame...))

	key := hex.EncodeToString(frame)
	if r, ok := a.overrides[key]; ok {
		delete(a.overrides, key)
		a.pending = r
		return nil
	}
	a.pending = a.respond(frame)
	return nil
}

func (a *Amp) Read(n int) ([]byte, error) {
	if a.Delay > 0 {
		time.Sleep(a.Delay)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.busy = false
	a.reads++
	reply := a.pending
	a.pending = nil
	if len(reply) != n {
		return nil, &serialport.TimeoutError{Want: n, Got: len(reply)}
	}
	return reply, nil
}

// respond 调用方持锁
func (a *Amp) respond(frame []byte) []byte {
	echo := append([]byte(nil), frame...)
	switch {
	case bytes.Equal(frame, amp.StatusRequest().Frame):
		return StatusFrame(a.state)
	case bytes.Equal(frame, amp.VolumeUp().Frame):
		if a.state.MainVolume < 0xFF {
			a.state.MainVolume++
		}
		return []byte{a.state.MainVolume}
	case bytes.Equal(frame, amp.VolumeDown().Frame):
		if a.state.MainVolume > 0 {
			a.state.MainVolume--
		}
		return []byte{a.state.MainVolume}
	case bytes.Equal(frame, amp.TurnOn().Frame):
		a.state.Standby = false
		return echo
	case bytes.Equal(frame, amp.TurnOff().Frame):
		a.state.Standby = true
		return echo
	case bytes.Equal(frame, amp.ResetIdleTimeout().Frame):
		return echo
	case bytes.Equal(frame, amp.ConfigurationReset().Frame):
		return amp.ConfigurationReset().Expect
	case len(frame) == 4 && frame[0] == 0x09 && frame[3] == 0x08:
		a.state.Input = frame[1] + 1
		a.setEffect(amp.Effect(frame[2]))
		return echo
	case len(frame) == 1 && amp.Effect(frame[0]).Valid():
		a.setEffect(amp.Effect(frame[0]))
		return echo
	}
	return nil
}

func (a *Amp) setEffect(e amp.Effect) {
	switch a.state.Input {
	case 1:
		a.state.Input1Effect = e
	case 2:
		a.state.Input2Effect = e
	case 6:
		a.state.Input6Effect = e
	}
}
