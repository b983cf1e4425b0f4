package amp

import "bytes"

// Command 一次请求/应答交换
// Expect 为空时只校验应答长度，非空时要求应答逐字节相等
type Command struct {
	Name     string
	Frame    []byte
	ReplyLen int
	Expect   []byte
}

// Check 校验应答
func (c Command) Check(reply []byte) error {
	if len(reply) != c.ReplyLen {
		return ErrShortReply
	}
	if c.Expect != nil && !bytes.Equal(reply, c.Expect) {
		return &EchoError{Command: c.Name, Expected: c.Expect, Got: append([]byte(nil), reply...)}
	}
	return nil
}

const (
	cmdVolumeUp   byte = 0x08
	cmdVolumeDown byte = 0x09
	cmdIdleReset  byte = 0x30
	cmdStatus     byte = 0x34

	selectInputPrefix byte = 0x09
	selectInputSuffix byte = 0x08
)

// StatusHeader 状态应答头：magic + 状态记录类型 + 数据长度 20
var StatusHeader = []byte{RecordMagic, RecordTypeStatus, 0x14}

// StatusReplyLen 状态应答长度：3 字节头 + 20 字节数据 + 1 字节校验和
const StatusReplyLen = 24

func VolumeUp() Command {
	return Command{Name: "volume_up", Frame: []byte{cmdVolumeUp}, ReplyLen: 1}
}

func VolumeDown() Command {
	return Command{Name: "volume_down", Frame: []byte{cmdVolumeDown}, ReplyLen: 1}
}

func TurnOn() Command {
	return Command{Name: "turn_on", Frame: []byte{0x11, 0x11, 0x14, 0x39, 0x38, 0x30, 0x39}, ReplyLen: 7}
}

func TurnOff() Command {
	return Command{Name: "turn_off", Frame: []byte{0x30, 0x37, 0x36}, ReplyLen: 3}
}

// SelectInput 选择输入，同时关闭音效；设备原样回显 4 字节
func SelectInput(in Input) Command {
	frame := []byte{selectInputPrefix, byte(in), byte(EffectDisabled), selectInputSuffix}
	return Command{Name: "select_input", Frame: frame, ReplyLen: len(frame), Expect: frame}
}

func SelectEffect(e Effect) Command {
	frame := []byte{byte(e)}
	return Command{Name: "select_effect", Frame: frame, ReplyLen: 1, Expect: frame}
}

// ResetIdleTimeout 重置设备空闲计时（空闲 2 小时自动待机）
func ResetIdleTimeout() Command {
	frame := []byte{cmdIdleReset}
	return Command{Name: "reset_idle_timeout", Frame: frame, ReplyLen: 1, Expect: frame}
}

// 恢复出厂配置写入的状态块
var configResetBlock = []byte{
	0x0A, 0x15, 0x15, 0x15, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x06, 0x01, 0x03, 0x00, 0x00, 0x00,
}

// ConfigurationReset 两条记录 + 终止符；设备应答一条 ACK 记录 + 终止符
func ConfigurationReset() Command {
	var frame []byte
	frame = append(frame, Record(RecordTypeConfig, []byte{0x20, 0x00, 0x00})...)
	frame = append(frame, Record(RecordTypeStatus, configResetBlock)...)
	frame = append(frame, RecordTerminator)

	expect := append(Record(RecordTypeAck, []byte{0x8A}), RecordTerminator)
	return Command{Name: "configuration_reset", Frame: frame, ReplyLen: len(expect), Expect: expect}
}

// StatusRequest 状态查询，应答由 DecodeStatus 解析
func StatusRequest() Command {
	return Command{Name: "status", Frame: []byte{cmdStatus}, ReplyLen: StatusReplyLen}
}

// Mute 协议中尚无静音指令
func Mute() (Command, error) {
	return Command{}, &UnsupportedError{Operation: "mute"}
}
