package amp

import "bytes"

// statusField 状态应答中的一个定长字段
type statusField struct {
	offset int
	name   string
	apply  func(s *Status, b byte)
}

// statusLayout 24 字节状态应答的字段表
//
// 偏移 11/12/13 分别对应输入 2/6/1 的音效，来自实机观测，
// 不可外推到其余输入。
var statusLayout = []statusField{
	{3, "main_volume", func(s *Status, b byte) { s.MainVolume = b }},
	{7, "input", func(s *Status, b byte) { s.Input = b + 1 }}, // 线上 0..5 -> 1..6
	{20, "standby", func(s *Status, b byte) { s.Standby = b == 0x01 }},
	{11, "input_2_effect", func(s *Status, b byte) { s.Input2Effect = Effect(b) }},
	{12, "input_6_effect", func(s *Status, b byte) { s.Input6Effect = Effect(b) }},
	{13, "input_1_effect", func(s *Status, b byte) { s.Input1Effect = Effect(b) }},
}

// DecodeStatus 解析状态应答；头不匹配时不产生 Status
func DecodeStatus(buf []byte) (Status, error) {
	if len(buf) < StatusReplyLen {
		return Status{}, ErrShortReply
	}
	if !bytes.Equal(buf[:len(StatusHeader)], StatusHeader) {
		return Status{}, &HeaderError{Got: append([]byte(nil), buf[:len(StatusHeader)]...)}
	}
	var s Status
	for _, f := range statusLayout {
		f.apply(&s, buf[f.offset])
	}
	return s, nil
}

// StatusChecksumOK 状态应答末尾校验和是否正确，仅用于诊断
func StatusChecksumOK(buf []byte) bool {
	return len(buf) == StatusReplyLen && VerifyRecord(buf)
}
