package models

import (
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

// SnapshotFromStatus 协议快照转表记录
func SnapshotFromStatus(s amp.Status) StatusSnapshot {
	return StatusSnapshot{
		MainVolume:   int16(s.MainVolume),
		Input:        int16(s.Input),
		Standby:      s.Standby,
		Input1Effect: int16(s.Input1Effect),
		Input2Effect: int16(s.Input2Effect),
		Input6Effect: int16(s.Input6Effect),
	}
}

// Status 表记录转回协议快照
func (s StatusSnapshot) Status() amp.Status {
	return amp.Status{
		MainVolume:   uint8(s.MainVolume),
		Input:        uint8(s.Input),
		Standby:      s.Standby,
		Input1Effect: amp.Effect(s.Input1Effect),
		Input2Effect: amp.Effect(s.Input2Effect),
		Input6Effect: amp.Effect(s.Input6Effect),
	}
}
