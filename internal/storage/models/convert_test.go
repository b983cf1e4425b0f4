package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

func TestSnapshotRoundTrip(t *testing.T) {
	st := amp.Status{
		MainVolume:   0x20,
		Input:        6,
		Standby:      true,
		Input1Effect: amp.Effect3D,
		Input2Effect: amp.EffectDisabled,
		Input6Effect: amp.Effect2_1,
	}
	snap := SnapshotFromStatus(st)
	assert.Equal(t, int16(0x20), snap.MainVolume)
	assert.Equal(t, int16(amp.Effect3D), snap.Input1Effect)
	assert.Equal(t, st, snap.Status())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "command_journal", CommandRecord{}.TableName())
	assert.Equal(t, "status_snapshots", StatusSnapshot{}.TableName())
}
