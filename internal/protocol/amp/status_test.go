package amp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusReply 构造 24 字节状态应答
func statusReply(volume, input, standby, eff11, eff12, eff13 byte) []byte {
	buf := make([]byte, StatusReplyLen)
	copy(buf, StatusHeader)
	buf[3] = volume
	buf[7] = input
	buf[11] = eff11
	buf[12] = eff12
	buf[13] = eff13
	buf[20] = standby
	return buf
}

func TestDecodeStatus(t *testing.T) {
	buf := statusReply(0x20, 0x02, 0x00, 0x16, 0x35, 0x14)

	s, err := DecodeStatus(buf)
	require.NoError(t, err)
	assert.Equal(t, Status{
		MainVolume:   0x20,
		Input:        3,
		Standby:      false,
		Input2Effect: Effect2_1,
		Input6Effect: EffectDisabled,
		Input1Effect: Effect3D,
	}, s)
}

func TestDecodeStatus_Standby(t *testing.T) {
	tests := []struct {
		name    string
		b       byte
		standby bool
	}{
		{"待机", 0x01, true},
		{"工作", 0x00, false},
		{"其他值视为工作", 0x02, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeStatus(statusReply(0, 0, tt.b, 0, 0, 0))
			require.NoError(t, err)
			assert.Equal(t, tt.standby, s.Standby)
			assert.Equal(t, uint8(1), s.Input)
		})
	}
}

func TestDecodeStatus_HeaderMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte)
	}{
		{"magic错误", func(b []byte) { b[0] = 0xAB }},
		{"类型错误", func(b []byte) { b[1] = 0x0B }},
		{"长度错误", func(b []byte) { b[2] = 0x13 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := statusReply(0x20, 0, 0, 0, 0, 0)
			tt.mutate(buf)
			s, err := DecodeStatus(buf)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnexpectedHeader))
			assert.Equal(t, Status{}, s)

			var he *HeaderError
			require.True(t, errors.As(err, &he))
			assert.Len(t, he.Got, 3)
		})
	}
}

func TestDecodeStatus_Short(t *testing.T) {
	_, err := DecodeStatus([]byte{0xAA, 0x0A, 0x14})
	assert.ErrorIs(t, err, ErrShortReply)
}

func TestStatusChecksumOK(t *testing.T) {
	data := make([]byte, 20)
	data[0] = 0x20
	good := Record(RecordTypeStatus, data)
	assert.Len(t, good, StatusReplyLen)
	assert.True(t, StatusChecksumOK(good))

	s, err := DecodeStatus(good)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x20), s.MainVolume)

	bad := append([]byte(nil), good...)
	bad[23]++
	assert.False(t, StatusChecksumOK(bad))
}

func TestEffectString(t *testing.T) {
	assert.Equal(t, "3d", Effect3D.String())
	assert.Equal(t, "2_1", Effect2_1.String())
	assert.Equal(t, "4_1", Effect4_1.String())
	assert.Equal(t, "disabled", EffectDisabled.String())
	assert.Equal(t, "effect(0x01)", Effect(0x01).String())
	assert.True(t, Effect3D.Valid())
	assert.False(t, Effect(0x01).Valid())
}
