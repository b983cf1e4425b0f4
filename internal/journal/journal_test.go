package journal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/amp-server/internal/broker"
	"github.com/taoyao-code/amp-server/internal/device"
	"github.com/taoyao-code/amp-server/internal/device/devicetest"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
	"github.com/taoyao-code/amp-server/internal/storage/models"
)

type memStore struct {
	mu   sync.Mutex
	recs []models.CommandRecord
	err  error
}

func (s *memStore) SaveCommands(_ context.Context, recs []models.CommandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.recs = append(s.recs, recs...)
	return nil
}

func (s *memStore) snapshot() []models.CommandRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CommandRecord(nil), s.recs...)
}

func TestToModel(t *testing.T) {
	start := time.Now()
	t.Run("成功", func(t *testing.T) {
		st := amp.Status{MainVolume: 7, Input: 2, Standby: true}
		m := ToModel(broker.Record{ID: uuid.New(), Action: "volume_up", Status: &st, StartedAt: start, Duration: 12 * time.Millisecond})
		assert.True(t, m.Success)
		assert.Nil(t, m.Error)
		require.NotNil(t, m.MainVolume)
		assert.Equal(t, int16(7), *m.MainVolume)
		assert.Equal(t, int16(2), *m.Input)
		assert.True(t, *m.Standby)
		assert.Equal(t, int64(12), m.DurationMs)
	})
	t.Run("失败", func(t *testing.T) {
		m := ToModel(broker.Record{ID: uuid.New(), Action: "mute", Err: errors.New("unsupported"), StartedAt: start})
		assert.False(t, m.Success)
		require.NotNil(t, m.Error)
		assert.Equal(t, "unsupported", *m.Error)
		assert.Nil(t, m.MainVolume)
	})
	t.Run("未知action含NUL", func(t *testing.T) {
		raw := "\x00bad\x00"
		m := ToModel(broker.Record{ID: uuid.New(), Action: raw, Err: &broker.UnknownActionError{Action: raw}, StartedAt: start})
		assert.Equal(t, UnknownAction, m.Action)
		require.NotNil(t, m.Error)
		assert.NotContains(t, *m.Error, "\x00")
		assert.True(t, utf8.ValidString(*m.Error))
	})
	t.Run("超长action", func(t *testing.T) {
		raw := strings.Repeat("é", 2048) // 4KB
		m := ToModel(broker.Record{ID: uuid.New(), Action: raw, Err: &broker.UnknownActionError{Action: raw}, StartedAt: start})
		assert.Equal(t, UnknownAction, m.Action)
		require.NotNil(t, m.Error)
		assert.LessOrEqual(t, len(*m.Error), maxErrorLen)
		assert.True(t, utf8.ValidString(*m.Error))
	})
	t.Run("错误文本含非法字节", func(t *testing.T) {
		m := ToModel(broker.Record{ID: uuid.New(), Action: "volume_up", Err: errors.New("bad\x00\xff"), StartedAt: start})
		assert.Equal(t, "volume_up", m.Action)
		assert.Equal(t, "bad", *m.Error)
	})
}

func TestJournal_FlushOnShutdown(t *testing.T) {
	store := &memStore{}
	j := New(store, Options{BatchSize: 100, FlushInterval: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	j.Start(ctx)

	for i := 0; i < 5; i++ {
		j.Record(context.Background(), broker.Record{ID: uuid.New(), Action: "volume_up", StartedAt: time.Now()})
	}
	cancel()
	j.Wait()
	assert.Len(t, store.snapshot(), 5)
}

func TestJournal_BatchFlush(t *testing.T) {
	store := &memStore{}
	j := New(store, Options{BatchSize: 2, FlushInterval: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		j.Wait()
	}()
	j.Start(ctx)

	j.Record(ctx, broker.Record{ID: uuid.New(), Action: "turn_on"})
	j.Record(ctx, broker.Record{ID: uuid.New(), Action: "turn_off"})
	assert.Eventually(t, func() bool { return len(store.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestJournal_DropWhenFull(t *testing.T) {
	j := New(&memStore{}, Options{QueueSize: 1}, nil)
	// 未启动写库协程，第二条必被丢弃
	j.Record(context.Background(), broker.Record{Action: "a"})
	j.Record(context.Background(), broker.Record{Action: "b"})
	assert.Equal(t, uint64(1), j.Dropped())
}

func TestJournal_WithBroker(t *testing.T) {
	store := &memStore{}
	j := New(store, Options{FlushInterval: 10 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	j.Start(ctx)

	b := broker.New(device.New(devicetest.NewAmp(amp.Status{MainVolume: 3})), broker.WithRecorder(j))
	_, err := b.Apply(context.Background(), "volume_down")
	require.NoError(t, err)
	_, err = b.Apply(context.Background(), "mute")
	require.Error(t, err)

	cancel()
	j.Wait()
	recs := store.snapshot()
	require.Len(t, recs, 2)
	assert.Equal(t, "volume_down", recs[0].Action)
	assert.True(t, recs[0].Success)
	assert.Equal(t, "mute", recs[1].Action)
	assert.False(t, recs[1].Success)
}
