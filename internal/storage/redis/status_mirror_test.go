package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/amp-server/internal/config"
	"github.com/taoyao-code/amp-server/internal/protocol/amp"
)

// 需要本地 Redis（TEST_REDIS_ADDR，默认 localhost:6379），不可用时跳过
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := NewClient(cfgpkg.RedisConfig{
		Enabled:     true,
		Addr:        addr,
		DB:          15,
		PoolSize:    2,
		DialTimeout: 500 * time.Millisecond,
		ReadTimeout: time.Second,
	})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_Disabled(t *testing.T) {
	_, err := NewClient(cfgpkg.RedisConfig{Enabled: false})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestStatusMirror_WriteAndLatest(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "amp:test:" + uuid.NewString()
	channel := key + ":events"
	t.Cleanup(func() { c.Del(context.Background(), key) })

	mirror := NewStatusMirror(c.Client, key, channel, nil, nil)

	t.Run("空镜像", func(t *testing.T) {
		_, _, err := mirror.Latest(ctx)
		assert.ErrorIs(t, err, ErrNoMirror)
	})

	t.Run("写入后读取并收到发布", func(t *testing.T) {
		ps := c.Subscribe(ctx, channel)
		defer ps.Close()
		_, err := ps.Receive(ctx)
		require.NoError(t, err)

		st := amp.Status{MainVolume: 0x11, Input: 3, Input2Effect: amp.Effect4_1}
		require.NoError(t, mirror.Write(ctx, st))

		got, at, err := mirror.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, st, got)
		assert.WithinDuration(t, time.Now(), at, 5*time.Second)

		select {
		case msg := <-ps.Channel():
			assert.Contains(t, msg.Payload, `"main_volume":17`)
		case <-time.After(2 * time.Second):
			t.Fatal("no publish received")
		}
	})
}
