package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  env: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "amp-server", cfg.App.Name)
	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, time.Second, cfg.Serial.ReadTimeout)
	assert.Equal(t, "0403", cfg.Serial.Match.VID)
	assert.Equal(t, 60*time.Second, cfg.Device.KeepAliveInterval)
	assert.Equal(t, 8, cfg.Device.SubscriberBuffer)
	assert.Equal(t, "amp:status", cfg.Redis.StatusKey)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_FileOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
serial:
  port: /dev/ttyUSB3
  readTimeout: 250ms
device:
  subscriberBuffer: 2
  initialInput: 3_5mm
api:
  auth:
    enabled: true
    apiKeys: ["k1", "k2"]
`))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB3", cfg.Serial.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, 2, cfg.Device.SubscriberBuffer)
	assert.Equal(t, "3_5mm", cfg.Device.InitialInput)
	assert.True(t, cfg.API.Auth.Enabled)
	assert.Equal(t, []string{"k1", "k2"}, cfg.API.Auth.APIKeys)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("IOT_SERIAL_PORT", "COM7")
	cfg, err := Load(writeConfig(t, "serial:\n  port: /dev/ttyUSB0\n"))
	require.NoError(t, err)
	assert.Equal(t, "COM7", cfg.Serial.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"读超时为零", "serial:\n  readTimeout: 0s\n"},
		{"订阅缓冲为零", "device:\n  subscriberBuffer: 0\n"},
		{"启用数据库但无DSN", "database:\n  enabled: true\n  dsn: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
