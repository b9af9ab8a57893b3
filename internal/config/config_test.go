package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("ROOMCALL_PORT", "9191")
	t.Setenv("ROOMCALL_CHAT_RATE", "2.5")
	t.Setenv("ROOMCALL_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, 2.5, cfg.ChatRate)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 60*time.Second, cfg.PongWait)
	assert.Equal(t, int64(25), cfg.MaxUploadMB)
	assert.Equal(t, "s3cret", cfg.Secret)
}

func TestReleaseRefusesDefaultSecret(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")

	cfg := Config{Mode: "release", Port: 80, PingPeriod: time.Second, PongWait: time.Minute, SendBuffer: 1, ChatRate: 1, ChatBurst: 1}
	for _, secret := range []string{"", DefaultSecret} {
		cfg.Secret = secret
		assert.Error(t, cfg.Validate(), "secret %q", secret)
	}
	cfg.Secret = "s3cret"
	assert.NoError(t, cfg.Validate())

	cfg.Mode, cfg.Secret = "debug", DefaultSecret
	assert.NoError(t, cfg.Validate(), "development keeps the placeholder")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Config{Port: 0, PingPeriod: time.Minute, PongWait: time.Second}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"port", "ping_period", "send_buffer", "chat_rate"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("ROOMCALL_SERVER_URL", "ws://example.test/api/ws/signal")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "ws://example.test/api/ws/signal", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.RingTimeout)
	assert.NotEmpty(t, cfg.ICEServers)

	t.Setenv("ROOMCALL_RING_TIMEOUT", "0s")
	_, err = LoadClient()
	assert.Error(t, err)
}
