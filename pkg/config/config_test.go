package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.ServerHost)
	assert.Equal(t, 8888, cfg.ServerPort)
	assert.Equal(t, TransportTCP, cfg.Transport)
	assert.Equal(t, "Player", cfg.PlayerName)
	assert.Equal(t, "Capture the Flag", cfg.GameName)
	assert.Equal(t, 25.0, cfg.CaptureRadiusMeters)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TRANSPORT", TransportWebSocket)
	t.Setenv("SERVER_PORT", "9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, TransportWebSocket, cfg.Transport)
	assert.Equal(t, 9999, cfg.ServerPort)
}

func TestLoadConfigRejectsUnknownTransport(t *testing.T) {
	t.Setenv("TRANSPORT", "carrier-pigeon")

	_, err := LoadConfig()
	require.Error(t, err)
}
