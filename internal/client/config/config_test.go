package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, DefaultProcessURL, cfg.ProcessURL)
	assert.Equal(t, DefaultBrokerURL, cfg.MQTT.BrokerURL)
	assert.Equal(t, DefaultTopic, cfg.MQTT.Topic)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 16000, cfg.SampleRate)
	assert.Equal(t, DefaultPlayer, cfg.Player)
	assert.Empty(t, cfg.Token)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Token = "abc.def.ghi"
	cfg.TokenExpiry = 1700000000
	cfg.UserName = "alice"
	cfg.HTTPTimeout = 5 * time.Second
	cfg.MQTT.Topic = "robots/michi-7"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", loaded.Token)
	assert.Equal(t, int64(1700000000), loaded.TokenExpiry)
	assert.Equal(t, "alice", loaded.UserName)
	assert.Equal(t, 5*time.Second, loaded.HTTPTimeout)
	assert.Equal(t, "robots/michi-7", loaded.MQTT.Topic)
	assert.Equal(t, DefaultBrokerURL, loaded.MQTT.BrokerURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MICHI_BACKEND_URL", "https://michi.example.com/")
	t.Setenv("MICHI_MQTT_TOPIC", "from/env")
	t.Setenv("MICHI_PLAYER", "aplay -q")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://michi.example.com", cfg.BackendURL)
	assert.Equal(t, "from/env", cfg.MQTT.Topic)
	assert.Equal(t, "aplay -q", cfg.Player)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_url: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
