package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
	assert.Equal(t, filepath.Join(dir, "words.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "token"), cfg.TokenPath)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, 5*time.Minute, cfg.OfflineInterval)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 200, cfg.BatchSize)
	assert.False(t, cfg.IsProd())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server_address: sync.example.com
enable_tls: true
sync_interval_seconds: 60
sync_batch_size: 50
`), 0o600))

	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("SYNC_BATCH_SIZE", "20")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "https://sync.example.com", cfg.BaseURL())
	assert.Equal(t, time.Minute, cfg.SyncInterval)
	assert.Equal(t, 20, cfg.BatchSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "empty server", env: map[string]string{"SERVER_ADDRESS": " "}},
		{name: "zero interval", env: map[string]string{"SYNC_INTERVAL_SECONDS": "0"}},
		{name: "batch too large", env: map[string]string{"SYNC_BATCH_SIZE": "501"}},
		{name: "zero timeout", env: map[string]string{"REQUEST_TIMEOUT_SECONDS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_DIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
