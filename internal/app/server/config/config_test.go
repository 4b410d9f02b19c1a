package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://localhost:5432/wordsync")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.RunAddress)
	assert.Equal(t, "migrations", cfg.DB.Migrations)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 200, cfg.Sync.PageLimit)
	assert.False(t, cfg.IsProd())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://db/wordsync")
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("RUN_ADDRESS", ":9090")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("SYNC_PAGE_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, ":9090", cfg.Server.RunAddress)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 50, cfg.Sync.PageLimit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing database uri",
			env:  map[string]string{"DATABASE_URI": ""},
		},
		{
			name: "page limit too large",
			env:  map[string]string{"DATABASE_URI": "postgres://db", "SYNC_PAGE_LIMIT": "501"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
