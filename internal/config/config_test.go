package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ServerPort:    "8080",
		DatabaseURL:   "postgres://localhost:5432/fieldservice",
		RedisAddr:     "localhost:6379",
		JWTSecret:     "0123456789abcdef0123456789abcdef",
		DrainInterval: 30 * time.Second,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing database url",
			mutate:  func(c *Config) { c.DatabaseURL = "" },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: "JWT_SECRET",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "too-short" },
			wantErr: "at least 16 characters",
		},
		{
			name:    "zero drain interval",
			mutate:  func(c *Config) { c.DrainInterval = 0 },
			wantErr: "DRAIN_INTERVAL",
		},
		{
			name:    "negative drain interval",
			mutate:  func(c *Config) { c.DrainInterval = -time.Second },
			wantErr: "DRAIN_INTERVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	envFile := "DATABASE_URL=postgres://localhost:5432/fieldservice\n" +
		"JWT_SECRET=0123456789abcdef0123456789abcdef\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(envFile), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.DrainInterval)
	assert.Equal(t, "postgres://localhost:5432/fieldservice", cfg.DatabaseURL)
}
