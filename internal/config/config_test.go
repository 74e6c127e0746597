package config

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, env map[string]string) *Config {
	t.Helper()
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(env))
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := load(t, nil)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "tagbot.db"), cfg.DatabasePath)
	assert.Equal(t, filepath.Join("data", "bot_data.json"), cfg.BackupPath)
	assert.Equal(t, filepath.Join("data", "album_covers"), cfg.CoverDir)
	assert.Equal(t, "memory", cfg.SessionDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 60*time.Second, cfg.PollTimeout)
	assert.Equal(t, 4, cfg.MaxConcurrentItems)
	assert.Equal(t, uint(3), cfg.DownloadMaxRetries)
	assert.Equal(t, 1000, cfg.CoverMaxSize)
	assert.Equal(t, "auto", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled())
}

func TestValidateBot(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		err := load(t, nil).ValidateBot()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTokenRequired)
		assert.ErrorIs(t, err, ErrAdminRequired)
	})

	t.Run("offline ignores credentials", func(t *testing.T) {
		assert.NoError(t, load(t, nil).ValidateOffline())
	})

	t.Run("complete", func(t *testing.T) {
		cfg := load(t, map[string]string{
			"TELEGRAM_BOT_TOKEN": "123:abc",
			"ADMIN_ID":           "42",
		})
		require.NoError(t, cfg.ValidateBot())
		assert.Equal(t, int64(42), cfg.AdminID)
	})
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		mutate func(*Config)
	}{
		{name: "unknown session driver", env: map[string]string{"SESSION_DRIVER": "etcd"}},
		{name: "zero workers", env: map[string]string{"MAX_CONCURRENT_ITEMS": "0"}},
		{name: "tiny cover", env: map[string]string{"COVER_MAX_SIZE": "10"}},
		{name: "bad log format", env: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "short session ttl", env: map[string]string{"SESSION_TTL": "5s"}},
		{
			name:   "redis without address",
			env:    map[string]string{"SESSION_DRIVER": "redis"},
			mutate: func(c *Config) { c.RedisAddr = "" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := load(t, tt.env)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.ValidateOffline()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestSetDataDir(t *testing.T) {
	cfg := load(t, map[string]string{"BACKUP_PATH": "/var/backup.json"})
	cfg.SetDataDir("/srv/tagbot")

	assert.Equal(t, "/srv/tagbot/tagbot.db", cfg.DatabasePath)
	assert.Equal(t, "/var/backup.json", cfg.BackupPath)
	assert.Equal(t, "/srv/tagbot/album_covers", cfg.CoverDir)
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := load(t, map[string]string{
		"TELEGRAM_BOT_TOKEN":    "secret-token",
		"AWS_SECRET_ACCESS_KEY": "secret-key",
		"REDIS_PASSWORD":        "secret-pass",
	})
	s := cfg.String()
	assert.NotContains(t, s, "secret")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogFormat: "json", LogLevel: "warn"}
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)

	buf.Reset()
	(&Config{LogFormat: "text"}).NewLogger(&buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")

	// Non-file writers fall back to JSON in auto mode.
	buf.Reset()
	(&Config{LogFormat: "auto"}).NewLogger(&buf).Info("auto")
	assert.Contains(t, buf.String(), `"msg":"auto"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in).String(), in)
	}
}
