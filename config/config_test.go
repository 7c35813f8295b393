package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagramador-collab-server/config"
)

func TestLoad(t *testing.T) {
	t.Run("Success - defaults", func(t *testing.T) {
		cfg, err := config.Load()

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, config.BackendBadger, cfg.BackupBackend)
		assert.Equal(t, 60*time.Second, cfg.AnalysisTimeout)
		assert.Equal(t, 256, cfg.SendBufferSize)
		assert.Empty(t, cfg.Origins())
	})

	t.Run("Success - overrides applied", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("BACKUP_BACKEND", "redis")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("ANALYSIS_TIMEOUT", "5s")
		t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

		cfg, err := config.Load()

		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
		assert.Equal(t, config.BackendRedis, cfg.BackupBackend)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
		assert.Equal(t, 5*time.Second, cfg.AnalysisTimeout)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
	})

	t.Run("Failure - redis without address", func(t *testing.T) {
		t.Setenv("BACKUP_BACKEND", "redis")
		t.Setenv("REDIS_ADDR", "")

		cfg, err := config.Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "RedisAddr")
	})

	t.Run("Failure - unknown backend", func(t *testing.T) {
		t.Setenv("BACKUP_BACKEND", "postgres")

		_, err := config.Load()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "BackupBackend")
	})

	t.Run("Failure - bad log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")

		_, err := config.Load()

		assert.Error(t, err)
	})
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for level, want := range tests {
		cfg := &config.Config{LogLevel: level}
		assert.Equal(t, want, cfg.SlogLevel(), level)
	}
}
