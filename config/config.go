package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

type Config struct {
	Port            string        `env:"PORT,default=8080" validate:"required,numeric"`
	LogLevel        string        `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiURL       string        `env:"GEMINI_API_URL,default=https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent" validate:"url"`
	AnalysisTimeout time.Duration `env:"ANALYSIS_TIMEOUT,default=60s" validate:"gt=0"`
	BackupBackend   string        `env:"BACKUP_BACKEND,default=badger" validate:"oneof=badger redis"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH"`
	RedisAddr       string        `env:"REDIS_ADDR" validate:"required_if=BackupBackend redis"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=256" validate:"min=1"`
	MaxMessageSize  int           `env:"MAX_MESSAGE_SIZE,default=1048576" validate:"min=512"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS"`
}

// Load reads an optional .env file, then the environment, and validates the
// result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Origins splits ALLOWED_ORIGINS. An empty list accepts every origin.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
