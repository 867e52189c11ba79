package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	ProductionAPI = "https://api.sgroup.qq.com/"
	SandboxAPI    = "https://sandbox.api.sgroup.qq.com/"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	AppEnv       string `env:"APP_ENV" default:"development"`
	AppID        string `env:"BOT_APP_ID"`
	Token        string `env:"BOT_TOKEN"`
	Sandbox      bool   `env:"BOT_SANDBOX" default:"false"`
	APIBaseURL   string `env:"API_BASE_URL"`
	SessionStore string `env:"SESSION_STORE" default:"memory"`
	RedisURL     string `env:"REDIS_URL"`
	DatabaseURL  string `env:"DATABASE_URL"`
	OpsPort      string `env:"OPS_PORT" default:"9090"`
	LogLevel     string `env:"LOG_LEVEL" default:"info"`
	LogFormat    string `env:"LOG_FORMAT" default:"text"`

	RateLimit float64 `env:"RATE_LIMIT" default:"20"`
	RateBurst int     `env:"RATE_BURST" default:"20"`

	ReconnectDelay  time.Duration `env:"RECONNECT_DELAY" default:"5s"`
	SessionTTL      time.Duration `env:"SESSION_TTL" default:"10m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// BaseURL returns the REST endpoint, honouring an explicit override before the sandbox flag.
func (c *Config) BaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	if c.Sandbox {
		return SandboxAPI
	}
	return ProductionAPI
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := []struct{ name, value string }{
		{"BOT_APP_ID", cfg.AppID},
		{"BOT_TOKEN", cfg.Token},
	}
	switch cfg.SessionStore {
	case StoreMemory:
	case StoreRedis:
		required = append(required, struct{ name, value string }{"REDIS_URL", cfg.RedisURL})
	case StorePostgres:
		required = append(required, struct{ name, value string }{"DATABASE_URL", cfg.DatabaseURL})
	default:
		return fmt.Errorf("SESSION_STORE must be one of memory, redis, postgres, got %q", cfg.SessionStore)
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if cfg.RateLimit <= 0 {
		return errors.New("RATE_LIMIT must be positive")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be at least 1")
	}
	if cfg.ReconnectDelay < 0 {
		return errors.New("RECONNECT_DELAY must not be negative")
	}

	if cfg.APIBaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
			return fmt.Errorf("API_BASE_URL must be a valid URL: %w", err)
		}
	}

	if cfg.AppEnv == "production" && cfg.SessionStore == StorePostgres {
		if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
