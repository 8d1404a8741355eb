package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Config keeps runtime settings for the service.
type Config struct {
	Env              string        `env:"APP_ENV" env-default:"development" env-description:"development, test or production"`
	HTTPAddr         string        `env:"HTTP_ADDR" env-default:":3000"`
	DatabaseURL      string        `env:"DATABASE_URL" env-default:"tasklog.db" env-description:"SQLite path or postgres:// URL"`
	JWTSecret        string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL         time.Duration `env:"TOKEN_TTL" env-default:"1h"`
	LogLevel         string        `env:"LOG_LEVEL" env-default:"info"`
	TelegramToken    string        `env:"TELEGRAM_TOKEN" env-description:"enables due-date reminders when set"`
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" env-default:"15m"`
	ReminderDailyAt  string        `env:"REMINDER_DAILY_AT" env-description:"HH:MM; replaces the interval with one daily run"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	switch cfg.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return cfg, fmt.Errorf("APP_ENV must be one of development, test, production, got %q", cfg.Env)
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.TokenTTL <= 0 {
		return cfg, fmt.Errorf("TOKEN_TTL must be positive")
	}
	if cfg.ReminderInterval <= 0 {
		return cfg, fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return cfg, err
	}
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)

	return cfg, nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func (c Config) RemindersEnabled() bool {
	return c.TelegramToken != ""
}

// Usage describes the recognised environment variables.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
