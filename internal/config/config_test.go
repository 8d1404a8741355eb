package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected env development, got %q", cfg.Env)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("Expected :3000, got %q", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "tasklog.db" {
		t.Errorf("Expected tasklog.db, got %q", cfg.DatabaseURL)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("Expected 1h token TTL, got %v", cfg.TokenTTL)
	}
	if cfg.ReminderInterval != 15*time.Minute {
		t.Errorf("Expected 15m reminder interval, got %v", cfg.ReminderInterval)
	}
	if cfg.RemindersEnabled() {
		t.Error("Expected reminders disabled without TELEGRAM_TOKEN")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TELEGRAM_TOKEN", " 123:abc ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Expected production, got %q", cfg.Env)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("Expected 30m, got %v", cfg.TokenTTL)
	}
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v (%v)", level, err)
	}
	if !cfg.RemindersEnabled() || cfg.TelegramToken != "123:abc" {
		t.Errorf("Expected trimmed telegram token, got %q", cfg.TelegramToken)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"bad env", map[string]string{"JWT_SECRET": "x", "APP_ENV": "staging"}, "APP_ENV"},
		{"bad level", map[string]string{"JWT_SECRET": "x", "LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"zero ttl", map[string]string{"JWT_SECRET": "x", "TOKEN_TTL": "0s"}, "TOKEN_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
