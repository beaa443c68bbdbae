package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for the API server.
type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	Location         *time.Location
	TelegramToken    string
	ReminderInterval time.Duration
	DigestTime       string
	LogLevel         string
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", "5000")
	v.SetDefault("database_url", "task_manager.db")
	v.SetDefault("timezone", "Local")
	v.SetDefault("reminder_interval", time.Minute)
	v.SetDefault("digest_time", "08:00")
	v.SetDefault("log_level", "info")
	return v
}

// FromViper builds a Config from v and validates it.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:             strings.TrimSpace(v.GetString("port")),
		DatabaseURL:      strings.TrimSpace(v.GetString("database_url")),
		JWTSecret:        v.GetString("jwt_secret"),
		TelegramToken:    strings.TrimSpace(v.GetString("telegram_token")),
		ReminderInterval: v.GetDuration("reminder_interval"),
		DigestTime:       strings.TrimSpace(v.GetString("digest_time")),
		LogLevel:         strings.TrimSpace(v.GetString("log_level")),
	}

	loc, err := time.LoadLocation(strings.TrimSpace(v.GetString("timezone")))
	if err != nil {
		return cfg, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
