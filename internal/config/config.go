// Package config reads the todo settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/s1natex/todo-GO/internal/kv"
	"github.com/s1natex/todo-GO/internal/middleware"
	"github.com/s1natex/todo-GO/internal/telemetry"
)

const AppName = "todo"

type Config struct {
	LogLevel slog.Level
	Addr     string

	Store kv.Config

	Auth middleware.AuthConfig

	RateRPS   float64
	RateBurst int

	Tracing telemetry.Exporter
}

// LoadDotEnv applies KEY=VALUE pairs from path without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the process environment.
func Load() (Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Unset values take their defaults;
// values that are set but unparsable are errors.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		LogLevel: ParseLevel(getenv("LOG_LEVEL")),
		Addr:     valueOr(getenv("TODO_ADDR"), ":8080"),
		Store: kv.Config{
			Backend:       kv.Backend(strings.ToLower(valueOr(getenv("TODO_STORE"), string(kv.BackendFile)))),
			Path:          getenv("TODO_STORE_PATH"),
			RedisAddr:     valueOr(getenv("TODO_REDIS_ADDR"), "localhost:6379"),
			RedisPassword: getenv("TODO_REDIS_PASSWORD"),
			RedisPrefix:   valueOr(getenv("TODO_REDIS_PREFIX"), AppName),
		},
		Auth: middleware.AuthConfig{
			APIKey:      getenv("TODO_API_KEY"),
			BearerToken: getenv("TODO_BEARER_TOKEN"),
			SkipPaths:   []string{"/health", "/metrics"},
		},
		RateBurst: 10,
	}

	var err error
	if cfg.Auth.Mode, err = middleware.ParseAuthMode(getenv("TODO_AUTH_MODE")); err != nil {
		return Config{}, err
	}
	if cfg.Tracing, err = telemetry.ParseExporter(getenv("TODO_TRACING")); err != nil {
		return Config{}, err
	}
	if v := getenv("TODO_REDIS_DB"); v != "" {
		if cfg.Store.RedisDB, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("TODO_REDIS_DB: %w", err)
		}
	}
	if v := getenv("TODO_RATE_RPS"); v != "" {
		if cfg.RateRPS, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("TODO_RATE_RPS: %w", err)
		}
	}
	if v := getenv("TODO_RATE_BURST"); v != "" {
		if cfg.RateBurst, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("TODO_RATE_BURST: %w", err)
		}
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath(cfg.Store.Backend, getenv)
	}
	return cfg, nil
}

func ParseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultStorePath returns $XDG_DATA_HOME/todo/<file>, falling back to
// $HOME/.local/share and finally the working directory.
func DefaultStorePath(b kv.Backend, getenv func(string) string) string {
	name := "todo.json"
	if b == kv.BackendSQLite {
		name = "todo.db"
	}
	if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, name)
	}
	home := getenv("HOME")
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return name
		}
	}
	return filepath.Join(home, ".local", "share", AppName, name)
}

func valueOr(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
