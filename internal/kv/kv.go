package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// Store is the durable key-value collaborator behind the task store.
// Save overwrites the whole value stored under key.
type Store interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
	Close() error
}

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

type Config struct {
	Backend Backend
	Path    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the configured backend. The sqlite backend is migrated before
// it is returned.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(cfg.Path)
	case BackendSQLite:
		dsn, err := SQLiteFileDSN(cfg.Path)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLiteStore(dsn)
		if err != nil {
			return nil, err
		}
		if err := s.ApplyMigrations(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
