package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/caravalia/reservas/config"
)

// Open builds the backend selected by cfg.Storage. The returned close func is never nil.
func Open(cfg *config.Config) (Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return NewMemoryBackend(), noop, nil
	case config.StorageFile:
		b, err := NewFileBackend(cfg.Storage.FilePath)
		if err != nil {
			return nil, noop, err
		}
		return b, noop, nil
	case config.StorageSQLite:
		b, err := NewSQLiteBackend(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil
	case config.StorageRedis:
		b := NewRedisBackend(cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.Ping(ctx); err != nil {
			b.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return b, b.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
