package kv

import (
	"context"
	"fmt"

	"github.com/varsilias/researchpaper/internal/config"
)

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverFile:
		return NewFileStore(cfg.Path)
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.Path)
	case config.DriverRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
