package blob

import (
	"context"
	"fmt"

	"waras/internal/config"
)

// Open returns the Store selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverFile, "":
		return NewFile(cfg.StorageDir)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.DriverRedis:
		return OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
