package storage

import (
	"context"
	"fmt"

	"github.com/platinummonkey/crm/pkg/observability"
)

// Open builds the configured backend and wraps it with the cache and instrumentation
// layers. metrics may be nil.
func Open(ctx context.Context, config Config, metrics *observability.Metrics) (Store, error) {
	var (
		store Store
		err   error
	)

	switch config.Type {
	case "memory":
		store = NewMemoryStore()
	case "filesystem":
		store, err = NewFileSystemStore(config.FilesystemRoot)
	case "redis":
		store, err = NewRedisStore(config)
	case "postgres":
		store, err = OpenPostgres(ctx, config)
	case "sqlite":
		store, err = OpenSQLite(ctx, config)
	default:
		return nil, fmt.Errorf("invalid storage type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", config.Type, err)
	}

	if config.CacheEnabled {
		store = NewCachedStore(store, config.CacheEntries, config.CacheTTL, metrics)
	}
	if metrics != nil {
		store = NewInstrumentedStore(store, metrics)
	}
	return store, nil
}
