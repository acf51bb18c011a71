package main

import (
	"context"
	"fmt"
	"strings"

	"personasim/internal/store"
	"personasim/internal/store/memory"
	"personasim/internal/store/postgres"
	"personasim/internal/store/redis"
	"personasim/internal/store/sqlite"
)

// openStore picks a backend from the DSN scheme and prepares its schema.
func openStore(ctx context.Context, dsn string) (store.Store, error) {
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, fmt.Errorf("invalid database DSN %q: missing scheme", dsn)
	}

	var (
		db  store.Store
		err error
	)
	switch scheme {
	case "sqlite":
		db, err = sqlite.New(ctx, dsn)
	case "postgres", "postgresql":
		db, err = postgres.New(ctx, dsn)
	case "redis", "rediss":
		db, err = redis.New(ctx, dsn)
	case "memory":
		db = memory.New()
	default:
		return nil, fmt.Errorf("unsupported database scheme: %s", scheme)
	}
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("preparing schema: %w", err)
	}
	return db, nil
}
