// Package persistence selects and opens the key-value backend for the recipe store.
package persistence

import (
	"context"
	"fmt"

	"recipe-box/internal/config"
	"recipe-box/internal/infra/adapter/persistence/bolt"
	"recipe-box/internal/infra/adapter/persistence/firestore"
	"recipe-box/internal/infra/adapter/persistence/memory"
	"recipe-box/internal/infra/adapter/persistence/sqlkv"
	"recipe-box/internal/infra/db"
	"recipe-box/internal/repository"
	"recipe-box/internal/resilience/retry"
)

// Open returns the backend named by cfg.Backend. SQL backends are migrated
// on open. Configuration mistakes come back as retry.Permanent errors.
func Open(ctx context.Context, cfg config.StoreConfig) (repository.KeyValueStore, error) {
	switch cfg.Backend {
	case config.BackendBolt:
		return bolt.Open(cfg.Path)

	case config.BackendSQLite:
		return openSQL(ctx, db.DriverSQLite, db.SQLiteDSN(cfg.Path), db.DialectSQLite)

	case config.BackendPostgres:
		return openSQL(ctx, db.DriverPostgres, cfg.DatabaseURL, db.DialectPostgres)

	case config.BackendFirestore:
		return firestore.Open(ctx, cfg.FirestoreProject, cfg.FirestoreCollection)

	case config.BackendMemory:
		return memory.NewKVStore(), nil
	}
	return nil, retry.Permanent(fmt.Errorf("unknown store backend %q", cfg.Backend))
}

func openSQL(ctx context.Context, driver, dsn string, dialect db.Dialect) (repository.KeyValueStore, error) {
	sqlDB, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(sqlDB, dialect); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate %s: %w", dialect, err)
	}
	store, err := sqlkv.NewKVStore(sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, retry.Permanent(err)
	}
	return store, nil
}
