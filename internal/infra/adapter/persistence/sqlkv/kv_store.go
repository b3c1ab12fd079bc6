// Package sqlkv stores key-value pairs in the kv_store table of a SQLite or
// PostgreSQL database created by db.MigrateUp.
package sqlkv

import (
	"context"
	"database/sql"
	"fmt"

	"recipe-box/internal/infra/db"
	"recipe-box/internal/repository"
	"recipe-box/internal/resilience/circuitbreaker"
)

type queries struct {
	get string
	put string
}

var dialectQueries = map[db.Dialect]queries{
	db.DialectSQLite: {
		get: `
SELECT value
FROM kv_store
WHERE key = ?
LIMIT 1`,
		put: `
INSERT INTO kv_store (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at`,
	},
	db.DialectPostgres: {
		get: `
SELECT value
FROM kv_store
WHERE key = $1
LIMIT 1`,
		put: `
INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at`,
	},
}

// KVStore is a SQL-backed repository.KeyValueStore guarded by a circuit
// breaker named after its dialect.
type KVStore struct {
	db *circuitbreaker.SQL
	q  queries
}

// NewKVStore wraps sqlDB for dialect.
func NewKVStore(sqlDB *sql.DB, dialect db.Dialect) (*KVStore, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("sqlkv: unsupported dialect %q", dialect)
	}
	return &KVStore{
		db: circuitbreaker.NewSQL(sqlDB, circuitbreaker.StoreConfig(string(dialect))),
		q:  q,
	}, nil
}

var _ repository.KeyValueStore = (*KVStore)(nil)

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rows, err := s.db.QueryContext(ctx, s.q.get, key)
	if err != nil {
		return nil, false, fmt.Errorf("Get: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, false, fmt.Errorf("Get: rows.Err: %w", err)
		}
		return nil, false, nil
	}
	var value []byte
	if err := rows.Scan(&value); err != nil {
		return nil, false, fmt.Errorf("Get: Scan: %w", err)
	}
	return value, true, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.q.put, key, value); err != nil {
		return fmt.Errorf("Put: ExecContext: %w", err)
	}
	return nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *KVStore) Close() error {
	return s.db.DB().Close()
}

// DB exposes the underlying handle for pool statistics.
func (s *KVStore) DB() *sql.DB {
	return s.db.DB()
}
