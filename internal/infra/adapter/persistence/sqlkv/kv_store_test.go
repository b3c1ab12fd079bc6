package sqlkv_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-box/internal/infra/adapter/persistence/sqlkv"
	"recipe-box/internal/infra/db"
)

var dialects = []struct {
	dialect     db.Dialect
	placeholder string
}{
	{db.DialectSQLite, "WHERE key = ?"},
	{db.DialectPostgres, "WHERE key = $1"},
}

func newMockStore(t *testing.T, dialect db.Dialect) (*sqlkv.KVStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := sqlkv.NewKVStore(sqlDB, dialect)
	require.NoError(t, err)
	return store, mock
}

// ─────────────────────────────────────────────
// 1. Get
// ─────────────────────────────────────────────
func TestKVStore_Get(t *testing.T) {
	for _, d := range dialects {
		t.Run(string(d.dialect), func(t *testing.T) {
			store, mock := newMockStore(t, d.dialect)
			mock.ExpectQuery(regexp.QuoteMeta(d.placeholder)).
				WithArgs("my_saved_recipes_v1").
				WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[{"id":"local-1"}]`)))

			got, found, err := store.Get(context.Background(), "my_saved_recipes_v1")
			require.NoError(t, err)
			assert.True(t, found)
			assert.JSONEq(t, `[{"id":"local-1"}]`, string(got))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestKVStore_Get_Missing(t *testing.T) {
	store, mock := newMockStore(t, db.DialectSQLite)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value")).
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	got, found, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestKVStore_Get_Error(t *testing.T) {
	store, mock := newMockStore(t, db.DialectPostgres)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value")).
		WillReturnError(errors.New("connection reset"))

	_, _, err := store.Get(context.Background(), "k")
	assert.ErrorContains(t, err, "Get: QueryContext")
}

// ─────────────────────────────────────────────
// 2. Put
// ─────────────────────────────────────────────
func TestKVStore_Put_Upsert(t *testing.T) {
	stamps := map[db.Dialect]string{
		db.DialectSQLite:   "VALUES (?, ?, CURRENT_TIMESTAMP)",
		db.DialectPostgres: "VALUES ($1, $2, now())",
	}
	for _, d := range dialects {
		t.Run(string(d.dialect), func(t *testing.T) {
			store, mock := newMockStore(t, d.dialect)
			mock.ExpectExec(regexp.QuoteMeta(stamps[d.dialect] + "\nON CONFLICT(key) DO UPDATE")).
				WithArgs("k", []byte("v")).
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, store.Put(context.Background(), "k", []byte("v")))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestKVStore_Put_Error(t *testing.T) {
	store, mock := newMockStore(t, db.DialectSQLite)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv_store")).
		WillReturnError(errors.New("database is locked"))

	err := store.Put(context.Background(), "k", []byte(`[]`))
	assert.ErrorContains(t, err, "Put: ExecContext")
}

// ─────────────────────────────────────────────
// 3. Construction and lifecycle
// ─────────────────────────────────────────────
func TestNewKVStore_UnsupportedDialect(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	_, err = sqlkv.NewKVStore(sqlDB, db.Dialect("mysql"))
	assert.ErrorContains(t, err, "unsupported dialect")
}

func TestKVStore_PingAndClose(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectClose()

	store, err := sqlkv.NewKVStore(sqlDB, db.DialectPostgres)
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────────────────────────
// 4. Real SQLite file round trip
// ─────────────────────────────────────────────
func TestKVStore_SQLiteFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := db.Open(ctx, db.DriverSQLite, db.SQLiteDSN(filepath.Join(t.TempDir(), "kv.db")))
	require.NoError(t, err)
	require.NoError(t, db.MigrateUp(sqlDB, db.DialectSQLite))

	store, err := sqlkv.NewKVStore(sqlDB, db.DialectSQLite)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Put(ctx, "k", []byte("one")))
	require.NoError(t, store.Put(ctx, "k", []byte("two")))

	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", string(got))
	assert.NoError(t, store.Ping(ctx))
}
