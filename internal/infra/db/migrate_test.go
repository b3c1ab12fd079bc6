package db

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		column  string
	}{
		{name: "postgres", dialect: DialectPostgres, column: "BYTEA"},
		{name: "sqlite", dialect: DialectSQLite, column: "BLOB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_store .*" + tt.column).
				WillReturnResult(sqlmock.NewResult(0, 0))

			assert.NoError(t, MigrateUp(db, tt.dialect))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrateUp_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_store").
		WillReturnError(sql.ErrConnDone)

	err = MigrateUp(db, DialectPostgres)
	assert.Equal(t, sql.ErrConnDone, err)
}

func TestMigrateUp_UnknownDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Error(t, MigrateUp(db, Dialect("oracle")))
}

func TestMigrateDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DROP TABLE IF EXISTS kv_store").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, MigrateDown(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultRecipes(t *testing.T) {
	recipes, err := DefaultRecipes()
	require.NoError(t, err)
	require.Len(t, recipes, 5)

	wantIDs := []string{"local-biryani", "local-paneer", "local-mandi", "local-samosa", "local-idli"}
	for i, r := range recipes {
		assert.Equal(t, wantIDs[i], r.ID)
		assert.True(t, r.IsLocal)
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.Ingredients)
	}
	assert.Equal(t, "Chicken Biryani", recipes[0].Name)
}
