package circuitbreaker

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// StoreConfig returns the breaker settings for a SQL-backed recipe store.
// Five straight failures open it; a cancelled request is not a database fault.
func StoreConfig(backend string) Config {
	return Config{
		Name:             "store-" + backend,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          15 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
}

// SQL guards the query and exec calls of a *sql.DB.
type SQL struct {
	cb *CircuitBreaker
	db *sql.DB
}

// NewSQL wraps db with a breaker built from cfg.
func NewSQL(db *sql.DB, cfg Config) *SQL {
	return &SQL{cb: New(cfg), db: db}
}

// QueryContext fails fast with gobreaker.ErrOpenState while the breaker is open.
func (s *SQL) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.db.QueryContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return res.(*sql.Rows), nil
}

// ExecContext fails fast with gobreaker.ErrOpenState while the breaker is open.
func (s *SQL) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.db.ExecContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return res.(sql.Result), nil
}

// PingContext bypasses the breaker so health checks see the real database.
func (s *SQL) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Breaker exposes the breaker for health reporting.
func (s *SQL) Breaker() *CircuitBreaker {
	return s.cb
}

// DB returns the unguarded handle, for pool statistics and Close.
func (s *SQL) DB() *sql.DB {
	return s.db
}
