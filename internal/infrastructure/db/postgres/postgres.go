// Package postgres implements the user and post repositories on PostgreSQL
// through database/sql and the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sirpyerre/postbox/internal/core/domain"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultAcquireTimeout = 30 * time.Second

	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Config captures the settings required to open the connection pool.
type Config struct {
	DSN            string
	MaxOpenConns   int
	MaxIdleConns   int
	AcquireTimeout time.Duration
}

// DB wraps the pool and bounds how long a request waits for a connection.
type DB struct {
	sql            *sql.DB
	acquireTimeout time.Duration
}

// Connect opens the pool, verifies connectivity with a ping and returns it.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	pool, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	pool.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return New(pool, cfg.AcquireTimeout), nil
}

// New wraps an existing pool. A non-positive acquireTimeout selects 30s.
func New(pool *sql.DB, acquireTimeout time.Duration) *DB {
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	return &DB{sql: pool, acquireTimeout: acquireTimeout}
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Close releases every pooled connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// withConn acquires one connection for the duration of fn and releases it on
// every path. Waiting longer than the acquire timeout yields
// domain.ErrUnavailable.
func (d *DB) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	acquireCtx, cancel := context.WithTimeout(ctx, d.acquireTimeout)
	conn, err := d.sql.Conn(acquireCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: acquire connection: %v", domain.ErrUnavailable, err)
		}
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// withTx runs fn inside a single local transaction on one pooled connection.
// The transaction is committed only when fn returns nil.
func (d *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return d.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
