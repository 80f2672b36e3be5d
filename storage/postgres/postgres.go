// Package postgres stores ledger snapshots as blobs in a Postgres table, as
// a remote storage.Location.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/stockbook/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS ledger_blobs (
	key        TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the blob table if needed.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	_, err := p.Exec(ctx, schema)
	return err
}

// Location is a storage.Location holding one snapshot under a key.
type Location struct {
	pool *Pool
	key  string
}

// NewLocation returns the location of key in pool.
func NewLocation(pool *Pool, key string) *Location {
	return &Location{pool: pool, key: key}
}

func (l *Location) Name() string { return "postgres:" + l.key }

// Read returns the stored snapshot, or storage.ErrNotFound.
func (l *Location) Read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM ledger_blobs WHERE key = $1`, l.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", l.Name(), storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write replaces the stored snapshot in a single statement.
func (l *Location) Write(ctx context.Context, data []byte) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO ledger_blobs (key, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data,
		    updated_at = NOW()
	`, l.key, data)
	return err
}
