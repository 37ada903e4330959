// Package postgres provides PostgreSQL-based storage implementations for
// docsearch services.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB represents a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
	dsn  string
}

// NewDB creates a new DB instance for the given connection string.
func NewDB(dsn string) *DB {
	return &DB{dsn: dsn}
}

// Open connects to the database and creates the schema if needed.
func (db *DB) Open(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, db.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	db.pool = pool

	if err := db.createSchema(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the pool.
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	var one int
	return db.pool.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) createSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS pages (
			id BIGSERIAL PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			last_crawled TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		ALTER TABLE pages ADD COLUMN IF NOT EXISTS content_hash TEXT NOT NULL DEFAULT '';

		CREATE TABLE IF NOT EXISTS search_index (
			id BIGSERIAL PRIMARY KEY,
			page_id BIGINT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
			keyword TEXT NOT NULL,
			relevance DOUBLE PRECISION NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_search_index_keyword ON search_index(keyword);
		CREATE INDEX IF NOT EXISTS idx_search_index_page_id ON search_index(page_id);
	`
	_, err := db.pool.Exec(ctx, schema)
	return err
}
