// Package store implements the mapping store: a durable, upsert-only
// bidirectional map between Left keys, Right keys, and sync state, indexed
// by either side's key and by status, plus per-comment sync records.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/corvid-labs/jira-bridge/internal/db"
)

//go:embed all:../../migrations
var migrationsFS embed.FS

// Store is a Postgres-backed implementation of the mapping store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres and runs pending migrations.
func Open(ctx context.Context, dsn string, pc db.PoolConfig) (*Store, error) {
	pool, err := db.Open(ctx, dsn, pc)
	if err != nil {
		return nil, wrap("open", err)
	}

	if err := migrate(dsn); err != nil {
		pool.Close()
		return nil, wrap("migrate", err)
	}

	log.Info().Msg("mapping store ready")
	return &Store{pool: pool}, nil
}

// migrate applies any pending goose migrations. goose requires a
// database/sql handle; pgxpool is used for all subsequent query traffic.
func migrate(dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration handle: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, "migrations")
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks current connectivity to Postgres, for use as a readiness
// probe distinct from whether the pool was ever successfully opened.
func (s *Store) Ping(ctx context.Context) error {
	return wrap("ping", s.pool.Ping(ctx))
}
