// Package repository keeps an operational log of model attempts in
// Postgres. It stores which model/version was tried and how it ended;
// profiles, prompts and plans are never written.
package repository

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Repository struct {
	pool   *pgxpool.Pool
	writer *attemptWriter
	log    zerolog.Logger
}

// New starts the background attempt writer; call Close before closing
// the pool so queued records are flushed.
func New(pool *pgxpool.Pool, log zerolog.Logger) *Repository {
	log = log.With().Str("component", "repository").Logger()
	return &Repository{
		pool:   pool,
		writer: newAttemptWriter(pool, writeBuffer, log),
		log:    log,
	}
}

func (r *Repository) Close() {
	r.writer.close()
}

// Connect opens a pool and waits for the database to answer.
func Connect(ctx context.Context, databaseURL string, poolSize int, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if poolSize > 0 {
		poolConfig.MaxConns = int32(poolSize)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := waitForDB(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		log.Info().Msgf("waiting for database... (%d/30)", i+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func (r *Repository) MigrateUp(ctx context.Context) error {
	return r.exec(ctx, "migrations/create_tables.up.sql")
}

func (r *Repository) MigrateDown(ctx context.Context) error {
	return r.exec(ctx, "migrations/create_tables.down.sql")
}

func (r *Repository) exec(ctx context.Context, name string) error {
	sql, err := migrations.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := r.pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration %s: %w", name, err)
	}
	r.log.Info().Str("migration", name).Msg("migration applied")
	return nil
}
