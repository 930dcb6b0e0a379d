// Package integration spins up throwaway backing services for the
// repository tests. Tests that use it skip themselves when docker is
// not available.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type Env struct {
	PG     *postgres.PostgresContainer
	Pool   *pgxpool.Pool
	PGURL  string
	Cancel context.CancelFunc
}

// Setup starts a postgres container and applies the schema from the
// migrations directory at migrationsDir.
func Setup(ctx context.Context, migrationsDir string) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("checkout"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		cancel()
		return nil, err
	}

	pool, err := pgxpool.New(ctx, pgURL)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := applyMigrations(ctx, pool, migrationsDir); err != nil {
		pool.Close()
		cancel()
		return nil, err
	}

	return &Env{
		PG:     pgC,
		Pool:   pool,
		PGURL:  pgURL,
		Cancel: cancel,
	}, nil
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		sql, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Env) Teardown(ctx context.Context) {
	e.Pool.Close()
	e.Cancel()
	_ = e.PG.Terminate(ctx)
}
