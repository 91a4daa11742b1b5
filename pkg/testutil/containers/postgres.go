//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema is applied fresh to every container. It must stay in step with the
// store packages.
const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS enrollments (
    user_id       TEXT PRIMARY KEY,
    display_name  TEXT NOT NULL,
    embedding     vector NOT NULL,
    model_version TEXT NOT NULL,
    enrolled_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance (
    user_id           TEXT NOT NULL,
    day               DATE NOT NULL,
    recorded_at       TIMESTAMPTZ NOT NULL,
    confidence        DOUBLE PRECISION NOT NULL,
    liveness_verified BOOLEAN NOT NULL,
    session_id        UUID NOT NULL,
    PRIMARY KEY (user_id, day)
);
`

// PostgresContainer wraps a testcontainers Postgres instance with the schema
// applied.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	Pool      *pgxpool.Pool
}

// NewPostgresContainer starts a new Postgres container with the pgvector
// extension available and runs the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "pgvector/pgvector:pg16",
		tcpostgres.WithDatabase("facegate"),
		tcpostgres.WithUsername("facegate"),
		tcpostgres.WithPassword("facegate"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to parse postgres URL: %v", err)
	}
	poolCfg.AfterConnect = pgxvector.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		URL:       url,
		Pool:      pool,
	}
}

// Truncate empties every table. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `TRUNCATE enrollments, attendance`)
	return err
}
