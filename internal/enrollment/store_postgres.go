package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

// Postgres stores enrollments in a table with a pgvector embedding column.
// The upsert makes re-registration a single atomic statement, so readers see
// either the old record or the new one, never a mix.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Schema for reference; migrations live with the deployment:
//
//	CREATE EXTENSION IF NOT EXISTS vector;
//	CREATE TABLE enrollments (
//	    user_id       TEXT PRIMARY KEY,
//	    display_name  TEXT NOT NULL,
//	    embedding     vector NOT NULL,
//	    model_version TEXT NOT NULL,
//	    enrolled_at   TIMESTAMPTZ NOT NULL
//	);

func (s *Postgres) Save(ctx context.Context, rec *Record) error {
	const query = `
		INSERT INTO enrollments (user_id, display_name, embedding, model_version, enrolled_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			embedding = EXCLUDED.embedding,
			model_version = EXCLUDED.model_version,
			enrolled_at = EXCLUDED.enrolled_at`

	_, err := s.pool.Exec(ctx, query,
		rec.UserID.String(),
		rec.DisplayName,
		pgvector.NewVector(rec.Embedding),
		rec.ModelVersion,
		rec.EnrolledAt,
	)
	if err != nil {
		return fmt.Errorf("save enrollment: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*Record, error) {
	const query = `
		SELECT user_id, display_name, embedding, model_version, enrolled_at
		FROM enrollments
		WHERE user_id = $1`

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, userID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query enrollment: %w", err)
	}
	return rec, nil
}

func (s *Postgres) List(ctx context.Context) ([]*Record, error) {
	const query = `
		SELECT user_id, display_name, embedding, model_version, enrolled_at
		FROM enrollments
		ORDER BY user_id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, userID id.UserID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM enrollments WHERE user_id = $1`, userID.String())
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var userID string
	var vec pgvector.Vector
	if err := row.Scan(&userID, &rec.DisplayName, &vec, &rec.ModelVersion, &rec.EnrolledAt); err != nil {
		return nil, err
	}
	rec.UserID = id.UserID(userID)
	rec.Embedding = vec.Slice()
	return &rec, nil
}
