package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

// Postgres appends attendance rows. The unique index on (user_id, day) is the
// second line of defense behind the ledger's keyed lock: under concurrent
// writers exactly one insert lands, the rest report duplicate.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Schema for reference; migrations live with the deployment:
//
//	CREATE TABLE attendance (
//	    user_id           TEXT NOT NULL,
//	    day               DATE NOT NULL,
//	    recorded_at       TIMESTAMPTZ NOT NULL,
//	    confidence        DOUBLE PRECISION NOT NULL,
//	    liveness_verified BOOLEAN NOT NULL,
//	    session_id        UUID NOT NULL,
//	    PRIMARY KEY (user_id, day)
//	);

func (s *Postgres) Append(ctx context.Context, rec Record) error {
	const query = `
		INSERT INTO attendance (user_id, day, recorded_at, confidence, liveness_verified, session_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, day) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		rec.UserID.String(),
		rec.Day.String(),
		rec.Time,
		rec.Confidence,
		rec.LivenessVerified,
		rec.SessionID.String(),
	)
	if err != nil {
		return fmt.Errorf("append attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrDuplicate
	}
	return nil
}

func (s *Postgres) Exists(ctx context.Context, userID id.UserID, day Day) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM attendance WHERE user_id = $1 AND day = $2)`,
		userID.String(), day.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance exists: %w", err)
	}
	return exists, nil
}

func (s *Postgres) ListByDay(ctx context.Context, day Day) ([]Record, error) {
	const query = `
		SELECT user_id, to_char(day, 'YYYY-MM-DD'), recorded_at, confidence, liveness_verified, session_id
		FROM attendance
		WHERE day = $1
		ORDER BY recorded_at`
	return s.list(ctx, query, day.String())
}

func (s *Postgres) ListByUser(ctx context.Context, userID id.UserID) ([]Record, error) {
	const query = `
		SELECT user_id, to_char(day, 'YYYY-MM-DD'), recorded_at, confidence, liveness_verified, session_id
		FROM attendance
		WHERE user_id = $1
		ORDER BY recorded_at`
	return s.list(ctx, query, userID.String())
}

func (s *Postgres) list(ctx context.Context, query string, arg string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var userID, day, sessionID string
		if err := rows.Scan(&userID, &day, &rec.Time, &rec.Confidence, &rec.LivenessVerified, &sessionID); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.UserID = id.UserID(userID)
		rec.Day = Day(day)
		sid, err := id.ParseSessionID(sessionID)
		if err != nil {
			return nil, fmt.Errorf("parse session id: %w", err)
		}
		rec.SessionID = sid
		out = append(out, rec)
	}
	return out, rows.Err()
}
