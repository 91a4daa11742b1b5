package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"facegate/internal/session/models"
	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix  = "facegate:session:"
	activeSetKey      = "facegate:sessions:active"
	unpersistedSetKey = "facegate:sessions:unpersisted"

	// terminalRetention keeps finished sessions queryable for a while so
	// callers can fetch their outcome after the fact.
	terminalRetention = 24 * time.Hour
)

// Redis persists sessions as JSON values with TTLs. An auxiliary set tracks
// non-terminal session ids so the sweep does not have to scan the keyspace.
// This is the implementation for multi-instance deployments where a kiosk may
// reconnect to a different instance mid-session.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func sessionKey(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

func (s *Redis) Create(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, sessionKey(session.ID), payload, s.ttl(session)).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return sentinel.ErrDuplicate
	}
	if err := s.client.SAdd(ctx, activeSetKey, session.ID.String()).Err(); err != nil {
		return fmt.Errorf("track active session: %w", err)
	}
	return nil
}

func (s *Redis) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *Redis) Update(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	set, err := s.client.SetXX(ctx, sessionKey(session.ID), payload, s.ttl(session)).Result()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if !set {
		return sentinel.ErrNotFound
	}
	if session.State.Terminal() {
		if err := s.client.SRem(ctx, activeSetKey, session.ID.String()).Err(); err != nil {
			return fmt.Errorf("untrack terminal session: %w", err)
		}
	}
	if session.Unpersisted {
		if err := s.client.SAdd(ctx, unpersistedSetKey, session.ID.String()).Err(); err != nil {
			return fmt.Errorf("track unpersisted session: %w", err)
		}
	}
	return nil
}

func (s *Redis) ListNonTerminal(ctx context.Context) ([]*models.Session, error) {
	return s.listSet(ctx, activeSetKey, func(session *models.Session) bool {
		return !session.State.Terminal()
	})
}

func (s *Redis) ListUnpersisted(ctx context.Context) ([]*models.Session, error) {
	return s.listSet(ctx, unpersistedSetKey, func(session *models.Session) bool {
		return session.Unpersisted
	})
}

func (s *Redis) listSet(ctx context.Context, setKey string, keep func(*models.Session) bool) ([]*models.Session, error) {
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions from %s: %w", setKey, err)
	}

	var out []*models.Session
	for _, raw := range ids {
		sessionID, err := id.ParseSessionID(raw)
		if err != nil {
			// Corrupt set entry; drop it rather than wedging the sweep.
			s.client.SRem(ctx, setKey, raw)
			continue
		}
		session, err := s.FindByID(ctx, sessionID)
		if errors.Is(err, sentinel.ErrNotFound) {
			// Value expired out from under the set.
			s.client.SRem(ctx, setKey, raw)
			continue
		}
		if err != nil {
			return nil, err
		}
		if keep(session) {
			out = append(out, session)
		}
	}
	return out, nil
}

// ttl keeps live sessions around past their deadline so the sweep can observe
// and expire them, and keeps terminal sessions for the retention window.
func (s *Redis) ttl(session *models.Session) time.Duration {
	if session.State.Terminal() {
		return terminalRetention
	}
	ttl := time.Until(session.ExpiresAt) + terminalRetention
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}
