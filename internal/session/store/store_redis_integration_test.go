//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"facegate/internal/session/models"
	"facegate/internal/session/store"
	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
	"facegate/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *store.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) TearDownSuite() {
	_ = s.redis.Client.Close()
	_ = s.redis.Container.Terminate(s.ctx)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func makeSession(state models.State) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        id.NewSessionID(),
		State:     state,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}
}

func (s *RedisStoreSuite) TestCreateAndFind() {
	session := makeSession(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, session))

	found, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, found.ID)
	s.Equal(models.StateIdle, found.State)
	s.WithinDuration(session.ExpiresAt, found.ExpiresAt, time.Second)
}

func (s *RedisStoreSuite) TestCreateDuplicate() {
	session := makeSession(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, session))
	s.ErrorIs(s.store.Create(s.ctx, session), sentinel.ErrDuplicate)
}

func (s *RedisStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.NewSessionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestUpdateRoundTripsFullState() {
	session := makeSession(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, session))

	session.State = models.StateAwaitingLiveness
	session.Attempts = 2
	session.Candidate = &models.Candidate{UserID: "alice", DisplayName: "Alice", Confidence: 0.91}
	session.LivenessOpenedAt = time.Now()
	session.Liveness.Blinks = 1
	session.Liveness.Frames = 3
	session.Liveness.SawFace = true
	s.Require().NoError(s.store.Update(s.ctx, session))

	found, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(models.StateAwaitingLiveness, found.State)
	s.Equal(2, found.Attempts)
	s.Equal(session.Candidate, found.Candidate)
	s.Equal(session.Liveness, found.Liveness)
}

func (s *RedisStoreSuite) TestUpdateMissing() {
	s.ErrorIs(s.store.Update(s.ctx, makeSession(models.StateIdle)), sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestListNonTerminal() {
	open := makeSession(models.StateAwaitingRecognition)
	s.Require().NoError(s.store.Create(s.ctx, open))

	done := makeSession(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, done))
	done.State = models.StateVerified
	s.Require().NoError(s.store.Update(s.ctx, done))

	sessions, err := s.store.ListNonTerminal(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(open.ID, sessions[0].ID)
}

func (s *RedisStoreSuite) TestTerminalSessionsStayReadable() {
	session := makeSession(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, session))
	session.State = models.StateExpired
	s.Require().NoError(s.store.Update(s.ctx, session))

	found, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(models.StateExpired, found.State)
}

func (s *RedisStoreSuite) TestListUnpersisted() {
	flagged := makeSession(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, flagged))
	flagged.State = models.StateVerified
	flagged.Unpersisted = true
	s.Require().NoError(s.store.Update(s.ctx, flagged))

	clean := makeSession(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, clean))

	sessions, err := s.store.ListUnpersisted(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(flagged.ID, sessions[0].ID)
	s.True(sessions[0].Unpersisted)
}
