//go:build integration

package enrollment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"facegate/internal/enrollment"
	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
	"facegate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	store    *enrollment.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = enrollment.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.postgres.Pool.Close()
	_ = s.postgres.Container.Terminate(s.ctx)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(s.ctx))
}

func record(userID string, v []float32) *enrollment.Record {
	return &enrollment.Record{
		UserID:       id.UserID(userID),
		DisplayName:  userID,
		Embedding:    v,
		ModelVersion: "facenet-v1",
		EnrolledAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	rec := record("alice", []float32{0.25, 0.5, 0.75, 1})
	s.Require().NoError(s.store.Save(s.ctx, rec))

	found, err := s.store.FindByID(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(rec.DisplayName, found.DisplayName)
	s.Equal(rec.Embedding, found.Embedding)
	s.Equal(rec.ModelVersion, found.ModelVersion)
	s.WithinDuration(rec.EnrolledAt, found.EnrolledAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestSaveReplaces() {
	s.Require().NoError(s.store.Save(s.ctx, record("alice", []float32{1, 0, 0, 0})))
	s.Require().NoError(s.store.Save(s.ctx, record("alice", []float32{0, 1, 0, 0})))

	found, err := s.store.FindByID(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]float32{0, 1, 0, 0}, found.Embedding)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, "ghost")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrdered() {
	for _, user := range []string{"carol", "alice", "bob"} {
		s.Require().NoError(s.store.Save(s.ctx, record(user, []float32{1, 0, 0, 0})))
	}

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(id.UserID("alice"), all[0].UserID)
	s.Equal(id.UserID("bob"), all[1].UserID)
	s.Equal(id.UserID("carol"), all[2].UserID)
}

func (s *PostgresStoreSuite) TestDelete() {
	s.Require().NoError(s.store.Save(s.ctx, record("alice", []float32{1, 0, 0, 0})))
	s.Require().NoError(s.store.Delete(s.ctx, "alice"))

	_, err := s.store.FindByID(s.ctx, "alice")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, "alice"), sentinel.ErrNotFound)
}
