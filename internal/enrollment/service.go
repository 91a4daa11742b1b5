package enrollment

import (
	"context"
	"fmt"
	"time"

	id "facegate/pkg/domain"
	dErrors "facegate/pkg/domain-errors"
)

// Observer is notified after enrollment writes so derived structures
// (the recognition index) stay in sync with the store.
type Observer interface {
	EnrollmentSaved(rec *Record)
	EnrollmentRemoved(userID id.UserID)
}

// Service validates registrations before they reach the store. It is the only
// write path into enrollments; the recognition gate only ever reads.
type Service struct {
	store        Store
	observers    []Observer
	embeddingDim int
	modelVersion string
	now          func() time.Time
}

func NewService(store Store, embeddingDim int, modelVersion string, observers ...Observer) *Service {
	return &Service{
		store:        store,
		observers:    observers,
		embeddingDim: embeddingDim,
		modelVersion: modelVersion,
		now:          time.Now,
	}
}

// Register enrolls a person or replaces their embedding on re-registration.
func (s *Service) Register(ctx context.Context, userID id.UserID, displayName string, embedding []float32, modelVersion string) (*Record, error) {
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "display name must not be empty")
	}
	if len(embedding) != s.embeddingDim {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("embedding must have %d dimensions, got %d", s.embeddingDim, len(embedding)))
	}
	if modelVersion != s.modelVersion {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("embedding model %q does not match enrolled model %q", modelVersion, s.modelVersion))
	}

	rec := &Record{
		UserID:       userID,
		DisplayName:  displayName,
		Embedding:    embedding,
		ModelVersion: modelVersion,
		EnrolledAt:   s.now(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save enrollment", err)
	}
	for _, obs := range s.observers {
		obs.EnrollmentSaved(rec)
	}
	return rec, nil
}

// Lookup returns the enrollment for a user id.
func (s *Service) Lookup(ctx context.Context, userID id.UserID) (*Record, error) {
	rec, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeNotFound, "enrollment not found", err)
	}
	return rec, nil
}

// List returns all enrollments ordered by user id.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.store.List(ctx)
}

// Remove deletes a person's enrollment.
func (s *Service) Remove(ctx context.Context, userID id.UserID) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return dErrors.Wrap(dErrors.CodeNotFound, "enrollment not found", err)
	}
	for _, obs := range s.observers {
		obs.EnrollmentRemoved(userID)
	}
	return nil
}
