// Package recognition matches submitted face embeddings against the
// enrollment store. It decides identity only; liveness is a separate gate.
package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"facegate/internal/enrollment"
	id "facegate/pkg/domain"
	dErrors "facegate/pkg/domain-errors"
)

var matchDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "facegate_recognition_match_duration_ms",
	Help:    "Latency of recognition matches in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// Embedding is one submitted face vector plus the model that produced it.
type Embedding struct {
	Vector       []float32
	ModelVersion string
}

// Candidate is the best enrollment match for a submitted embedding.
type Candidate struct {
	UserID      id.UserID
	DisplayName string
	Confidence  float64
}

// Result is the gate's verdict for one embedding. When Matched is false the
// Candidate fields are zero.
type Result struct {
	Matched   bool
	Candidate Candidate
}

// Gate compares embeddings against the enrollment index.
type Gate struct {
	index        *Index
	threshold    float64
	tieEpsilon   float64
	embeddingDim int
	modelVersion string
}

func NewGate(index *Index, threshold, tieEpsilon float64, embeddingDim int, modelVersion string) *Gate {
	return &Gate{
		index:        index,
		threshold:    threshold,
		tieEpsilon:   tieEpsilon,
		embeddingDim: embeddingDim,
		modelVersion: modelVersion,
	}
}

// WarmUp fills the index from the enrollment store. Call once at startup;
// afterwards the gate tracks changes through Upsert/Remove notifications.
func (g *Gate) WarmUp(ctx context.Context, store enrollment.Store) error {
	records, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list enrollments for index: %w", err)
	}
	g.index.Rebuild(records)
	return nil
}

// EnrollmentSaved keeps the index in sync after a registration.
func (g *Gate) EnrollmentSaved(rec *enrollment.Record) { g.index.Upsert(rec) }

// EnrollmentRemoved keeps the index in sync after a deletion.
func (g *Gate) EnrollmentRemoved(userID id.UserID) { g.index.Remove(userID) }

// Match finds the closest enrollment for the embedding.
//
// Returns an invalid-input error for malformed embeddings (wrong
// dimensionality or model version); a clean no-match is a Result with
// Matched=false, not an error. The threshold boundary is inclusive. When the
// two best candidates score within the tie epsilon the identity is ambiguous
// and must never be silently accepted, so the gate reports no-match.
func (g *Gate) Match(_ context.Context, emb Embedding) (Result, error) {
	start := time.Now()
	defer func() {
		matchDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if len(emb.Vector) != g.embeddingDim {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("embedding must have %d dimensions, got %d", g.embeddingDim, len(emb.Vector)))
	}
	if emb.ModelVersion != g.modelVersion {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("embedding model %q does not match enrolled model %q", emb.ModelVersion, g.modelVersion))
	}

	neighbors := g.index.Search(emb.Vector, 2)
	if len(neighbors) == 0 {
		return Result{}, nil
	}

	best := neighbors[0]
	if best.similarity < g.threshold {
		return Result{}, nil
	}
	if len(neighbors) > 1 {
		runnerUp := neighbors[1]
		if runnerUp.similarity >= g.threshold && best.similarity-runnerUp.similarity < g.tieEpsilon {
			return Result{}, nil
		}
	}

	return Result{
		Matched: true,
		Candidate: Candidate{
			UserID:      best.record.UserID,
			DisplayName: best.record.DisplayName,
			Confidence:  best.similarity,
		},
	}, nil
}
