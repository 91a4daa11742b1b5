package recognition

import (
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"facegate/internal/enrollment"
	id "facegate/pkg/domain"
)

// indexMaxNeighbors is the HNSW M parameter.
const indexMaxNeighbors = 16

// Index wraps an HNSW graph over enrollment embeddings, keyed by user id.
// The records map is authoritative: similarities are always recomputed from
// the stored record, so stale graph vectors after a re-registration or delete
// never leak into results (HNSW has no true deletion).
type Index struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[string]
	records map[string]*enrollment.Record
}

// neighbor is one search hit with its exact similarity to the query.
type neighbor struct {
	record     *enrollment.Record
	similarity float64
}

func NewIndex() *Index {
	return &Index{records: make(map[string]*enrollment.Record)}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// Rebuild replaces the whole index from a snapshot of enrollment records.
func (x *Index) Rebuild(records []*enrollment.Record) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.records = make(map[string]*enrollment.Record, len(records))
	if len(records) == 0 {
		x.graph = nil
		return
	}

	g := newGraph()
	for _, rec := range records {
		if len(rec.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(rec.UserID.String(), rec.Embedding))
		x.records[rec.UserID.String()] = rec
	}
	x.graph = g
}

// Upsert adds or replaces one record.
func (x *Index) Upsert(rec *enrollment.Record) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(rec.Embedding) == 0 {
		return
	}
	if x.graph == nil {
		x.graph = newGraph()
	}
	x.graph.Add(hnsw.MakeNode(rec.UserID.String(), rec.Embedding))
	x.records[rec.UserID.String()] = rec
}

// Remove drops a record from results. The graph node stays behind but is
// filtered out by the records lookup.
func (x *Index) Remove(userID id.UserID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.records, userID.String())
}

// Search returns up to k nearest enrollments with exact similarities,
// best first.
func (x *Index) Search(query []float32, k int) []neighbor {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil || len(x.records) == 0 {
		return nil
	}

	// Over-fetch to survive filtered-out stale nodes.
	fetch := k * 2
	if fetch > len(x.records)+k {
		fetch = len(x.records) + k
	}
	nodes := x.graph.Search(query, fetch)

	out := make([]neighbor, 0, k)
	for _, n := range nodes {
		rec, ok := x.records[n.Key]
		if !ok {
			continue
		}
		out = append(out, neighbor{
			record:     rec,
			similarity: CosineSimilarity(query, rec.Embedding),
		})
		if len(out) == k {
			break
		}
	}
	// Graph order follows possibly stale vectors; exact similarities decide.
	sort.Slice(out, func(i, j int) bool { return out[i].similarity > out[j].similarity })
	return out
}

// Count returns the number of live records in the index.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}
