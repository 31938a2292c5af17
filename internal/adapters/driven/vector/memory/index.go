// Package memory provides an in-process vector index for tests and
// small corpora. Search is brute-force cosine similarity; metadata
// filtering is left to the caller, which over-fetches and post-filters.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.VectorIndex   = (*Index)(nil)
	_ driven.IndexProvider = (*Provider)(nil)
)

// Index is an in-memory vector collection.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	records    map[string]domain.EmbeddingRecord
}

// NewIndex creates an empty collection expecting vectors of the given
// dimension.
func NewIndex(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		records:    make(map[string]domain.EmbeddingRecord),
	}
}

// Upsert inserts or replaces records keyed by chunk ID.
func (idx *Index) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, rec := range records {
		if len(rec.Vector) != idx.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, collection expects %d",
				domain.ErrDimensionMismatch, rec.ChunkID, len(rec.Vector), idx.dimensions)
		}
		idx.records[rec.ChunkID] = rec
	}
	return nil
}

// Search scans all stored vectors and returns the k most similar.
// The filter is ignored; callers post-filter.
func (idx *Index) Search(_ context.Context, vector []float32, _ domain.Filter, k int) ([]driven.VectorHit, error) {
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection expects %d",
			domain.ErrDimensionMismatch, len(vector), idx.dimensions)
	}

	idx.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(idx.records))
	for id, rec := range idx.records {
		hits = append(hits, driven.VectorHit{ChunkID: id, Score: cosine(vector, rec.Vector)})
	}
	idx.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (idx *Index) Count(context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records), nil
}

// ServerSideFiltering reports false: callers must post-filter.
func (idx *Index) ServerSideFiltering() bool { return false }

// Close releases resources.
func (idx *Index) Close() error { return nil }

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Provider hands out in-memory collections keyed by model dimension.
type Provider struct {
	mu          sync.Mutex
	collections map[string]*Index
	base        string
}

// NewProvider creates a provider with the given base collection name.
func NewProvider(base string) *Provider {
	return &Provider{
		collections: make(map[string]*Index),
		base:        base,
	}
}

// Collection returns the index for the model, creating it if needed.
func (p *Provider) Collection(_ context.Context, model domain.ModelInfo) (driven.VectorIndex, error) {
	if model.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: model %q declares no dimensions", domain.ErrDimensionMismatch, model.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	name := model.CollectionName(p.base)
	idx, ok := p.collections[name]
	if !ok {
		idx = NewIndex(model.Dimensions)
		p.collections[name] = idx
	}
	return idx, nil
}

// Close releases resources.
func (p *Provider) Close() error { return nil }
