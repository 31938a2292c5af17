package driven

import (
	"context"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the cosine similarity (or an engine-equivalent
	// monotonic transform), consistent across one collection.
	Score float64
}

// VectorIndex stores chunk vectors and serves nearest-neighbour
// queries over one collection. All vectors in a collection share the
// same model tag; mixed dimensions are a configuration error.
type VectorIndex interface {
	// Upsert inserts or replaces records, idempotent by chunk ID.
	// Replacement is atomic from the caller's perspective.
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error

	// Search finds the k nearest neighbours to the query vector.
	// When ServerSideFiltering reports true the filter is applied by
	// the engine; otherwise implementations ignore it and the caller
	// post-filters an over-fetched candidate set.
	Search(ctx context.Context, vector []float32, filter domain.Filter, k int) ([]VectorHit, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// ServerSideFiltering reports whether the engine applies metadata
	// filters natively.
	ServerSideFiltering() bool

	// Close releases resources.
	Close() error
}

// IndexProvider opens the collection for an embedding model.
// Collection identity is keyed by the model's dimension, so switching
// models switches collections rather than corrupting an existing one.
type IndexProvider interface {
	// Collection returns the index for the given model, creating the
	// underlying collection if needed.
	Collection(ctx context.Context, model domain.ModelInfo) (VectorIndex, error)

	// Close releases resources.
	Close() error
}
