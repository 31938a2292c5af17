package driven

import (
	"context"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

// EmbeddingService is a single embedding model behind an API.
//
// Note: this is separate from VectorIndex, which stores and searches
// vectors. EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations may include:
//   - NVIDIA NIM (nv-embed family)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one request
	// where the API supports it. The result is positionally aligned to
	// the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the declared embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Embedder is the pipeline-facing embedding contract. It hides the
// primary/fallback model strategy and returns batches tagged with the
// model that actually produced them, so callers never mix dimensions.
type Embedder interface {
	// EmbedBatch embeds texts, batching and retrying internally.
	// The result sequence is positionally aligned to the input
	// regardless of batching. If the primary model exhausts its
	// retries the whole call is redone on the fallback; if both fail
	// the error wraps domain.ErrEmbeddingUnavailable.
	EmbedBatch(ctx context.Context, texts []string) (*domain.EmbeddingBatch, error)

	// ActiveModel returns the model currently selected by the
	// capability probe. The retriever uses this to address the
	// dimension-matched collection.
	ActiveModel(ctx context.Context) (domain.ModelInfo, error)

	// Close releases resources.
	Close() error
}
