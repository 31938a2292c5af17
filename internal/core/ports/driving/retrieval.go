package driving

import (
	"context"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

// RetrievalService answers topic queries with ranked, deduplicated
// chunks from the vector index.
type RetrievalService interface {
	// Retrieve embeds the query topic and runs a filtered
	// nearest-neighbour search. An empty topic fails with
	// domain.ErrInvalidQuery; a filter matching nothing returns an
	// empty result, not an error.
	Retrieve(ctx context.Context, query domain.Query) (domain.RetrievalResult, error)
}
