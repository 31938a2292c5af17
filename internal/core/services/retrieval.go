package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driving"
	"github.com/eduplan-labs/eduplan-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// overFetchFactor compensates for post-hoc filtering when the index
// engine cannot apply metadata filters server-side.
const overFetchFactor = 4

// RetrievalService turns a query into a ranked, deduplicated set of
// chunks from the dimension-matched collection.
type RetrievalService struct {
	embedder driven.Embedder
	indexes  driven.IndexProvider
	docs     driven.DocumentStore
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(
	embedder driven.Embedder,
	indexes driven.IndexProvider,
	docs driven.DocumentStore,
) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		indexes:  indexes,
		docs:     docs,
	}
}

// Retrieve embeds the query topic with the active model and searches
// its collection. Results are unique by chunk ID and ordered by score
// descending with ascending chunk ID as the tie-break. A filter that
// matches nothing yields an empty result, not an error.
func (s *RetrievalService) Retrieve(ctx context.Context, query domain.Query) (domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	if strings.TrimSpace(query.Topic) == "" {
		return domain.RetrievalResult{}, fmt.Errorf("%w: empty topic", domain.ErrInvalidQuery)
	}

	batch, err := s.embedder.EmbedBatch(ctx, []string{query.Topic})
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("embed query: %w", err)
	}
	if len(batch.Vectors) != 1 {
		return domain.RetrievalResult{}, fmt.Errorf("embed query: expected 1 vector, got %d", len(batch.Vectors))
	}
	logger.Debug("Query embedded with %s (%d dims)", batch.Model.Name, batch.Model.Dimensions)

	index, err := s.indexes.Collection(ctx, batch.Model)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("open collection: %w", err)
	}

	filter := query.Filter()
	k := query.Limit()

	// Over-fetch when the engine cannot filter server-side, then
	// post-filter and truncate back down to k.
	fetch := k
	serverSide := index.ServerSideFiltering()
	if !serverSide && !filter.Empty() {
		fetch = k * overFetchFactor
	}
	logger.Debug("Searching k=%d (fetch=%d, server-side filters=%t)", k, fetch, serverSide)

	hits, err := index.Search(ctx, batch.Vectors[0], filter, fetch)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("vector search: %w", err)
	}

	result, err := s.hydrate(ctx, hits, filter, serverSide)
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	result.Sort()
	result.Truncate(k)
	logger.Info("Retrieved %d chunks", len(result.Hits))
	return result, nil
}

// hydrate resolves vector hits into full chunks via the document
// store, deduplicating by chunk ID and applying the filter post-hoc
// when the engine did not.
func (s *RetrievalService) hydrate(
	ctx context.Context, hits []driven.VectorHit, filter domain.Filter, serverSide bool,
) (domain.RetrievalResult, error) {
	var result domain.RetrievalResult
	seen := make(map[string]bool, len(hits))

	for _, hit := range hits {
		if seen[hit.ChunkID] {
			continue
		}
		seen[hit.ChunkID] = true

		chunk, err := s.docs.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Index and store drifted; skip rather than fail the query.
				logger.Warn("Chunk %s in index but not in store", hit.ChunkID)
				continue
			}
			return domain.RetrievalResult{}, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		if !serverSide && !filter.Matches(chunk.Chapter, chunk.Subject) {
			continue
		}

		result.Hits = append(result.Hits, domain.ScoredChunk{Chunk: *chunk, Score: hit.Score})
	}

	return result, nil
}
