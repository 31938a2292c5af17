// Package chromem provides a vector index adapter backed by chromem-go,
// an embedded vector database persisted to local disk. This is the
// default index backend: no external service required.
package chromem

import (
	"context"
	"fmt"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.VectorIndex   = (*Index)(nil)
	_ driven.IndexProvider = (*Provider)(nil)
)

// DefaultCollectionBase is the base collection name; the model's
// dimension is appended per collection.
const DefaultCollectionBase = "chunks"

// Provider opens chromem collections keyed by model dimension inside
// one persistent database directory.
type Provider struct {
	db   *chromemgo.DB
	base string

	mu      sync.Mutex
	indexes map[string]*Index
}

// NewProvider opens (or creates) a persistent database at path.
func NewProvider(path, base string) (*Provider, error) {
	db, err := chromemgo.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	return newProvider(db, base), nil
}

// NewInMemoryProvider creates a non-persistent provider, used in tests.
func NewInMemoryProvider(base string) *Provider {
	return newProvider(chromemgo.NewDB(), base)
}

func newProvider(db *chromemgo.DB, base string) *Provider {
	if base == "" {
		base = DefaultCollectionBase
	}
	return &Provider{
		db:      db,
		base:    base,
		indexes: make(map[string]*Index),
	}
}

// Collection returns the index for the model, creating the underlying
// chromem collection if needed.
func (p *Provider) Collection(_ context.Context, model domain.ModelInfo) (driven.VectorIndex, error) {
	if model.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: model %q declares no dimensions", domain.ErrDimensionMismatch, model.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	name := model.CollectionName(p.base)
	if idx, ok := p.indexes[name]; ok {
		return idx, nil
	}

	metadata := map[string]string{"hnsw:space": "cosine"}
	collection, err := p.db.GetOrCreateCollection(name, metadata, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", name, err)
	}

	idx := &Index{collection: collection, dimensions: model.Dimensions}
	p.indexes[name] = idx
	return idx, nil
}

// Close releases resources. Persistence happens on every write, so
// there is nothing to flush.
func (p *Provider) Close() error { return nil }

// noEmbedding guards against chromem embedding texts itself: every
// vector is supplied explicitly by the pipeline.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("collection requires precomputed embeddings")
}

// Index is one chromem collection.
type Index struct {
	collection *chromemgo.Collection
	dimensions int
}

// Upsert inserts or replaces records, idempotent by chunk ID.
func (idx *Index) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, 0, len(records))
	vectors := make([][]float32, 0, len(records))
	metadatas := make([]map[string]string, 0, len(records))
	contents := make([]string, 0, len(records))

	for _, rec := range records {
		if len(rec.Vector) != idx.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, collection expects %d",
				domain.ErrDimensionMismatch, rec.ChunkID, len(rec.Vector), idx.dimensions)
		}
		ids = append(ids, rec.ChunkID)
		vectors = append(vectors, rec.Vector)
		metadatas = append(metadatas, map[string]string{
			"document_id":  rec.DocumentID,
			"chapter":      rec.Chapter,
			"subject":      rec.Subject,
			"content_type": string(rec.ContentType),
		})
		contents = append(contents, rec.Text)
	}

	// Delete first so re-ingesting a document replaces its vectors
	// instead of erroring on duplicate IDs.
	if idx.collection.Count() > 0 {
		if err := idx.collection.Delete(ctx, nil, nil, ids...); err != nil {
			return fmt.Errorf("replace vectors: %w", err)
		}
	}

	if err := idx.collection.Add(ctx, ids, vectors, metadatas, contents); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	return nil
}

// Search finds the k nearest neighbours, applying the metadata filter
// inside the engine.
func (idx *Index) Search(ctx context.Context, vector []float32, filter domain.Filter, k int) ([]driven.VectorHit, error) {
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection expects %d",
			domain.ErrDimensionMismatch, len(vector), idx.dimensions)
	}

	count := idx.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem rejects result counts above the stored count.
	if k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	var where map[string]string
	if !filter.Empty() {
		where = make(map[string]string, 2)
		if filter.Chapter != "" {
			where["chapter"] = filter.Chapter
		}
		if filter.Subject != "" {
			where["subject"] = filter.Subject
		}
	}

	results, err := idx.collection.QueryEmbedding(ctx, vector, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	hits := make([]driven.VectorHit, len(results))
	for i, res := range results {
		hits[i] = driven.VectorHit{ChunkID: res.ID, Score: float64(res.Similarity)}
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (idx *Index) Count(context.Context) (int, error) {
	return idx.collection.Count(), nil
}

// ServerSideFiltering reports true: chromem applies metadata filters
// before ranking.
func (idx *Index) ServerSideFiltering() bool { return true }

// Close releases resources.
func (idx *Index) Close() error { return nil }
