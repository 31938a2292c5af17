package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

func testRecord(id, chapter, subject string, vector []float32) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		ChunkID:     id,
		DocumentID:  "doc-1",
		Vector:      vector,
		Chapter:     chapter,
		Subject:     subject,
		ContentType: domain.ContentBody,
		Text:        "text for " + id,
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	p := NewInMemoryProvider("chunks")
	idx, err := p.Collection(context.Background(), domain.ModelInfo{Name: "test", Dimensions: 3})
	require.NoError(t, err)
	return idx.(*Index)
}

func TestIndex_SearchRanked(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.EmbeddingRecord{
		testRecord("near", "ch1", "Science", []float32{1, 0, 0}),
		testRecord("far", "ch1", "Science", []float32{0, 0, 1}),
		testRecord("mid", "ch1", "Science", []float32{1, 1, 0}),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, domain.Filter{}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].ChunkID)
	assert.Equal(t, "mid", hits[1].ChunkID)
}

func TestIndex_ServerSideFilter(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.EmbeddingRecord{
		testRecord("water-ch1", "ch1", "Science", []float32{1, 0, 0}),
		testRecord("water-ch2", "ch2", "Science", []float32{1, 0, 0}),
	}))

	require.True(t, idx.ServerSideFiltering())

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, domain.Filter{Chapter: "ch2"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "water-ch2", hits[0].ChunkID)
}

func TestIndex_UpsertReplaces(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.EmbeddingRecord{
		testRecord("c1", "ch1", "Science", []float32{1, 0, 0}),
	}))
	require.NoError(t, idx.Upsert(ctx, []domain.EmbeddingRecord{
		testRecord("c1", "ch9", "Science", []float32{0, 1, 0}),
	}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Only the replacement chapter matches now.
	hits, err := idx.Search(ctx, []float32{0, 1, 0}, domain.Filter{Chapter: "ch9"}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = idx.Search(ctx, []float32{0, 1, 0}, domain.Filter{Chapter: "ch1"}, 1)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_SearchClampsToCount(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.EmbeddingRecord{
		testRecord("only", "ch1", "Science", []float32{1, 0, 0}),
	}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, domain.Filter{}, 50)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndex_SearchEmptyCollection(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, domain.Filter{}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, []domain.EmbeddingRecord{
		testRecord("bad", "ch1", "Science", []float32{1, 0}),
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestProvider_PersistentReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	model := domain.ModelInfo{Name: "test", Dimensions: 3}

	p, err := NewProvider(dir, "chunks")
	require.NoError(t, err)
	idx, err := p.Collection(ctx, model)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, []domain.EmbeddingRecord{
		testRecord("persisted", "ch1", "Science", []float32{1, 0, 0}),
	}))
	require.NoError(t, p.Close())

	reopened, err := NewProvider(dir, "chunks")
	require.NoError(t, err)
	idx2, err := reopened.Collection(ctx, model)
	require.NoError(t, err)

	count, err := idx2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
