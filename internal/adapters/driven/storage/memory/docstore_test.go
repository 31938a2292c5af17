package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

func TestDocumentStore_RoundTrip(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{ID: "doc-1", SourceFile: "a.json", Subject: "Science", Chapter: "ch1"}
	require.NoError(t, store.SaveDocument(ctx, doc))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c2", DocumentID: "doc-1", Position: 1},
		{ID: "c1", DocumentID: "doc-1", Position: 0},
	}))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Science", got.Subject)

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "c1", chunks[0].ID)
}

func TestDocumentStore_NotFound(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	_, err := store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveDocumentSupersedes(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{ID: "doc-1", SourceFile: "a.json"}
	require.NoError(t, store.SaveDocument(ctx, doc))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{ID: "old", DocumentID: "doc-1"}}))

	require.NoError(t, store.SaveDocument(ctx, doc))

	_, err := store.GetChunk(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{ID: "c1", DocumentID: "doc-1"}}))
	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
