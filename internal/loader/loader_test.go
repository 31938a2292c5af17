package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeSource(t, "chapter_01.json", `{
		"metadata": {"chapter": "Chapter 1", "subject": "Science", "chapter_title": "Matter in Our Surroundings"},
		"sections": [
			{
				"title": "Evaporation",
				"page": 3,
				"content": ["Evaporation is the process by which liquid turns into vapor."],
				"activities": ["Observe a puddle drying over a day."],
				"questions": ["What is evaporation?"]
			}
		]
	}`)

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, domain.DocumentID(path), doc.ID)
	assert.Equal(t, "Chapter 1", doc.Chapter)
	assert.Equal(t, "Science", doc.Subject)
	require.Len(t, doc.Segments, 4)

	assert.Equal(t, domain.ContentHeading, doc.Segments[0].Type)
	assert.Equal(t, domain.ContentBody, doc.Segments[1].Type)
	assert.Equal(t, domain.ContentActivity, doc.Segments[2].Type)
	assert.Equal(t, domain.ContentQuestion, doc.Segments[3].Type)
	assert.Equal(t, 3, doc.Segments[1].Page)
}

func TestLoad_DefaultSubject(t *testing.T) {
	path := writeSource(t, "chapter_02.json", `{
		"metadata": {"chapter": "Chapter 2"},
		"sections": [{"content": ["Some body text."]}]
	}`)

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "General", doc.Subject)
}

func TestLoad_NoText(t *testing.T) {
	path := writeSource(t, "empty.json", `{
		"metadata": {"chapter": "Chapter 3", "subject": "Science"},
		"sections": [{"content": ["   ", ""]}]
	}`)

	_, err := New().Load(context.Background(), path)
	require.ErrorIs(t, err, domain.ErrMalformedDocument)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeSource(t, "broken.json", `{not json`)

	_, err := New().Load(context.Background(), path)
	require.ErrorIs(t, err, domain.ErrMalformedDocument)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrMalformedDocument)
}
