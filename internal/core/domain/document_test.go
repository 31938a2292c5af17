package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentID_StableAndDistinct(t *testing.T) {
	a := DocumentID("data/science_ch1.json")
	b := DocumentID("data/science_ch1.json")
	c := DocumentID("data/science_ch2.json")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestChunkID_KeyedByDocumentAndOffset(t *testing.T) {
	doc := DocumentID("data/science_ch1.json")

	assert.Equal(t, ChunkID(doc, 0), ChunkID(doc, 0))
	assert.NotEqual(t, ChunkID(doc, 0), ChunkID(doc, 640))
	assert.NotEqual(t, ChunkID(doc, 0), ChunkID("otherdoc", 0))
}

func TestHasText(t *testing.T) {
	empty := &Document{Segments: []Segment{{Text: ""}, {Text: ""}}}
	assert.False(t, empty.HasText())
	assert.False(t, (&Document{}).HasText())

	doc := &Document{Segments: []Segment{{Text: ""}, {Text: "Water evaporates."}}}
	assert.True(t, doc.HasText())
}

func TestContentType_Atomic(t *testing.T) {
	assert.True(t, ContentActivity.Atomic())
	assert.True(t, ContentQuestion.Atomic())
	assert.False(t, ContentHeading.Atomic())
	assert.False(t, ContentBody.Atomic())
	assert.False(t, ContentType("sidebar").Atomic())
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 3, EstimateTokens("twelve chars"))

	// Counted in runes, not bytes.
	assert.Equal(t, 1, EstimateTokens("日本語圏"))
}
