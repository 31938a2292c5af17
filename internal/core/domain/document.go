package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// ContentType tags a text segment with its pedagogical role.
type ContentType string

// Known content types. Unknown tags are preserved as-is.
const (
	ContentHeading  ContentType = "heading"
	ContentBody     ContentType = "body"
	ContentActivity ContentType = "activity"
	ContentQuestion ContentType = "question"
)

// Atomic reports whether a segment of this type must not be split
// across chunks when a boundary-respecting split is available.
func (c ContentType) Atomic() bool {
	return c == ContentActivity || c == ContentQuestion
}

// Segment is one ordered unit of extracted document text with
// positional metadata. Segments are produced by the preprocessing
// step and never modified afterwards.
type Segment struct {
	// Text is the cleaned segment text.
	Text string

	// Type is the content-type tag for this segment.
	Type ContentType

	// Page is the source page number, if known.
	Page int

	// HeadingLevel is the heading depth for heading segments (1-based).
	HeadingLevel int
}

// Document is the canonical representation of one ingested source file.
// Documents are immutable after ingestion; re-ingesting the same source
// supersedes the prior document rather than mutating it.
type Document struct {
	// ID is derived from the source file path and stable across runs.
	ID string

	// SourceFile is the original file path.
	SourceFile string

	// Subject is the curriculum subject (e.g. "Science").
	Subject string

	// Chapter is the chapter or class label (e.g. "Chapter 1").
	Chapter string

	// Segments is the ordered sequence of extracted text segments.
	Segments []Segment

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// HasText reports whether the document contains any extractable text.
func (d *Document) HasText() bool {
	for _, seg := range d.Segments {
		if seg.Text != "" {
			return true
		}
	}
	return false
}

// Chunk is the atomic retrievable unit derived from a document.
type Chunk struct {
	// ID is a deterministic hash of (document ID, start offset).
	ID string

	// DocumentID references the owning document.
	DocumentID string

	// Text is the chunk content.
	Text string

	// TokenEstimate is a rough token count for the content.
	TokenEstimate int

	// Chapter is propagated unchanged from the document.
	Chapter string

	// Subject is propagated unchanged from the document.
	Subject string

	// ContentType is the dominant content-type tag within the chunk.
	ContentType ContentType

	// StartOffset and EndOffset locate the chunk in the flattened
	// document text, measured in runes.
	StartOffset int
	EndOffset   int

	// Position is the ordinal position within the document.
	Position int
}

// DocumentID derives the stable document identifier for a source file.
func DocumentID(sourceFile string) string {
	sum := sha256.Sum256([]byte(sourceFile))
	return hex.EncodeToString(sum[:])[:16]
}

// ChunkID derives the stable chunk identifier from the owning document
// and the chunk's start offset. Identifier derivation is a pure function,
// so concurrent chunking of different documents cannot collide.
func ChunkID(documentID string, startOffset int) string {
	sum := sha256.Sum256([]byte(documentID + ":" + strconv.Itoa(startOffset)))
	return hex.EncodeToString(sum[:])[:16]
}

// EstimateTokens approximates the token count of text.
// Rough estimate: 4 characters per token.
func EstimateTokens(text string) int {
	n := len([]rune(text)) / 4
	if n == 0 && text != "" {
		n = 1
	}
	return n
}
