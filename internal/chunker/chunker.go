// Package chunker splits documents into bounded, overlapping text
// chunks with preserved metadata. Chunking is a pure transformation:
// identical input and policy always yield identical chunk boundaries
// and identifiers.
package chunker

import (
	"fmt"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

// DefaultChunkSize is the default maximum chunk length in runes.
const DefaultChunkSize = 1000

// DefaultMinChunk is the default minimum chunk length in runes.
// Only the final chunk of a document may be shorter.
const DefaultMinChunk = 300

// DefaultOverlap is the default overlap between consecutive chunks
// in runes.
const DefaultOverlap = 200

// segmentSeparator joins document segments in the flattened text.
const segmentSeparator = "\n\n"

// Chunker splits documents according to a fixed policy.
type Chunker struct {
	chunkSize int
	minChunk  int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk length in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithMinChunk sets the minimum chunk length in runes.
func WithMinChunk(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.minChunk = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		minChunk:  DefaultMinChunk,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Keep the policy internally consistent: the minimum cannot exceed
	// the maximum, and the overlap must stay below the minimum so that
	// every step makes forward progress.
	if c.minChunk > c.chunkSize {
		c.minChunk = c.chunkSize
	}
	if c.overlap >= c.minChunk {
		c.overlap = c.minChunk / 2
	}

	return c
}

// span locates one segment in the flattened document text.
type span struct {
	start, end int
	typ        domain.ContentType
}

// Chunk splits the document into overlapping chunks. Every chunk's
// length lies within [minChunk, chunkSize] except the final chunk,
// which may be shorter. Consecutive chunks share exactly the overlap
// length. A document with no extractable text fails with
// domain.ErrMalformedDocument.
func (c *Chunker) Chunk(doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil || !doc.HasText() {
		source := "<nil>"
		if doc != nil {
			source = doc.SourceFile
		}
		return nil, fmt.Errorf("%w: no extractable text segments in %s", domain.ErrMalformedDocument, source)
	}

	text, spans := flatten(doc)
	n := len(text)

	var chunks []domain.Chunk
	start := 0
	position := 0

	for start < n {
		var end int
		if n-start <= c.chunkSize {
			end = n
		} else {
			end = c.cut(text, spans, start)
		}

		chunk := domain.Chunk{
			ID:          domain.ChunkID(doc.ID, start),
			DocumentID:  doc.ID,
			Text:        string(text[start:end]),
			Chapter:     doc.Chapter,
			Subject:     doc.Subject,
			ContentType: dominantType(spans, start, end),
			StartOffset: start,
			EndOffset:   end,
			Position:    position,
		}
		chunk.TokenEstimate = domain.EstimateTokens(chunk.Text)
		chunks = append(chunks, chunk)
		position++

		if end == n {
			break
		}
		start = end - c.overlap
	}

	return chunks, nil
}

// cut chooses the end offset for a chunk beginning at start.
// Preference order: the last sentence boundary in range that does not
// fall inside an atomic (activity/question) unit, then the last
// sentence boundary in range, then a hard cut at the maximum length.
func (c *Chunker) cut(text []rune, spans []span, start int) int {
	lo := start + c.minChunk
	hi := start + c.chunkSize

	fallback := 0
	for end := hi; end >= lo; end-- {
		if !isTerminator(text[end-1]) {
			continue
		}
		if !insideAtomic(spans, end) {
			return end
		}
		if fallback == 0 {
			fallback = end
		}
	}
	if fallback != 0 {
		return fallback
	}
	return hi
}

// flatten joins segment texts and records each segment's span in the
// combined text.
func flatten(doc *domain.Document) ([]rune, []span) {
	var text []rune
	var spans []span

	for _, seg := range doc.Segments {
		if seg.Text == "" {
			continue
		}
		if len(text) > 0 {
			text = append(text, []rune(segmentSeparator)...)
		}
		runes := []rune(seg.Text)
		spans = append(spans, span{
			start: len(text),
			end:   len(text) + len(runes),
			typ:   seg.Type,
		})
		text = append(text, runes...)
	}

	return text, spans
}

// insideAtomic reports whether a cut at offset falls strictly inside
// an activity or question unit.
func insideAtomic(spans []span, offset int) bool {
	for _, sp := range spans {
		if sp.typ.Atomic() && sp.start < offset && offset < sp.end {
			return true
		}
	}
	return false
}

// dominantType returns the content type covering the largest share of
// the chunk. Earlier segments win ties.
func dominantType(spans []span, start, end int) domain.ContentType {
	best := domain.ContentBody
	bestCovered := 0

	for _, sp := range spans {
		lo, hi := sp.start, sp.end
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		if covered := hi - lo; covered > bestCovered {
			bestCovered = covered
			best = sp.typ
		}
	}

	return best
}

// isTerminator reports whether a rune ends a sentence or paragraph.
func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}
