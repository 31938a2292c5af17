package chunker

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

func testDocument(segments ...domain.Segment) *domain.Document {
	return &domain.Document{
		ID:         domain.DocumentID("data/chapter_01.json"),
		SourceFile: "data/chapter_01.json",
		Subject:    "Science",
		Chapter:    "Chapter 1",
		Segments:   segments,
	}
}

func longBody() domain.Segment {
	sentence := "Evaporation turns liquid water into vapor when heat is applied. "
	return domain.Segment{
		Text: strings.TrimSpace(strings.Repeat(sentence, 30)),
		Type: domain.ContentBody,
	}
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.minChunk != DefaultMinChunk {
			t.Errorf("expected minChunk %d, got %d", DefaultMinChunk, c.minChunk)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, c.overlap)
		}
	})

	t.Run("custom policy", func(t *testing.T) {
		c := New(WithChunkSize(500), WithMinChunk(100), WithOverlap(50))
		if c.chunkSize != 500 || c.minChunk != 100 || c.overlap != 50 {
			t.Errorf("options not applied: %+v", c)
		}
	})

	t.Run("overlap reduced below minimum", func(t *testing.T) {
		c := New(WithChunkSize(200), WithMinChunk(100), WithOverlap(150))
		if c.overlap >= c.minChunk {
			t.Errorf("overlap %d should be below minChunk %d", c.overlap, c.minChunk)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.chunkSize != DefaultChunkSize || c.overlap != DefaultOverlap {
			t.Errorf("expected defaults, got %+v", c)
		}
	})
}

func TestChunk_MalformedDocument(t *testing.T) {
	c := New()

	doc := testDocument(domain.Segment{Text: "", Type: domain.ContentBody})
	_, err := c.Chunk(doc)
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}

	_, err = c.Chunk(testDocument())
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument for no segments, got %v", err)
	}
}

func TestChunk_ShortDocument(t *testing.T) {
	c := New(WithChunkSize(200), WithMinChunk(80), WithOverlap(40))
	doc := testDocument(domain.Segment{Text: "A single short paragraph.", Type: domain.ContentBody})

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "A single short paragraph." {
		t.Errorf("unexpected chunk text %q", chunks[0].Text)
	}
	if chunks[0].StartOffset != 0 || chunks[0].Position != 0 {
		t.Errorf("unexpected offsets: %+v", chunks[0])
	}
}

func TestChunk_Determinism(t *testing.T) {
	c := New(WithChunkSize(200), WithMinChunk(80), WithOverlap(40))
	doc := testDocument(longBody())

	first, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("re-chunking identical input produced different chunks")
	}
	if len(first) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(first))
	}
}

func TestChunk_BoundsInvariant(t *testing.T) {
	const (
		size    = 200
		minimum = 80
		overlap = 40
	)
	c := New(WithChunkSize(size), WithMinChunk(minimum), WithOverlap(overlap))

	chunks, err := c.Chunk(testDocument(longBody()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, chunk := range chunks {
		length := len([]rune(chunk.Text))
		if length > size {
			t.Errorf("chunk %d exceeds max size: %d > %d", i, length, size)
		}
		if i < len(chunks)-1 && length < minimum {
			t.Errorf("non-final chunk %d below min size: %d < %d", i, length, minimum)
		}
	}
}

func TestChunk_OverlapInvariant(t *testing.T) {
	const overlap = 40
	c := New(WithChunkSize(200), WithMinChunk(80), WithOverlap(overlap))

	chunks, err := c.Chunk(testDocument(longBody()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 0; i < len(chunks)-1; i++ {
		prev, next := chunks[i], chunks[i+1]
		if next.StartOffset != prev.EndOffset-overlap {
			t.Errorf("chunk %d start %d, want %d", i+1, next.StartOffset, prev.EndOffset-overlap)
		}

		prevRunes := []rune(prev.Text)
		nextRunes := []rune(next.Text)
		tail := string(prevRunes[len(prevRunes)-overlap:])
		head := string(nextRunes[:overlap])
		if tail != head {
			t.Errorf("chunk %d/%d overlap mismatch: %q vs %q", i, i+1, tail, head)
		}
	}
}

func TestChunk_MetadataPropagation(t *testing.T) {
	c := New(WithChunkSize(200), WithMinChunk(80), WithOverlap(40))
	doc := testDocument(longBody())

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, chunk := range chunks {
		if chunk.Chapter != "Chapter 1" || chunk.Subject != "Science" {
			t.Errorf("chunk %d lost metadata: %+v", i, chunk)
		}
		if chunk.DocumentID != doc.ID {
			t.Errorf("chunk %d wrong document reference", i)
		}
		if chunk.ID != domain.ChunkID(doc.ID, chunk.StartOffset) {
			t.Errorf("chunk %d identifier not derived from offset", i)
		}
		if chunk.TokenEstimate <= 0 {
			t.Errorf("chunk %d missing token estimate", i)
		}
	}
}

func TestChunk_QuestionUnitNotSplit(t *testing.T) {
	body := "Water evaporates from the surface of lakes."
	question := "Question: What is evaporation? Explain how liquid turns into vapor during the day."

	c := New(WithChunkSize(100), WithMinChunk(40), WithOverlap(10))
	doc := testDocument(
		domain.Segment{Text: body, Type: domain.ContentBody},
		domain.Segment{Text: question, Type: domain.ContentQuestion},
	)

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A sentence boundary exists before the question block, so no cut
	// may land inside it.
	questionStart := len([]rune(body)) + len([]rune(segmentSeparator))
	questionEnd := questionStart + len([]rune(question))
	for i, chunk := range chunks {
		if chunk.EndOffset > questionStart && chunk.EndOffset < questionEnd {
			t.Errorf("chunk %d cut inside question unit at offset %d", i, chunk.EndOffset)
		}
	}

	var intact bool
	for _, chunk := range chunks {
		if strings.Contains(chunk.Text, question) {
			intact = true
		}
	}
	if !intact {
		t.Error("no chunk contains the complete question unit")
	}
}

func TestChunk_DominantContentType(t *testing.T) {
	c := New(WithChunkSize(400), WithMinChunk(100), WithOverlap(50))
	doc := testDocument(
		domain.Segment{Text: "Try this at home: observe a puddle drying over a day.", Type: domain.ContentActivity},
	)

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0].ContentType != domain.ContentActivity {
		t.Errorf("expected activity content type, got %q", chunks[0].ContentType)
	}
}
