package services

import (
	"fmt"
	"strings"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/logger"
)

// NoContextMarker is emitted instead of an empty string when retrieval
// finds nothing, so the generation step can branch to a degraded but
// valid response instead of hallucinating context.
const NoContextMarker = "No relevant educational content found for this topic."

// DefaultMaxContextLength bounds the assembled context in runes.
const DefaultMaxContextLength = 6000

// AssembleContext merges retrieved chunks into a generation-ready
// context. Chunks are concatenated in rank order, each preceded by an
// attribution header. When the total would exceed maxLength, the
// lowest-ranked chunks are dropped wholesale; a chunk is never
// truncated mid-text.
func AssembleContext(result domain.RetrievalResult, maxLength int) domain.Context {
	if maxLength <= 0 {
		maxLength = DefaultMaxContextLength
	}

	if result.Empty() {
		return domain.Context{Text: NoContextMarker, Empty: true}
	}

	var b strings.Builder
	var ids []string
	total := 0

	for _, hit := range result.Hits {
		block := formatBlock(hit)
		length := len([]rune(block))
		if total+length > maxLength {
			logger.Debug("Context full: dropping chunk %s and below", hit.Chunk.ID)
			break
		}
		b.WriteString(block)
		ids = append(ids, hit.Chunk.ID)
		total += length
	}

	if len(ids) == 0 {
		// Even the top chunk exceeds the budget; drop it wholesale
		// rather than truncate it mid-chunk.
		return domain.Context{Text: NoContextMarker, Empty: true}
	}

	return domain.Context{Text: b.String(), ChunkIDs: ids}
}

// formatBlock renders one chunk with its attribution header so the
// generation step can attribute content to chapter and content type.
func formatBlock(hit domain.ScoredChunk) string {
	chapter := hit.Chunk.Chapter
	if chapter == "" {
		chapter = "Unknown chapter"
	}
	return fmt.Sprintf("[%s | %s]\n%s\n\n", chapter, hit.Chunk.ContentType, hit.Chunk.Text)
}
