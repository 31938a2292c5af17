package driven

import (
	"context"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

// DocumentLoader reads one preprocessed source file into the document
// model. The preprocessing collaborator (PDF extraction and cleaning)
// is external; the loader only parses its structured output.
type DocumentLoader interface {
	// Load parses the file at path. A source with no extractable text
	// segments fails with an error wrapping domain.ErrMalformedDocument.
	Load(ctx context.Context, path string) (*domain.Document, error)
}
