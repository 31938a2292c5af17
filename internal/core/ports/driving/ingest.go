package driving

import (
	"context"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

// IngestService drives the ingestion path:
// document -> chunks -> embeddings -> vector index.
type IngestService interface {
	// IngestFile ingests one source file. Re-ingesting the same file
	// supersedes the prior document and its vectors.
	IngestFile(ctx context.Context, path string) (*domain.IngestReport, error)

	// IngestDir ingests every source file in a directory. Failures are
	// isolated per file and reported in the corresponding report;
	// the returned error covers directory-level failures only.
	IngestDir(ctx context.Context, dir string) ([]domain.IngestReport, error)
}
