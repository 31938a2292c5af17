package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eduplan-labs/eduplan-cli/internal/chunker"
	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driving"
	"github.com/eduplan-labs/eduplan-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultIngestConcurrency bounds parallel document ingestion.
// Documents are independent, so ingestion is parallel at the
// document level.
const DefaultIngestConcurrency = 4

// IngestService drives the ingestion path:
// load -> chunk -> embed -> upsert.
type IngestService struct {
	loader      driven.DocumentLoader
	chunker     *chunker.Chunker
	embedder    driven.Embedder
	indexes     driven.IndexProvider
	docs        driven.DocumentStore
	concurrency int
}

// NewIngestService creates an ingest service.
func NewIngestService(
	loader driven.DocumentLoader,
	chk *chunker.Chunker,
	embedder driven.Embedder,
	indexes driven.IndexProvider,
	docs driven.DocumentStore,
) *IngestService {
	return &IngestService{
		loader:      loader,
		chunker:     chk,
		embedder:    embedder,
		indexes:     indexes,
		docs:        docs,
		concurrency: DefaultIngestConcurrency,
	}
}

// SetConcurrency overrides the document-level parallelism bound.
func (s *IngestService) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// IngestFile ingests one source file. Re-ingesting the same file
// supersedes the prior document and replaces its vectors by chunk ID.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*domain.IngestReport, error) {
	report := &domain.IngestReport{
		RunID: uuid.New().String(),
		Path:  path,
	}
	if err := s.ingest(ctx, path, report); err != nil {
		report.Err = err
		return report, err
	}
	return report, nil
}

// IngestDir ingests every JSON source file in a directory. Failures
// are isolated per file; one malformed document never aborts the rest
// of the batch.
func (s *IngestService) IngestDir(ctx context.Context, dir string) ([]domain.IngestReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	runID := uuid.New().String()
	reports := make([]domain.IngestReport, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var mu sync.Mutex
	for i, path := range paths {
		g.Go(func() error {
			report := domain.IngestReport{RunID: runID, Path: path}
			if err := s.ingest(gctx, path, &report); err != nil {
				logger.Warn("Ingest failed for %s: %v", path, err)
				report.Err = err
			}
			mu.Lock()
			reports[i] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}

	return reports, nil
}

// ingest runs the full pipeline for one file, filling the report.
func (s *IngestService) ingest(ctx context.Context, path string, report *domain.IngestReport) error {
	logger.Section("Ingest " + path)

	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return err
	}
	report.DocumentID = doc.ID

	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return err
	}
	logger.Debug("Chunked %s into %d chunks", path, len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	batch, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", doc.ID, err)
	}
	if len(batch.Vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(batch.Vectors), len(chunks))
	}
	logger.Debug("Embedded %d chunks with %s (%d dims)", len(chunks), batch.Model.Name, batch.Model.Dimensions)

	// The collection is addressed by the model that actually produced
	// the vectors, so a fallback run lands in the fallback's collection.
	index, err := s.indexes.Collection(ctx, batch.Model)
	if err != nil {
		return fmt.Errorf("open collection: %w", err)
	}

	records := make([]domain.EmbeddingRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = domain.EmbeddingRecord{
			ChunkID:     chunk.ID,
			DocumentID:  chunk.DocumentID,
			Vector:      batch.Vectors[i],
			Model:       batch.Model,
			Chapter:     chunk.Chapter,
			Subject:     chunk.Subject,
			ContentType: chunk.ContentType,
			Text:        chunk.Text,
		}
	}

	// Metadata first, vectors second: a failed upsert leaves chunks
	// retrievable by ID but never half-written vectors.
	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if err := s.docs.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	if err := index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}

	report.Chunks = len(chunks)
	report.Model = batch.Model
	logger.Info("Ingested %s: %d chunks", path, len(chunks))
	return nil
}
