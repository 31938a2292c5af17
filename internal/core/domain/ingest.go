package domain

// IngestReport summarises the outcome of ingesting one source file.
// Failures are reported per item; one malformed document never aborts
// the rest of a batch.
type IngestReport struct {
	// RunID groups all reports from one ingest invocation.
	RunID string

	// Path is the source file.
	Path string

	// DocumentID is the ingested document, when successful.
	DocumentID string

	// Chunks is the number of chunks indexed.
	Chunks int

	// Model is the embedding model that produced the vectors.
	Model ModelInfo

	// Err holds the failure for this file, nil on success.
	Err error
}
