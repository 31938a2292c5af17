package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedDocument indicates a source document has no extractable
	// text segments. Fatal to that document's ingestion only; other
	// documents in the same batch are unaffected.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrEmbeddingUnavailable indicates both the primary and the fallback
	// embedding models failed. Fatal to the current request.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrInvalidQuery indicates an empty or malformed query.
	// Caller-correctable; no index search is issued.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrGenerationUnavailable indicates the external generation call
	// failed. The caller decides whether to retry the whole request.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrMalformedPlan indicates generation succeeded but the output
	// failed schema validation. Signals a prompt or model issue rather
	// than an infrastructure issue.
	ErrMalformedPlan = errors.New("malformed lesson plan")

	// ErrDimensionMismatch indicates vectors from different embedding
	// models were mixed in one index or comparison. This is a
	// configuration error, not a runtime-recoverable one.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
