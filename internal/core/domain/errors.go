package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document, chunk or session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidStatus indicates a stored status string is not recognised.
	ErrInvalidStatus = errors.New("invalid processing status")

	// ErrInvalidTransition indicates a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrProcessingInProgress indicates the document already has a run in flight.
	ErrProcessingInProgress = errors.New("processing in progress")

	// Ingestion Errors.

	// ErrIngestionFailure indicates the provider or store failed while processing.
	// The document moves to failed and may be retried.
	ErrIngestionFailure = errors.New("ingestion failed")

	// ErrNoChunks indicates the provider returned nothing for a non-empty source.
	ErrNoChunks = errors.New("provider returned no chunks")

	// ErrUnsupportedType indicates no extractor handles the source format.
	ErrUnsupportedType = errors.New("unsupported type")

	// Retrieval Errors.

	// ErrDimensionMismatch indicates embeddings of different sizes were mixed.
	// This is a configuration error and is never degraded silently.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyIndex indicates there are no chunks to search.
	// The assembler treats it as "no retrieval context available".
	ErrEmptyIndex = errors.New("empty index")

	// ErrSearchTimeout indicates retrieval did not finish in time.
	ErrSearchTimeout = errors.New("search timed out")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the embedding API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// IsRetrievalDegradation reports whether err from the retrieval step should
// degrade to explicit-only context instead of aborting assembly.
func IsRetrievalDegradation(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrDimensionMismatch)
}
