package domain

import "errors"

var (
	// ErrMissingIdentifier signals a place record without a place_id.
	ErrMissingIdentifier = errors.New("missing place identifier")
	// ErrInvalidArgument signals a caller error (blank query, k < 1).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrTransientProvider marks a provider failure worth retrying (network, 429, 5xx).
	ErrTransientProvider = errors.New("transient provider error")
	// ErrPermanentProvider marks a provider failure that will not succeed on retry.
	ErrPermanentProvider = errors.New("permanent provider error")
	// ErrEmbeddingUnavailable signals that retries against the embedding provider were exhausted.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrEmbeddingRequest signals a non-retryable embedding failure.
	ErrEmbeddingRequest = errors.New("embedding request rejected")

	// ErrStoreUnavailable signals a vector index failure.
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrPlaceSource signals a place search or details failure.
	ErrPlaceSource = errors.New("place source error")
)
