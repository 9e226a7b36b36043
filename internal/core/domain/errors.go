package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown normaliser or provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline errors.

	// ErrConfigMissing indicates a required credential or setting is absent.
	// Fatal at startup.
	ErrConfigMissing = errors.New("configuration missing")

	// ErrIndexNotFound indicates the vector index has never been built.
	// Fatal for the serving path; recoverable by rerunning ingestion.
	ErrIndexNotFound = errors.New("vector index not found")

	// ErrServiceUnavailable indicates an embedding or language-model service
	// could not be reached or failed. Retryable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrParseFailure indicates structured model output failed validation.
	// The affected item is skipped.
	ErrParseFailure = errors.New("structured output parse failure")

	// ErrValidationReject indicates an item failed audit criteria.
	// Expected and counted, not a fault.
	ErrValidationReject = errors.New("validation rejected")
)
