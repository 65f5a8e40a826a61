package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuery indicates a query the engine refuses to run:
	// blank text or a non-positive result limit.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidArguments indicates a tool invocation whose arguments
	// failed schema validation. Rejected at the boundary, never retried.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrMalformedSource indicates a document that could not be decoded
	// as text during ingestion.
	ErrMalformedSource = errors.New("malformed source")

	// ErrEncodingUnavailable indicates the embedding backend could not
	// be reached or loaded. Fatal at startup, retryable mid-session.
	ErrEncodingUnavailable = errors.New("encoding unavailable")

	// ErrSearchTimeout indicates the index search exceeded its bound.
	// Reported to the caller, not retried automatically.
	ErrSearchTimeout = errors.New("search timeout")

	// ErrIndexInconsistent indicates the index was built with a
	// different embedding model or dimension than the active encoder.
	ErrIndexInconsistent = errors.New("index inconsistent with encoder")
)
