package driven

import (
	"context"

	"github.com/docdex-io/docdex/internal/core/domain"
)

// IndexEntry pairs a passage with its embedding for storage.
type IndexEntry struct {
	// Passage carries the metadata stored alongside the vector.
	Passage domain.Passage

	// SourceTitle is denormalised into the payload for attribution.
	SourceTitle string

	// Vector is the passage embedding.
	Vector []float32

	// Model is the encoder model the vector was produced with.
	Model string
}

// VectorHit is a similarity search result hydrated from the index payload.
type VectorHit struct {
	// Passage is reconstructed from the stored payload.
	Passage domain.Passage

	// SourceTitle is the attribution title stored with the passage.
	SourceTitle string

	// Score is the cosine similarity score (0-1).
	Score float64

	// Model is the encoder model recorded for the stored vector.
	Model string
}

// SearchFilter restricts a similarity search. Filters are applied by the
// index before candidate evaluation where the backend supports it.
type SearchFilter struct {
	// SourceIDs restricts hits to the given sources.
	SourceIDs []string

	// Section restricts hits to passages under the given heading.
	Section string
}

// VectorIndex stores passage vectors and serves approximate
// nearest-neighbour search over them. Writes happen only during
// ingestion; the serving path is read-only.
type VectorIndex interface {
	// EnsureCollection creates the collection if missing and verifies an
	// existing one matches the given vector size. A size mismatch is
	// domain.ErrIndexInconsistent.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert writes a batch of entries, replacing any with the same ID.
	Upsert(ctx context.Context, entries []IndexEntry) error

	// DeleteBySource removes every entry belonging to a source, so a
	// re-ingest replaces the source wholesale.
	DeleteBySource(ctx context.Context, sourceID string) error

	// Search returns the k nearest entries to the query vector, best
	// first. It honours the context deadline; exceeding it is
	// domain.ErrSearchTimeout, never a partial result.
	Search(ctx context.Context, vector []float32, k int, filter SearchFilter) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}
