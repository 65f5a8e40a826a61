package driven

import (
	"context"
	"time"

	"github.com/docdex-io/docdex/internal/core/domain"
)

// IngestRun records one completed ingestion pass, including the encoder
// model it used. The latest run's model is checked against the active
// encoder at serve startup.
type IngestRun struct {
	ID         string
	SourceID   string
	Model      string
	Dimensions int
	Passages   int
	FinishedAt time.Time
}

// SourceStore persists source metadata in the catalog.
type SourceStore interface {
	// Save stores or updates a source.
	Save(ctx context.Context, source domain.Source) error

	// Get retrieves a source by ID. Missing sources are domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// List returns all ingested sources.
	List(ctx context.Context) ([]domain.Source, error)

	// Delete removes a source and its documents.
	Delete(ctx context.Context, id string) error
}

// DocumentStore persists document text in the catalog for introspection.
// Search hits hydrate from the vector index payload; this store backs
// the corpus-listing and document-content surfaces only.
type DocumentStore interface {
	// SaveDocuments stores or updates a batch of documents.
	SaveDocuments(ctx context.Context, docs []domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListBySource returns the documents of one source, without content.
	ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error)

	// DeleteBySource removes all documents of a source.
	DeleteBySource(ctx context.Context, sourceID string) error
}

// RunStore persists ingestion runs.
type RunStore interface {
	// SaveRun records a completed ingestion run.
	SaveRun(ctx context.Context, run IngestRun) error

	// LatestRun returns the most recent run, or domain.ErrNotFound when
	// the catalog has never been ingested into.
	LatestRun(ctx context.Context) (*IngestRun, error)
}
