package driving

import (
	"context"

	"github.com/docdex-io/docdex/internal/core/domain"
)

// SourceService exposes corpus introspection: which sources are
// indexed and what documents they contain.
type SourceService interface {
	// List returns all ingested sources.
	List(ctx context.Context) ([]domain.Source, error)

	// Get retrieves a source by ID.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// ListDocuments returns the documents of one source, without content.
	ListDocuments(ctx context.Context, sourceID string) ([]domain.Document, error)

	// DocumentContent returns the full text of a document.
	DocumentContent(ctx context.Context, documentID string) (string, error)
}
