package services

import (
	"context"
	"fmt"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
	"github.com/docdex-io/docdex/internal/core/ports/driving"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// SourceService exposes read-only corpus introspection from the catalog.
type SourceService struct {
	sources   driven.SourceStore
	documents driven.DocumentStore
}

// NewSourceService creates a new source service.
func NewSourceService(sources driven.SourceStore, documents driven.DocumentStore) *SourceService {
	return &SourceService{
		sources:   sources,
		documents: documents,
	}
}

// List returns all ingested sources.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	sources, err := s.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	source, err := s.sources.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get source %s: %w", id, err)
	}
	return source, nil
}

// ListDocuments returns the documents of one source, without content.
func (s *SourceService) ListDocuments(ctx context.Context, sourceID string) ([]domain.Document, error) {
	docs, err := s.documents.ListBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list documents for %s: %w", sourceID, err)
	}
	return docs, nil
}

// DocumentContent returns the full text of a document.
func (s *SourceService) DocumentContent(ctx context.Context, documentID string) (string, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("get document %s: %w", documentID, err)
	}
	return doc.Content, nil
}
