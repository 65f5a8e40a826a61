package mcp

import (
	"context"

	"github.com/docdex-io/docdex/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response *domain.SearchResponse
	err      error

	calls    int
	gotQuery string
	gotOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.calls++
	m.gotQuery = query
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.SearchResponse{}, nil
	}
	return m.response, nil
}

// mockSourceService is a mock implementation of driving.SourceService.
type mockSourceService struct {
	sources   []domain.Source
	source    *domain.Source
	documents []domain.Document
	content   string
	err       error
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	return m.sources, m.err
}

func (m *mockSourceService) Get(_ context.Context, _ string) (*domain.Source, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.source == nil {
		return nil, domain.ErrNotFound
	}
	return m.source, nil
}

func (m *mockSourceService) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockSourceService) DocumentContent(_ context.Context, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.content, nil
}
