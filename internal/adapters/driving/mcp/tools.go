package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docdex-io/docdex/internal/core/domain"
)

// defaultLimit is used when neither the tool call nor the ports
// configure a result limit.
const defaultLimit = 5

// SearchInput is the input schema for the search_docs tool.
type SearchInput struct {
	Query    string   `json:"query" jsonschema:"the natural-language question to search the documentation for"`
	Sources  []string `json:"sources,omitempty" jsonschema:"restrict results to these source IDs"`
	Section  string   `json:"section,omitempty" jsonschema:"restrict results to passages under this heading"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	MinScore float64  `json:"min_score,omitempty" jsonschema:"minimum similarity score between 0 and 1"`
}

// SearchOutput is the output schema for the search_docs tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`

	// BelowMinScore distinguishes "candidates existed but none scored
	// above min_score" from an empty corpus.
	BelowMinScore bool `json:"below_min_score,omitempty"`

	// ExcludedStale counts index entries skipped because they were
	// embedded with a different model than the active encoder.
	ExcludedStale int `json:"excluded_stale,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	PassageID  string  `json:"passage_id"`
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Section    string  `json:"section,omitempty"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
	Context    string  `json:"context,omitempty"`
}

// ListSourcesInput is the input schema for the list_sources tool.
type ListSourcesInput struct{}

// ListSourcesOutput is the output schema for the list_sources tool.
type ListSourcesOutput struct {
	Sources []SourceOutput `json:"sources"`
	Count   int            `json:"count"`
}

// SourceOutput represents one indexed documentation source.
type SourceOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Version  string `json:"version,omitempty"`
	Language string `json:"language,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_docs",
		Description: "Search the indexed documentation and return the most relevant passages with source attribution",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sources",
		Description: "List the documentation sources available to search_docs",
	}, s.handleListSources)
}

// handleSearch handles the search_docs tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Limit < 0 {
		return nil, SearchOutput{}, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidArguments)
	}
	if input.MinScore < 0 || input.MinScore > 1 {
		return nil, SearchOutput{}, fmt.Errorf("%w: min_score must be between 0 and 1", domain.ErrInvalidArguments)
	}

	limit := input.Limit
	if limit == 0 {
		limit = s.ports.DefaultLimit
	}
	if limit == 0 {
		limit = defaultLimit
	}
	minScore := input.MinScore
	if minScore == 0 {
		minScore = s.ports.DefaultMinScore
	}

	opts := domain.SearchOptions{
		Limit:     limit,
		SourceIDs: input.Sources,
		Section:   input.Section,
		MinScore:  minScore,
	}
	resp, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, toolError(err)
	}

	output := SearchOutput{
		Results:       make([]SearchResultOutput, len(resp.Results)),
		Count:         len(resp.Results),
		BelowMinScore: resp.BelowMinScore,
		ExcludedStale: resp.Excluded,
	}

	for i := range resp.Results {
		r := &resp.Results[i]
		output.Results[i] = SearchResultOutput{
			PassageID:  r.Passage.ID,
			DocumentID: r.Passage.DocumentID,
			Source:     r.SourceTitle,
			Section:    r.Passage.SectionPath(),
			Position:   r.Passage.Position,
			Score:      r.Score,
			Content:    r.Passage.Content,
			Context:    r.Context,
		}
	}

	return nil, output, nil
}

// handleListSources handles the list_sources tool invocation.
func (s *Server) handleListSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSourcesInput,
) (*mcp.CallToolResult, ListSourcesOutput, error) {
	sources, err := s.ports.Source.List(ctx)
	if err != nil {
		return nil, ListSourcesOutput{}, toolError(err)
	}

	output := ListSourcesOutput{
		Sources: make([]SourceOutput, len(sources)),
		Count:   len(sources),
	}
	for i, src := range sources {
		output.Sources[i] = SourceOutput{
			ID:       src.ID,
			Name:     src.Name,
			Title:    src.DisplayTitle(),
			Version:  src.Version,
			Language: src.Language,
		}
	}

	return nil, output, nil
}

// toolError maps domain errors onto messages safe to return to a
// remote client. Backend addresses and wrapped causes stay inside.
func toolError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrInvalidArguments):
		return err
	case errors.Is(err, domain.ErrSearchTimeout):
		return errors.New("search timed out, try a narrower query")
	case errors.Is(err, domain.ErrEncodingUnavailable):
		return errors.New("embedding backend unavailable, retry later")
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound
	default:
		return errors.New("internal error")
	}
}
