package mcp

import (
	"github.com/docdex-io/docdex/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP
// server. This provides a single injection point.
type Ports struct {
	// Search answers queries against the indexed corpus.
	Search driving.SearchService

	// Source exposes corpus introspection for the resource surfaces.
	Source driving.SourceService

	// DefaultLimit is used when a tool call omits the limit (default 5).
	DefaultLimit int

	// DefaultMinScore is applied when a tool call omits min_score.
	// Zero disables the similarity floor.
	DefaultMinScore float64
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Source == nil {
		return ErrMissingSourceService
	}
	return nil
}
