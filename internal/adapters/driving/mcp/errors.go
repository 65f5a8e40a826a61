// Package mcp provides the MCP (Model Context Protocol) server adapter
// for docdex. It exposes the indexed documentation corpus to LLM
// clients as tools and resources.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingSourceService is returned when the source service is not provided.
var ErrMissingSourceService = errors.New("mcp: source service is required")
