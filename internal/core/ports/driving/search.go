package driving

import (
	"context"

	"github.com/docdex-io/docdex/internal/core/domain"
)

// SearchService answers natural-language queries against the indexed
// corpus. It is strictly read-only.
type SearchService interface {
	// Search embeds the query, searches the vector index and returns
	// ranked, deduplicated, attributed results.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}
