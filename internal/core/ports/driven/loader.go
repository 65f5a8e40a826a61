package driven

import (
	"context"

	"github.com/docdex-io/docdex/internal/core/domain"
)

// CorpusLoader reads a documentation corpus from its origin and yields
// raw text units with source identity. Loading is a pure read; the
// loader never mutates the corpus.
type CorpusLoader interface {
	// Describe returns the source identity for the corpus, without
	// loading content.
	Describe(ctx context.Context) (domain.Source, error)

	// Load reads every text unit of the corpus. Undecodable files are
	// domain.ErrMalformedSource.
	Load(ctx context.Context) ([]domain.Document, error)
}
