package driving

import (
	"context"

	"github.com/docdex-io/docdex/internal/core/domain"
)

// IngestService runs the offline ingestion pipeline: load the corpus,
// chunk it into passages, embed them and replace the source's entries
// in the vector index.
type IngestService interface {
	// Ingest runs one full ingestion pass and reports what it did.
	Ingest(ctx context.Context) (*domain.IngestStats, error)
}
