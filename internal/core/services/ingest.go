package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/docdex-io/docdex/internal/chunker"
	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
	"github.com/docdex-io/docdex/internal/core/ports/driving"
	"github.com/docdex-io/docdex/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// embedBatchSize is how many passages go to the encoder per request.
const embedBatchSize = 16

// upsertBatchSize is how many entries go to the index per write.
const upsertBatchSize = 64

// IngestService runs the offline ingestion pipeline:
// load -> chunk -> embed -> replace the source's index entries.
// It owns the index exclusively for the duration of a run.
type IngestService struct {
	loader    driven.CorpusLoader
	chunker   *chunker.Chunker
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	sources   driven.SourceStore
	documents driven.DocumentStore
	runs      driven.RunStore
	versions  driven.VersionResolver

	workers int
	limiter *rate.Limiter
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithVersionResolver sets the resolver used to stamp the source
// version when the corpus config does not pin one.
func WithVersionResolver(r driven.VersionResolver) IngestOption {
	return func(s *IngestService) { s.versions = r }
}

// WithWorkers bounds the number of concurrent embedding requests.
func WithWorkers(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRateLimit caps embedding requests per second against the backend.
func WithRateLimit(perSecond float64) IngestOption {
	return func(s *IngestService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewIngestService creates the ingestion pipeline.
func NewIngestService(
	loader driven.CorpusLoader,
	ch *chunker.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	sources driven.SourceStore,
	documents driven.DocumentStore,
	runs driven.RunStore,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		loader:    loader,
		chunker:   ch,
		embedder:  embedder,
		index:     index,
		sources:   sources,
		documents: documents,
		runs:      runs,
		workers:   4,
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest runs one full ingestion pass. An unchanged corpus is detected
// via content hashes and skipped entirely, so re-running against the
// same corpus leaves the index bit-for-bit identical.
func (s *IngestService) Ingest(ctx context.Context) (*domain.IngestStats, error) {
	started := time.Now()
	logger.Section("Ingestion")

	source, err := s.loader.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe corpus: %w", err)
	}
	logger.Info("Source: %s (%s)", source.ID, source.Origin)

	if source.Version == "" && s.versions != nil {
		source.Version = s.versions.Resolve(ctx, source.Origin)
		logger.Debug("Resolved version: %s", source.Version)
	}

	docs, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	logger.Info("Loaded %d documents", len(docs))

	stats := &domain.IngestStats{
		Documents: len(docs),
		Model:     s.embedder.ModelName(),
	}

	if unchanged, err := s.isUnchanged(ctx, source.ID, docs); err != nil {
		return nil, err
	} else if unchanged {
		logger.Info("Corpus unchanged since last run, skipping")
		stats.Skipped = len(docs)
		stats.Duration = time.Since(started)
		return stats, nil
	}

	if err := s.index.EnsureCollection(ctx, s.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	var passages []domain.Passage
	for _, doc := range docs {
		split, err := s.chunker.Split(doc)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.Path, err)
		}
		passages = append(passages, split...)
	}
	stats.Passages = len(passages)
	logger.Info("Chunked into %d passages", len(passages))

	vectors, err := s.embedAll(ctx, passages)
	if err != nil {
		return nil, err
	}

	if err := s.replaceEntries(ctx, source, passages, vectors); err != nil {
		return nil, err
	}

	if err := s.updateCatalog(ctx, source, docs, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(started)
	logger.Info("Ingested %d passages in %s", stats.Passages, stats.Duration)

	return stats, nil
}

// isUnchanged compares the loaded documents against the catalog by
// path and content hash.
func (s *IngestService) isUnchanged(ctx context.Context, sourceID string, docs []domain.Document) (bool, error) {
	if s.documents == nil {
		return false, nil
	}

	existing, err := s.documents.ListBySource(ctx, sourceID)
	if err != nil {
		return false, fmt.Errorf("list catalog documents: %w", err)
	}
	if len(existing) == 0 || len(existing) != len(docs) {
		return false, nil
	}

	hashes := make(map[string]uint64, len(existing))
	for _, doc := range existing {
		hashes[doc.Path] = doc.ContentHash
	}
	for _, doc := range docs {
		if hashes[doc.Path] != doc.ContentHash {
			return false, nil
		}
	}
	return true, nil
}

// embedAll encodes all passages with a bounded worker pool and the
// configured rate limit.
func (s *IngestService) embedAll(ctx context.Context, passages []domain.Passage) ([][]float32, error) {
	vectors := make([][]float32, len(passages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		start, end := start, end

		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}

			texts := make([]string, end-start)
			for i, p := range passages[start:end] {
				texts[i] = p.Content
			}

			batch, err := s.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed passages %d-%d: %w", start, end, err)
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// replaceEntries swaps the source's index entries wholesale: delete by
// source, then upsert the new batch. Passage IDs are deterministic, so
// unchanged passages land on their previous IDs.
func (s *IngestService) replaceEntries(
	ctx context.Context, source domain.Source, passages []domain.Passage, vectors [][]float32,
) error {
	if err := s.index.DeleteBySource(ctx, source.ID); err != nil {
		return fmt.Errorf("clear source entries: %w", err)
	}

	model := s.embedder.ModelName()
	entries := make([]driven.IndexEntry, len(passages))
	for i := range passages {
		entries[i] = driven.IndexEntry{
			Passage:     passages[i],
			SourceTitle: source.DisplayTitle(),
			Vector:      vectors[i],
			Model:       model,
		}
	}

	for start := 0; start < len(entries); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.index.Upsert(ctx, entries[start:end]); err != nil {
			return fmt.Errorf("upsert entries %d-%d: %w", start, end, err)
		}
	}

	return nil
}

// updateCatalog records the source, its documents and the run.
func (s *IngestService) updateCatalog(
	ctx context.Context, source domain.Source, docs []domain.Document, stats *domain.IngestStats,
) error {
	if s.sources != nil {
		if err := s.sources.Save(ctx, source); err != nil {
			return fmt.Errorf("save source: %w", err)
		}
	}

	if s.documents != nil {
		if err := s.documents.DeleteBySource(ctx, source.ID); err != nil {
			return fmt.Errorf("clear catalog documents: %w", err)
		}
		if err := s.documents.SaveDocuments(ctx, docs); err != nil {
			return fmt.Errorf("save catalog documents: %w", err)
		}
	}

	if s.runs != nil {
		run := driven.IngestRun{
			ID:         uuid.New().String(),
			SourceID:   source.ID,
			Model:      s.embedder.ModelName(),
			Dimensions: s.embedder.Dimensions(),
			Passages:   stats.Passages,
			FinishedAt: time.Now().UTC(),
		}
		if err := s.runs.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("save ingest run: %w", err)
		}
	}

	return nil
}
