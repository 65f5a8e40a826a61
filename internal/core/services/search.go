package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
	"github.com/docdex-io/docdex/internal/core/ports/driving"
	"github.com/docdex-io/docdex/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultLimit is the result count used when the caller does not ask
// for one.
const DefaultLimit = 5

// DefaultTimeout bounds a single query path end to end.
const DefaultTimeout = 15 * time.Second

// overfetchFactor is how many extra candidates to request from the
// index to compensate for threshold filtering and deduplication.
const overfetchFactor = 4

// SearchService is the query engine: it embeds the query, searches the
// vector index, and shapes ranked, attributed results.
type SearchService struct {
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	timeout  time.Duration
}

// SearchOption configures the search service.
type SearchOption func(*SearchService)

// WithTimeout sets the default per-query timeout.
func WithTimeout(d time.Duration) SearchOption {
	return func(s *SearchService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSearchService creates the query engine.
func NewSearchService(index driven.VectorIndex, embedder driven.EmbeddingService, opts ...SearchOption) *SearchService {
	s := &SearchService{
		index:    index,
		embedder: embedder,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search answers a query. It validates input, embeds the query text,
// overfetches candidates from the index, drops entries encoded with a
// different model, applies the similarity threshold, collapses adjacent
// passages and truncates to the requested limit.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("blank query text: %w", domain.ErrInvalidQuery)
	}
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", opts.Limit, domain.ErrInvalidQuery)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug("Limit: %d, MinScore: %.2f, Timeout: %s", opts.Limit, opts.MinScore, timeout)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, translateBackendErr("embed query", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	k := opts.Limit * overfetchFactor
	filter := driven.SearchFilter{
		SourceIDs: opts.SourceIDs,
		Section:   opts.Section,
	}

	hits, err := s.index.Search(ctx, vector, k, filter)
	if err != nil {
		logger.Warn("Index search failed: %v", err)
		return nil, translateBackendErr("index search", err)
	}
	logger.Debug("Raw candidates: %d", len(hits))

	resp := &domain.SearchResponse{Results: []domain.SearchResult{}}

	hits, resp.Excluded = s.dropMismatched(hits)
	if resp.Excluded > 0 {
		logger.Warn("Excluded %d entries with stale embedding model", resp.Excluded)
	}

	hadCandidates := len(hits) > 0
	if opts.MinScore > 0 {
		hits = aboveThreshold(hits, opts.MinScore)
		if hadCandidates && len(hits) == 0 {
			logger.Info("All candidates below min score %.2f", opts.MinScore)
			resp.BelowMinScore = true
			return resp, nil
		}
	}

	results := collapseAdjacent(hits)
	sortResults(results)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	resp.Results = results
	logger.Info("Final results: %d", len(results))

	return resp, nil
}

// dropMismatched removes hits whose stored vector was produced by a
// different model than the active encoder. Stale entries are excluded
// from results rather than silently returned.
func (s *SearchService) dropMismatched(hits []driven.VectorHit) ([]driven.VectorHit, int) {
	model := s.embedder.ModelName()
	kept := hits[:0]
	excluded := 0

	for _, hit := range hits {
		if hit.Model != "" && hit.Model != model {
			excluded++
			continue
		}
		kept = append(kept, hit)
	}

	return kept, excluded
}

// aboveThreshold keeps hits scoring at or above the minimum.
func aboveThreshold(hits []driven.VectorHit, minScore float64) []driven.VectorHit {
	kept := hits[:0]
	for _, hit := range hits {
		if hit.Score >= minScore {
			kept = append(kept, hit)
		}
	}
	return kept
}

// collapseAdjacent deduplicates near-duplicate hits: passages of the
// same document at adjacent positions collapse into the highest-scoring
// one, which keeps the runner-up's text as supplementary context.
func collapseAdjacent(hits []driven.VectorHit) []domain.SearchResult {
	ordered := make([]driven.VectorHit, len(hits))
	copy(ordered, hits)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].Passage.ID < ordered[j].Passage.ID
	})

	kept := make([]domain.SearchResult, 0, len(ordered))
	positions := make(map[string][]int)

	for _, hit := range ordered {
		docID := hit.Passage.DocumentID
		merged := false

		for _, pos := range positions[docID] {
			if abs(pos-hit.Passage.Position) <= 1 {
				// Adjacent to an already-kept passage: keep its text
				// as context on the winner instead of a second result.
				for i := range kept {
					if kept[i].Passage.DocumentID == docID && kept[i].Passage.Position == pos && kept[i].Context == "" {
						kept[i].Context = hit.Passage.Content
						break
					}
				}
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		positions[docID] = append(positions[docID], hit.Passage.Position)
		kept = append(kept, domain.SearchResult{
			Passage:     hit.Passage,
			Score:       hit.Score,
			SourceTitle: hit.SourceTitle,
		})
	}

	return kept
}

// sortResults orders by descending score, ties broken by passage ID
// for determinism.
func sortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Passage.ID < results[j].Passage.ID
	})
}

// translateBackendErr maps backend I/O failures into the domain error
// taxonomy before they cross the transport boundary.
func translateBackendErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrSearchTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
