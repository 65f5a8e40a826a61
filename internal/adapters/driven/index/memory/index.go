// Package memory provides an in-process vector index. It exercises the
// index port without a running Qdrant.
package memory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores entries in memory and scans them linearly on search.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    map[string]driven.IndexEntry
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]driven.IndexEntry)}
}

// EnsureCollection fixes the vector size on first call and rejects a
// different size afterwards.
func (x *Index) EnsureCollection(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("memory index: invalid vector size %d", dimensions)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dimensions == 0 {
		x.dimensions = dimensions
		return nil
	}
	if x.dimensions != dimensions {
		return fmt.Errorf("%w: index stores %d-dimensional vectors, encoder produces %d",
			domain.ErrIndexInconsistent, x.dimensions, dimensions)
	}
	return nil
}

// Upsert writes a batch of entries, replacing any with the same ID.
func (x *Index) Upsert(ctx context.Context, entries []driven.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for _, entry := range entries {
		if x.dimensions > 0 && len(entry.Vector) != x.dimensions {
			return fmt.Errorf("%w: entry %s has %d-dimensional vector, index stores %d",
				domain.ErrIndexInconsistent, entry.Passage.ID, len(entry.Vector), x.dimensions)
		}
		x.entries[entry.Passage.ID] = entry
	}
	return nil
}

// DeleteBySource removes every entry belonging to a source.
func (x *Index) DeleteBySource(ctx context.Context, sourceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for id, entry := range x.entries {
		if entry.Passage.SourceID == sourceID {
			delete(x.entries, id)
		}
	}
	return nil
}

// Search scans every entry and returns the k most similar, best first.
func (x *Index) Search(ctx context.Context, vector []float32, k int, filter driven.SearchFilter) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(x.entries))
	for _, entry := range x.entries {
		if !matches(entry.Passage, filter) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			Passage:     entry.Passage,
			SourceTitle: entry.SourceTitle,
			Score:       cosine(vector, entry.Vector),
			Model:       entry.Model,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Passage.ID < hits[j].Passage.ID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len reports the number of stored entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

func matches(p domain.Passage, filter driven.SearchFilter) bool {
	if len(filter.SourceIDs) > 0 && !slices.Contains(filter.SourceIDs, p.SourceID) {
		return false
	}
	if filter.Section != "" && !slices.Contains(p.Section, filter.Section) {
		return false
	}
	return true
}

// cosine computes cosine similarity between two vectors. Mismatched
// lengths or zero vectors score zero.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
