package services

import (
	"context"
	"sync"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
)

// mockEmbedder is a deterministic fake encoder: texts map to fixed
// vectors so similarity is fully predictable.
type mockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	model   string
	dims    int
	err     error
	calls   int
}

func newMockEmbedder(model string, dims int) *mockEmbedder {
	return &mockEmbedder{
		vectors: make(map[string][]float32),
		model:   model,
		dims:    dims,
	}
}

func (m *mockEmbedder) set(text string, vector []float32) {
	m.vectors[text] = vector
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, m.dims), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return m.model }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) embedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockIndex is a scripted vector index.
type mockIndex struct {
	mu        sync.Mutex
	hits      []driven.VectorHit
	err       error
	blocking  bool
	gotK      int
	gotFilter driven.SearchFilter

	upserted []driven.IndexEntry
	deleted  []string
	ensured  int
}

func (m *mockIndex) EnsureCollection(_ context.Context, dims int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured = dims
	return m.err
}

func (m *mockIndex) Upsert(_ context.Context, entries []driven.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, entries...)
	return nil
}

func (m *mockIndex) DeleteBySource(_ context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, sourceID)
	return nil
}

func (m *mockIndex) Search(ctx context.Context, _ []float32, k int, filter driven.SearchFilter) ([]driven.VectorHit, error) {
	m.mu.Lock()
	m.gotK = k
	m.gotFilter = filter
	blocking, err, hits := m.blocking, m.err, m.hits
	m.mu.Unlock()

	if blocking {
		// Simulate a slow backend that only returns on cancellation.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (m *mockIndex) Close() error { return nil }

// mockLoader yields a fixed corpus.
type mockLoader struct {
	source domain.Source
	docs   []domain.Document
	err    error
}

func (m *mockLoader) Describe(_ context.Context) (domain.Source, error) {
	return m.source, m.err
}

func (m *mockLoader) Load(_ context.Context) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

// mockCatalog implements the catalog stores in memory.
type mockCatalog struct {
	mu      sync.Mutex
	sources map[string]domain.Source
	docs    map[string]domain.Document
	runs    []driven.IngestRun
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		sources: make(map[string]domain.Source),
		docs:    make(map[string]domain.Document),
	}
}

func (m *mockCatalog) Save(_ context.Context, source domain.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[source.ID] = source
	return nil
}

func (m *mockCatalog) Get(_ context.Context, id string) (*domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	source, ok := m.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

func (m *mockCatalog) List(_ context.Context) ([]domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Source, 0, len(m.sources))
	for _, s := range m.sources {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockCatalog) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sources, id)
	return nil
}

func (m *mockCatalog) SaveDocuments(_ context.Context, docs []domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		m.docs[doc.ID] = doc
	}
	return nil
}

func (m *mockCatalog) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockCatalog) ListBySource(_ context.Context, sourceID string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, doc := range m.docs {
		if doc.SourceID == sourceID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *mockCatalog) DeleteBySource(_ context.Context, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, doc := range m.docs {
		if doc.SourceID == sourceID {
			delete(m.docs, id)
		}
	}
	return nil
}

func (m *mockCatalog) SaveRun(_ context.Context, run driven.IngestRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockCatalog) LatestRun(_ context.Context) (*driven.IngestRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, domain.ErrNotFound
	}
	run := m.runs[len(m.runs)-1]
	return &run, nil
}
