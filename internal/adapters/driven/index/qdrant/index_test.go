package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
)

// fakeQdrant records requests and plays back canned responses.
type fakeQdrant struct {
	mu       sync.Mutex
	requests []recordedRequest

	collectionSize int // 0 means the collection does not exist
	searchResult   string
}

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

func (f *fakeQdrant) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path + "?" + r.URL.RawQuery,
			body:   body,
		})
		f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/docs":
			if f.collectionSize == 0 {
				http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
				return
			}
			fmt.Fprintf(w, `{"result":{"config":{"params":{"vectors":{"size":%d}}}}}`, f.collectionSize)
		case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search":
			fmt.Fprint(w, f.searchResult)
		default:
			fmt.Fprint(w, `{"result":true,"status":"ok"}`)
		}
	})
}

func (f *fakeQdrant) find(method, pathPrefix string) *recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.requests {
		if f.requests[i].method == method && len(f.requests[i].path) >= len(pathPrefix) &&
			f.requests[i].path[:len(pathPrefix)] == pathPrefix {
			return &f.requests[i]
		}
	}
	return nil
}

func newTestIndex(t *testing.T, fake *fakeQdrant) *Index {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	idx, err := NewIndex(Config{URL: srv.URL, Collection: "docs"})
	require.NoError(t, err)
	return idx
}

func TestNewIndex_RequiresCollection(t *testing.T) {
	_, err := NewIndex(Config{})
	require.Error(t, err)
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	fake := &fakeQdrant{}
	idx := newTestIndex(t, fake)

	require.NoError(t, idx.EnsureCollection(context.Background(), 768))

	create := fake.find(http.MethodPut, "/collections/docs?")
	require.NotNil(t, create, "expected collection create request")
	vectors := create.body["vectors"].(map[string]any)
	assert.Equal(t, float64(768), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])

	// Payload indexes for filtered search.
	index := fake.find(http.MethodPut, "/collections/docs/index")
	require.NotNil(t, index, "expected payload index request")
}

func TestEnsureCollection_AcceptsMatchingExisting(t *testing.T) {
	fake := &fakeQdrant{collectionSize: 768}
	idx := newTestIndex(t, fake)

	require.NoError(t, idx.EnsureCollection(context.Background(), 768))
	assert.Nil(t, fake.find(http.MethodPut, "/collections/docs?"), "must not recreate an existing collection")
}

func TestEnsureCollection_DimensionMismatch(t *testing.T) {
	fake := &fakeQdrant{collectionSize: 1536}
	idx := newTestIndex(t, fake)

	err := idx.EnsureCollection(context.Background(), 768)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIndexInconsistent))
}

func TestUpsert_SendsPointsWithPayload(t *testing.T) {
	fake := &fakeQdrant{}
	idx := newTestIndex(t, fake)

	entries := []driven.IndexEntry{{
		Passage: domain.Passage{
			ID:         "11111111-2222-3333-4444-555555555555",
			DocumentID: "doc-1",
			SourceID:   "python-docs",
			Position:   3,
			Section:    []string{"Tutorial", "Classes"},
			Content:    "A class definition names a new class.",
		},
		SourceTitle: "Python Documentation",
		Vector:      []float32{0.1, 0.2},
		Model:       "nomic-embed-text",
	}}

	require.NoError(t, idx.Upsert(context.Background(), entries))

	req := fake.find(http.MethodPut, "/collections/docs/points?wait=true")
	require.NotNil(t, req)

	points := req.body["points"].([]any)
	require.Len(t, points, 1)
	point := points[0].(map[string]any)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", point["id"])

	payload := point["payload"].(map[string]any)
	assert.Equal(t, "python-docs", payload["source_id"])
	assert.Equal(t, "Python Documentation", payload["source_title"])
	assert.Equal(t, "nomic-embed-text", payload["model"])
	assert.Equal(t, float64(3), payload["position"])
}

func TestDeleteBySource_FiltersOnSourceID(t *testing.T) {
	fake := &fakeQdrant{}
	idx := newTestIndex(t, fake)

	require.NoError(t, idx.DeleteBySource(context.Background(), "python-docs"))

	req := fake.find(http.MethodPost, "/collections/docs/points/delete")
	require.NotNil(t, req)

	filter := req.body["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	clause := must[0].(map[string]any)
	assert.Equal(t, "source_id", clause["key"])
}

func TestSearch_HydratesHitsFromPayload(t *testing.T) {
	fake := &fakeQdrant{searchResult: `{
		"result": [
			{
				"id": "point-a",
				"score": 0.91,
				"payload": {
					"content": "Install with pip.",
					"source_id": "python-docs",
					"source_title": "Python Documentation",
					"document_id": "doc-1",
					"section": ["Installing the client", "Linux"],
					"position": 0,
					"model": "nomic-embed-text"
				}
			}
		]
	}`}
	idx := newTestIndex(t, fake)

	hits, err := idx.Search(context.Background(), []float32{0.1, 0.2}, 5, driven.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.Equal(t, "point-a", hit.Passage.ID)
	assert.Equal(t, "Install with pip.", hit.Passage.Content)
	assert.Equal(t, []string{"Installing the client", "Linux"}, hit.Passage.Section)
	assert.Equal(t, "Python Documentation", hit.SourceTitle)
	assert.Equal(t, "nomic-embed-text", hit.Model)
	assert.InDelta(t, 0.91, hit.Score, 1e-9)
}

func TestSearch_SendsFilterClauses(t *testing.T) {
	fake := &fakeQdrant{searchResult: `{"result": []}`}
	idx := newTestIndex(t, fake)

	_, err := idx.Search(context.Background(), []float32{0.1}, 5, driven.SearchFilter{
		SourceIDs: []string{"python-docs", "go-docs"},
		Section:   "Tutorial",
	})
	require.NoError(t, err)

	req := fake.find(http.MethodPost, "/collections/docs/points/search")
	require.NotNil(t, req)
	assert.Equal(t, true, req.body["with_payload"])
	assert.Equal(t, float64(5), req.body["limit"])

	filter := req.body["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 2)
}

func TestSearch_NoFilterClausesWhenUnfiltered(t *testing.T) {
	fake := &fakeQdrant{searchResult: `{"result": []}`}
	idx := newTestIndex(t, fake)

	_, err := idx.Search(context.Background(), []float32{0.1}, 5, driven.SearchFilter{})
	require.NoError(t, err)

	req := fake.find(http.MethodPost, "/collections/docs/points/search")
	require.NotNil(t, req)
	_, hasFilter := req.body["filter"]
	assert.False(t, hasFilter)
}

func TestSearch_DeadlineExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client cancelling;
		// otherwise r.Context() is never done and srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	idx, err := NewIndex(Config{URL: srv.URL, Collection: "docs"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = idx.Search(ctx, []float32{0.1}, 5, driven.SearchFilter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSearchTimeout))
}

func TestSearch_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"service unavailable"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	idx, err := NewIndex(Config{URL: srv.URL, Collection: "docs"})
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{0.1}, 5, driven.SearchFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
