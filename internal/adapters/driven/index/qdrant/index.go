// Package qdrant provides a vector index adapter backed by Qdrant's
// REST API. It assumes cosine distance and a single collection.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the Qdrant REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection name (required).
	Collection string

	// Timeout bounds a single HTTP request (default: 15s).
	Timeout time.Duration
}

// Index is a REST client to a single Qdrant collection.
type Index struct {
	client     *http.Client
	url        string
	apiKey     string
	collection string
}

// pointPayload is the metadata stored alongside each vector. The
// source_id and section fields carry keyword indexes so filtered
// searches stay cheap.
type pointPayload struct {
	Content     string   `json:"content"`
	SourceID    string   `json:"source_id"`
	SourceTitle string   `json:"source_title"`
	DocumentID  string   `json:"document_id"`
	Section     []string `json:"section,omitempty"`
	Position    int      `json:"position"`
	Model       string   `json:"model"`
}

// NewIndex creates a Qdrant index client.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name is required")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}, nil
}

// EnsureCollection creates the collection if missing and verifies an
// existing one stores vectors of the given size.
func (x *Index) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("qdrant: invalid vector size %d", dimensions)
	}

	existing, err := x.collectionSize(ctx)
	if err != nil {
		return err
	}

	if existing > 0 {
		if existing != dimensions {
			return fmt.Errorf("%w: collection %q stores %d-dimensional vectors, encoder produces %d",
				domain.ErrIndexInconsistent, x.collection, existing, dimensions)
		}
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	if err := x.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", x.collection), body, nil); err != nil {
		return err
	}

	// Keyword indexes back the filtered searches.
	for _, field := range []string{"source_id", "section"} {
		body := map[string]any{
			"field_name":   field,
			"field_schema": "keyword",
		}
		if err := x.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/index?wait=true", x.collection), body, nil); err != nil {
			return fmt.Errorf("creating payload index on %s: %w", field, err)
		}
	}

	return nil
}

// collectionSize returns the vector size of the collection, or 0 when
// the collection does not exist.
func (x *Index) collectionSize(ctx context.Context) (int, error) {
	var out struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}

	err := x.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", x.collection), nil, &out)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return 0, nil
		}
		return 0, err
	}
	return out.Result.Config.Params.Vectors.Size, nil
}

// Upsert writes a batch of entries, replacing any with the same ID.
func (x *Index) Upsert(ctx context.Context, entries []driven.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]map[string]any, len(entries))
	for i, entry := range entries {
		points[i] = map[string]any{
			"id":     entry.Passage.ID,
			"vector": entry.Vector,
			"payload": pointPayload{
				Content:     entry.Passage.Content,
				SourceID:    entry.Passage.SourceID,
				SourceTitle: entry.SourceTitle,
				DocumentID:  entry.Passage.DocumentID,
				Section:     entry.Passage.Section,
				Position:    entry.Passage.Position,
				Model:       entry.Model,
			},
		}
	}

	body := map[string]any{"points": points}
	return x.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", x.collection), body, nil)
}

// DeleteBySource removes every point belonging to a source.
func (x *Index) DeleteBySource(ctx context.Context, sourceID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []any{
				map[string]any{
					"key":   "source_id",
					"match": map[string]any{"value": sourceID},
				},
			},
		},
	}
	return x.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", x.collection), body, nil)
}

// Search returns the k nearest points to the query vector, best first.
func (x *Index) Search(ctx context.Context, vector []float32, k int, filter driven.SearchFilter) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if clauses := filterClauses(filter); len(clauses) > 0 {
		body["filter"] = map[string]any{"must": clauses}
	}

	var out struct {
		Result []struct {
			ID      string       `json:"id"`
			Score   float64      `json:"score"`
			Payload pointPayload `json:"payload"`
		} `json:"result"`
	}

	err := x.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", x.collection), body, &out)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: qdrant search", domain.ErrSearchTimeout)
		}
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(out.Result))
	for _, r := range out.Result {
		hits = append(hits, driven.VectorHit{
			Passage: domain.Passage{
				ID:         r.ID,
				DocumentID: r.Payload.DocumentID,
				SourceID:   r.Payload.SourceID,
				Position:   r.Payload.Position,
				Section:    r.Payload.Section,
				Content:    r.Payload.Content,
				Length:     utf8.RuneCountInString(r.Payload.Content),
			},
			SourceTitle: r.Payload.SourceTitle,
			Score:       r.Score,
			Model:       r.Payload.Model,
		})
	}
	return hits, nil
}

// filterClauses translates a search filter into Qdrant match conditions.
func filterClauses(filter driven.SearchFilter) []any {
	var clauses []any
	if len(filter.SourceIDs) > 0 {
		clauses = append(clauses, map[string]any{
			"key":   "source_id",
			"match": map[string]any{"any": filter.SourceIDs},
		})
	}
	if filter.Section != "" {
		// Section is stored as the heading path array; a keyword match
		// on an array field matches any element.
		clauses = append(clauses, map[string]any{
			"key":   "section",
			"match": map[string]any{"value": filter.Section},
		})
	}
	return clauses
}

// Close releases resources.
func (x *Index) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

// statusError reports a non-2xx response from Qdrant.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant: status %d: %s", e.code, e.body)
}

// do sends a JSON request and decodes the JSON response into out.
func (x *Index) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.url+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: string(data)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
