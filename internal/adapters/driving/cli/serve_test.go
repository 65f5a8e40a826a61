package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
)

type stubEmbedder struct {
	model   string
	dims    int
	pingErr error
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, nil }
func (s *stubEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, nil
}
func (s *stubEmbedder) Dimensions() int            { return s.dims }
func (s *stubEmbedder) ModelName() string          { return s.model }
func (s *stubEmbedder) Ping(context.Context) error { return s.pingErr }
func (s *stubEmbedder) Close() error               { return nil }

type stubRunStore struct {
	run *driven.IngestRun
	err error
}

func (s *stubRunStore) SaveRun(context.Context, driven.IngestRun) error { return nil }
func (s *stubRunStore) LatestRun(context.Context) (*driven.IngestRun, error) {
	return s.run, s.err
}

func TestStartupChecks_UnreachableBackendIsFatal(t *testing.T) {
	embedder := &stubEmbedder{pingErr: domain.ErrEncodingUnavailable}

	err := startupChecks(context.Background(), embedder, &stubRunStore{err: domain.ErrNotFound})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEncodingUnavailable)
}

func TestStartupChecks_NoRunsIsAllowed(t *testing.T) {
	embedder := &stubEmbedder{model: "nomic-embed-text", dims: 768}

	err := startupChecks(context.Background(), embedder, &stubRunStore{err: domain.ErrNotFound})
	assert.NoError(t, err)
}

func TestStartupChecks_MatchingRunPasses(t *testing.T) {
	embedder := &stubEmbedder{model: "nomic-embed-text", dims: 768}
	runs := &stubRunStore{run: &driven.IngestRun{Model: "nomic-embed-text", Dimensions: 768}}

	assert.NoError(t, startupChecks(context.Background(), embedder, runs))
}

func TestStartupChecks_ModelMismatchIsFatal(t *testing.T) {
	embedder := &stubEmbedder{model: "text-embedding-3-small", dims: 1536}
	runs := &stubRunStore{run: &driven.IngestRun{Model: "nomic-embed-text", Dimensions: 768}}

	err := startupChecks(context.Background(), embedder, runs)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexInconsistent)
	assert.Contains(t, err.Error(), "re-ingest")
}

func TestStartupChecks_DimensionMismatchIsFatal(t *testing.T) {
	embedder := &stubEmbedder{model: "nomic-embed-text", dims: 256}
	runs := &stubRunStore{run: &driven.IngestRun{Model: "nomic-embed-text", Dimensions: 768}}

	err := startupChecks(context.Background(), embedder, runs)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexInconsistent)
}

func TestStartupChecks_CatalogErrorIsFatal(t *testing.T) {
	embedder := &stubEmbedder{model: "nomic-embed-text", dims: 768}
	runs := &stubRunStore{err: errors.New("disk I/O error")}

	err := startupChecks(context.Background(), embedder, runs)
	require.Error(t, err)
}
