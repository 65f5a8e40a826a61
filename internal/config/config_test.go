package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, DefaultQdrantURL, cfg.Index.URL)
	assert.Equal(t, DefaultCollection, cfg.Index.Collection)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 5, cfg.Search.Limit)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
verbose = true

[server]
transport = "sse"
host = "127.0.0.1"
port = 9001

[index]
url = "http://qdrant.internal:6333"
collection = "python-docs"

[embedding]
provider = "openai"
model = "text-embedding-3-small"

[corpus]
path = "/srv/docs"
layout = "snippets"
language = "go"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, TransportSSE, cfg.Server.Transport)
	assert.Equal(t, "127.0.0.1:9001", cfg.Server.Addr())
	assert.Equal(t, "python-docs", cfg.Index.Collection)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, "snippets", cfg.Corpus.Layout)
	// Untouched sections keep their defaults.
	assert.Equal(t, 1000, cfg.Chunking.Size)
}

func TestLoad_RejectsUnknownTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\ntransport = \"websocket\"\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestLoad_RejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_ChunkingBounds(t *testing.T) {
	cfg := Default()
	cfg.Chunking.Size = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Chunking.Overlap = -1
	require.Error(t, cfg.Validate())
}
