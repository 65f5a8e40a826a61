package cli

import (
	"fmt"

	"github.com/docdex-io/docdex/internal/adapters/driven/catalog/sqlite"
	"github.com/docdex-io/docdex/internal/adapters/driven/embedding/ollama"
	"github.com/docdex-io/docdex/internal/adapters/driven/embedding/openai"
	"github.com/docdex-io/docdex/internal/adapters/driven/index/qdrant"
	"github.com/docdex-io/docdex/internal/config"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
	"github.com/docdex-io/docdex/internal/loaders/markdown"
	"github.com/docdex-io/docdex/internal/loaders/snippets"
)

// newEmbedder builds the configured embedding backend.
func newEmbedder(cfg config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// newIndex builds the Qdrant index client.
func newIndex(cfg config.Config) (driven.VectorIndex, error) {
	return qdrant.NewIndex(qdrant.Config{
		URL:        cfg.Index.URL,
		APIKey:     cfg.Index.APIKey,
		Collection: cfg.Index.Collection,
		Timeout:    cfg.Index.Timeout(),
	})
}

// newCatalog opens the SQLite catalog.
func newCatalog(cfg config.Config) (*sqlite.Store, error) {
	return sqlite.NewStore(cfg.Catalog.Dir)
}

// newLoader builds the corpus loader for the configured layout.
func newLoader(cfg config.Config) (driven.CorpusLoader, error) {
	if cfg.Corpus.Path == "" {
		return nil, fmt.Errorf("corpus path is not configured")
	}

	switch cfg.Corpus.Layout {
	case "snippets":
		return snippets.New(snippets.Config{
			Dir:      cfg.Corpus.Path,
			Name:     cfg.Corpus.Name,
			Title:    cfg.Corpus.Title,
			Language: cfg.Corpus.Language,
			Origin:   cfg.Corpus.Repo,
			Version:  cfg.Corpus.Version,
		})
	case "markdown":
		return markdown.New(markdown.Config{
			Dir:      cfg.Corpus.Path,
			Name:     cfg.Corpus.Name,
			Title:    cfg.Corpus.Title,
			Language: cfg.Corpus.Language,
			Origin:   cfg.Corpus.Repo,
			Version:  cfg.Corpus.Version,
		})
	default:
		return nil, fmt.Errorf("unknown corpus layout %q", cfg.Corpus.Layout)
	}
}
