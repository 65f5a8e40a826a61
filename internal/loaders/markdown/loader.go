// Package markdown loads a documentation corpus from a directory tree
// of markdown files.
package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.CorpusLoader = (*Loader)(nil)

// documentNamespace seeds deterministic document IDs.
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docdex/document"))

// extensions are the file types treated as documentation text.
var extensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdx":      true,
	".txt":      true,
	".rst":      true,
}

// Config holds configuration for the markdown loader.
type Config struct {
	// Dir is the corpus root directory (required).
	Dir string

	// Name is the source's machine name. Defaults to the directory name.
	Name string

	// Title is the source's attribution title. Defaults to Name.
	Title string

	// Language is the primary language of the documented package.
	Language string

	// Origin identifies where the corpus comes from, e.g. a GitHub
	// repository. Defaults to the absolute corpus path.
	Origin string

	// Version pins the source version. Empty means the ingestion
	// pipeline resolves it from the origin.
	Version string
}

// Loader reads markdown files under a directory into documents.
type Loader struct {
	cfg Config
}

// New creates a markdown corpus loader.
func New(cfg Config) (*Loader, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("markdown loader: directory is required")
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(filepath.Clean(cfg.Dir))
	}
	if cfg.Title == "" {
		cfg.Title = cfg.Name
	}
	return &Loader{cfg: cfg}, nil
}

// Describe returns the source identity for the corpus.
func (l *Loader) Describe(_ context.Context) (domain.Source, error) {
	origin := l.cfg.Origin
	if origin == "" {
		abs, err := filepath.Abs(l.cfg.Dir)
		if err != nil {
			return domain.Source{}, fmt.Errorf("resolving corpus path: %w", err)
		}
		origin = abs
	}

	return domain.Source{
		ID:       l.cfg.Name,
		Name:     l.cfg.Name,
		Title:    l.cfg.Title,
		Origin:   origin,
		Language: l.cfg.Language,
		Version:  l.cfg.Version,
	}, nil
}

// Load walks the corpus directory and reads every documentation file.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	source, err := l.Describe(ctx)
	if err != nil {
		return nil, err
	}

	var docs []domain.Document

	err = filepath.WalkDir(l.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Skip hidden directories like .git
			if strings.HasPrefix(d.Name(), ".") && path != l.cfg.Dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		doc, err := l.read(source.ID, path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading corpus %s: %w", l.cfg.Dir, err)
	}

	return docs, nil
}

// read loads a single file as a document.
func (l *Loader) read(sourceID, path string) (domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	content := string(raw)
	if !utf8.ValidString(content) {
		return domain.Document{}, fmt.Errorf("file %s: %w", path, domain.ErrMalformedSource)
	}

	rel, err := filepath.Rel(l.cfg.Dir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	return domain.Document{
		ID:          uuid.NewSHA1(documentNamespace, []byte(sourceID+"/"+rel)).String(),
		SourceID:    sourceID,
		Path:        rel,
		Title:       documentTitle(content, rel),
		Content:     content,
		ContentHash: xxhash.Sum64(raw),
	}, nil
}

// documentTitle takes the first markdown heading, falling back to the
// file name without extension.
func documentTitle(content, rel string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}

	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
