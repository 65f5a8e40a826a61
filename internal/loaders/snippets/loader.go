// Package snippets loads a corpus laid out as a snippets directory:
//
//	root/
//	  category/
//	    sub_category/
//	      _description.md
//	      python.md
//	      go.md
//
// Each sub-category's _description.md describes the example; the
// sibling files hold one snippet per language. The description and the
// matching language snippet combine into one document.
package snippets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.CorpusLoader = (*Loader)(nil)

// descriptionFile names the per-snippet description file.
const descriptionFile = "_description.md"

var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docdex/document"))

// Config holds configuration for the snippets loader.
type Config struct {
	// Dir is the snippets root directory (required).
	Dir string

	// Name is the source's machine name. Defaults to the directory name.
	Name string

	// Title is the source's attribution title. Defaults to Name.
	Title string

	// Language keeps only snippets for this language. Empty keeps all.
	Language string

	// Origin identifies where the corpus comes from, e.g. a GitHub
	// repository. Defaults to the absolute corpus path.
	Origin string

	// Version pins the source version. Empty means the ingestion
	// pipeline resolves it from the origin.
	Version string
}

// Loader reads a snippets directory into documents.
type Loader struct {
	cfg Config
}

// New creates a snippets corpus loader.
func New(cfg Config) (*Loader, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snippets loader: directory is required")
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

// Load walks category/sub-category directories and combines each
// description with its language snippets.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	source, err := l.Describe(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := subdirs(l.cfg.Dir)
	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	for _, category := range categories {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		subs, err := subdirs(filepath.Join(l.cfg.Dir, category))
		if err != nil {
			return nil, err
		}

		for _, sub := range subs {
			loaded, err := l.loadGroup(source.ID, category, sub)
			if err != nil {
				return nil, err
			}
			docs = append(docs, loaded...)
		}
	}

	return docs, nil
}

// loadGroup reads one sub-category: the description plus each snippet.
func (l *Loader) loadGroup(sourceID, category, sub string) ([]domain.Document, error) {
	dir := filepath.Join(l.cfg.Dir, category, sub)

	description, err := readText(filepath.Join(dir, descriptionFile))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading snippets dir %s: %w", dir, err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == descriptionFile {
			continue
		}

		language := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if l.cfg.Language != "" && language != l.cfg.Language {
			continue
		}

		snippet, err := readText(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		rel := filepath.ToSlash(filepath.Join(category, sub, entry.Name()))
		content := strings.TrimSpace(description + "\n\n" + snippet)

		docs = append(docs, domain.Document{
			ID:          uuid.NewSHA1(documentNamespace, []byte(sourceID+"/"+rel)).String(),
			SourceID:    sourceID,
			Path:        rel,
			Title:       category + " / " + sub,
			Content:     content,
			ContentHash: xxhash.Sum64String(content),
		})
	}

	return docs, nil
}

// subdirs lists the sorted sub-directory names of dir.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading snippets dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// readText reads a file and validates it decodes as text.
func readText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("file %s: %w", path, domain.ErrMalformedSource)
	}
	return string(raw), nil
}
