package domain

import (
	"strings"
	"time"
)

// Source identifies one documentation corpus origin, such as a package's
// docs directory or a cloned repository.
type Source struct {
	// ID is the stable identifier for the source.
	ID string

	// Name is the short machine name (e.g. "qdrant-client").
	Name string

	// Title is the human-readable name shown in attributions.
	Title string

	// Origin is the location the corpus was loaded from (directory, repo URL).
	Origin string

	// Language is the primary language of the documented package, if any.
	Language string

	// Version is the corpus version captured at ingest time.
	Version string

	// CreatedAt is when the source was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the source was last re-ingested.
	UpdatedAt time.Time
}

// DisplayTitle returns the attribution title, falling back to the name.
func (s Source) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

// Document is one raw text unit of a source before chunking: a file,
// page or structured record with its own identity.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceID links to the Source that produced this document.
	SourceID string

	// Path is the location within the source (relative file path or URL).
	Path string

	// Title is the human-readable title, usually the first heading.
	Title string

	// Content is the full decoded text.
	Content string

	// ContentHash is a hash of Content, used for change detection.
	ContentHash uint64
}

// Passage is a bounded chunk of a document, the unit of embedding and
// retrieval. Passages are written once during ingestion and immutable
// during the serving window.
type Passage struct {
	// ID is deterministic for unchanged content, so re-ingesting an
	// unchanged corpus produces identical passages.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// SourceID is denormalised for filtering.
	SourceID string

	// Position is the ordinal offset within the document.
	Position int

	// Section is the heading path at the passage's location,
	// e.g. ["Installation", "Prerequisites"].
	Section []string

	// Content is the passage text.
	Content string

	// Length is the passage size in characters.
	Length int
}

// SectionPath renders the heading path as a single attribution string.
func (p Passage) SectionPath() string {
	return strings.Join(p.Section, " > ")
}

// IngestStats summarises one ingestion run.
type IngestStats struct {
	// Documents is the number of text units loaded.
	Documents int

	// Passages is the number of passages indexed.
	Passages int

	// Skipped is the number of documents unchanged since the last run.
	Skipped int

	// Model is the embedding model the run was encoded with.
	Model string

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}
