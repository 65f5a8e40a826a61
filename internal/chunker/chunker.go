// Package chunker splits documents into bounded passages for embedding.
// It splits at structural boundaries (headings, then paragraphs) before
// falling back to a fixed-size sliding window with overlap.
package chunker

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/docdex-io/docdex/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per passage.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters
// between windowed passages.
const DefaultChunkOverlap = 200

// passageNamespace seeds deterministic passage IDs. Re-ingesting
// unchanged content must reproduce the same IDs.
var passageNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docdex/passage"))

// Chunker splits document content into passages.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the passage size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between windowed passages in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// section is a run of content under one heading path.
type section struct {
	path   []string
	blocks []string
}

// Split chunks a document into passages with lineage: document ID,
// ordinal position and heading path. It is a pure transform; calling it
// twice on the same document yields identical passages.
func (c *Chunker) Split(doc domain.Document) ([]domain.Passage, error) {
	if !utf8.ValidString(doc.Content) {
		return nil, fmt.Errorf("document %s: not valid text: %w", doc.Path, domain.ErrMalformedSource)
	}

	var passages []domain.Passage
	position := 0

	for _, sec := range splitSections(doc.Content) {
		for _, content := range c.window(sec.blocks) {
			passages = append(passages, domain.Passage{
				ID:         passageID(doc, position, content),
				DocumentID: doc.ID,
				SourceID:   doc.SourceID,
				Position:   position,
				Section:    sec.path,
				Content:    content,
				Length:     utf8.RuneCountInString(content),
			})
			position++
		}
	}

	return passages, nil
}

// window packs whole blocks into passages up to the chunk size. A block
// that alone exceeds the size falls back to a sliding window with
// overlap, so no trailing text is ever dropped.
func (c *Chunker) window(blocks []string) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}

	for _, block := range blocks {
		if utf8.RuneCountInString(block) > c.chunkSize {
			flush()
			out = append(out, c.slide(block)...)
			continue
		}

		if current.Len() > 0 && utf8.RuneCountInString(current.String())+utf8.RuneCountInString(block)+2 > c.chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}
	flush()

	return out
}

// slide cuts an oversized block into fixed-size windows with overlap.
func (c *Chunker) slide(block string) []string {
	runes := []rune(block)
	var out []string

	step := c.chunkSize - c.overlap
	if step <= 0 {
		step = c.chunkSize
	}

	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}

		if end == len(runes) {
			break
		}
	}

	return out
}

// splitSections walks the content line by line, tracking the markdown
// heading path and collecting paragraph blocks under each heading.
// Headings inside fenced code blocks are ignored.
func splitSections(content string) []section {
	var sections []section
	current := section{}
	var block strings.Builder
	var path []string
	inFence := false

	endBlock := func() {
		if s := strings.TrimSpace(block.String()); s != "" {
			current.blocks = append(current.blocks, s)
		}
		block.Reset()
	}
	endSection := func() {
		endBlock()
		if len(current.blocks) > 0 {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			block.WriteString(line)
			block.WriteString("\n")
			continue
		}

		if inFence {
			block.WriteString(line)
			block.WriteString("\n")
			continue
		}

		if level, title, ok := parseHeading(trimmed); ok {
			endSection()
			path = trimPath(path, level)
			path = append(path, title)
			current = section{path: append([]string(nil), path...)}
			continue
		}

		if trimmed == "" {
			endBlock()
			continue
		}

		block.WriteString(line)
		block.WriteString("\n")
	}
	endSection()

	return sections
}

// parseHeading recognises ATX headings (# through ######).
func parseHeading(line string) (level int, title string, ok bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}

	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 || level == len(line) || line[level] != ' ' {
		return 0, "", false
	}

	title = strings.TrimSpace(line[level+1:])
	if title == "" {
		return 0, "", false
	}

	return level, title, true
}

// trimPath drops path entries at or below the given heading level.
func trimPath(path []string, level int) []string {
	if level-1 < len(path) {
		return path[:level-1]
	}
	return path
}

// passageID derives a stable ID from the passage's lineage and content,
// so unchanged content keeps its identity across re-ingestion.
func passageID(doc domain.Document, position int, content string) string {
	name := doc.SourceID + "/" + doc.Path + "#" + strconv.Itoa(position) + "\n" + content
	return uuid.NewSHA1(passageNamespace, []byte(name)).String()
}
