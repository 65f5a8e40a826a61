package domain

import "time"

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// SourceIDs filters to specific sources.
	SourceIDs []string

	// Section filters to passages whose heading path contains the
	// given heading.
	Section string

	// MinScore drops candidates below this similarity. Zero means no
	// threshold.
	MinScore float64

	// Timeout bounds the index search. Zero means the server default.
	Timeout time.Duration
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Passage is the matched passage.
	Passage Passage

	// Score is the cosine similarity score (0-1).
	Score float64

	// SourceTitle is the attribution title of the passage's source.
	SourceTitle string

	// Context is the text of an adjacent passage that was collapsed
	// into this result, kept as supplementary context.
	Context string
}

// SearchResponse is a complete answer to a query. It is either fully
// populated or not returned at all; errors never carry partial results.
type SearchResponse struct {
	// Results is ordered by descending score, ties broken by passage ID.
	Results []SearchResult

	// BelowMinScore is true when candidates existed but the similarity
	// threshold excluded all of them. It distinguishes "nothing close
	// enough" from an empty corpus.
	BelowMinScore bool

	// Excluded counts index entries skipped because their stored
	// embedding model did not match the active encoder.
	Excluded int
}

// Degraded reports whether the response was computed from a corpus with
// incompatible index entries.
func (r SearchResponse) Degraded() bool {
	return r.Excluded > 0
}
