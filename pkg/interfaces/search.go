package interfaces

import (
	"context"
	"time"
)

// SearchIndex exposes the full-text index built from the document corpus.
// Implementations own index persistence; callers treat the index as derived
// state that can always be rebuilt from the source tree.
type SearchIndex interface {
	// Rebuild replaces the index contents with the supplied documents,
	// removing entries whose routes no longer exist.
	Rebuild(ctx context.Context, docs []SearchDocument) error
	// Query runs a full-text query and returns ranked hits.
	Query(ctx context.Context, term string, opts SearchOptions) (*SearchResults, error)
	// DocCount reports the number of indexed documents.
	DocCount(ctx context.Context) (uint64, error)
	Close() error
}

// SearchDocument is the indexable projection of a corpus document.
type SearchDocument struct {
	Route    string    `json:"route"`
	Locale   string    `json:"locale"`
	Section  string    `json:"section"`
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Body     string    `json:"body"`
	Tags     []string  `json:"tags"`
	Modified time.Time `json:"modified"`
}

// SearchOptions narrows and pages a query.
type SearchOptions struct {
	Locale  string
	Section string
	From    int
	Size    int
}

// SearchResults carries ranked hits plus aggregate metadata.
type SearchResults struct {
	Total  uint64             `json:"total"`
	Took   time.Duration      `json:"took"`
	Hits   []SearchHit        `json:"hits"`
	Facets map[string][]Facet `json:"facets,omitempty"`
}

// SearchHit is a single ranked match.
type SearchHit struct {
	Route     string   `json:"route"`
	Locale    string   `json:"locale"`
	Title     string   `json:"title"`
	Section   string   `json:"section"`
	Score     float64  `json:"score"`
	Fragments []string `json:"fragments,omitempty"`
}

// Facet is one term bucket from a facet aggregation.
type Facet struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}
