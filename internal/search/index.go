package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// DefaultIndexName is the directory created under the build output dir.
const DefaultIndexName = ".docsite-search.bleve"

const (
	defaultPageSize = 10
	maxPageSize     = 100
	facetSize       = 20
)

// ErrIndexClosed is returned when an operation runs after Close.
var ErrIndexClosed = errors.New("search: index is closed")

// Option configures the index.
type Option func(*Index)

// WithLogger overrides the no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(idx *Index) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// Index is a bleve-backed implementation of interfaces.SearchIndex. Documents
// are keyed by route and locale so translations index independently.
type Index struct {
	index  bleve.Index
	path   string
	logger interfaces.Logger
}

var _ interfaces.SearchIndex = (*Index)(nil)

// Open opens the index at path, creating it when absent. The parent
// directory is created on demand so a fresh output dir works.
func Open(path string, opts ...Option) (*Index, error) {
	cleaned := strings.TrimSpace(path)
	if cleaned == "" {
		return nil, errors.New("search: index path is required")
	}
	if parent := filepath.Dir(cleaned); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("search: create index parent: %w", err)
		}
	}

	idx, err := bleve.Open(cleaned)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(cleaned, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("search: open index %s: %w", cleaned, err)
	}
	return wrap(idx, cleaned, opts...), nil
}

// NewMemory returns an in-memory index. Used by tests and by the preview
// server when no index has been persisted yet.
func NewMemory(opts ...Option) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("search: open memory index: %w", err)
	}
	return wrap(idx, "", opts...), nil
}

func wrap(idx bleve.Index, path string, opts ...Option) *Index {
	wrapped := &Index{
		index:  idx,
		path:   path,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(wrapped)
		}
	}
	return wrapped
}

// Path reports where the index persists, empty for memory indexes.
func (idx *Index) Path() string {
	return idx.path
}

// Rebuild replaces the index contents with docs in one batch. Entries whose
// route and locale are absent from docs are deleted so vanished documents
// stop matching.
func (idx *Index) Rebuild(ctx context.Context, docs []interfaces.SearchDocument) error {
	if idx.index == nil {
		return ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := idx.allDocIDs(ctx)
	if err != nil {
		return err
	}

	batch := idx.index.NewBatch()
	keep := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		id := docID(doc.Route, doc.Locale)
		keep[id] = struct{}{}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("search: index %s: %w", id, err)
		}
	}
	removed := 0
	for _, id := range existing {
		if _, ok := keep[id]; !ok {
			batch.Delete(id)
			removed++
		}
	}

	if err := idx.index.Batch(batch); err != nil {
		return fmt.Errorf("search: apply batch: %w", err)
	}
	idx.logger.Debug("search index rebuilt", "documents", len(docs), "removed", removed)
	return nil
}

// Query runs term against title, summary and body. An empty term matches
// everything, which gives browse-style listings for the preview server.
func (idx *Index) Query(ctx context.Context, term string, opts interfaces.SearchOptions) (*interfaces.SearchResults, error) {
	if idx.index == nil {
		return nil, ErrIndexClosed
	}

	req := bleve.NewSearchRequestOptions(buildQuery(term, opts), pageSize(opts.Size), maxInt(opts.From, 0), false)
	req.Fields = []string{"route", "locale", "title", "section"}
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.AddField("title")
	req.Highlight.AddField("summary")
	req.AddFacet("section", bleve.NewFacetRequest("section", facetSize))
	req.AddFacet("tags", bleve.NewFacetRequest("tags", facetSize))

	res, err := idx.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: query %q: %w", term, err)
	}

	results := &interfaces.SearchResults{
		Total: res.Total,
		Took:  res.Took,
		Hits:  make([]interfaces.SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		entry := interfaces.SearchHit{
			Route:   stringField(hit.Fields, "route"),
			Locale:  stringField(hit.Fields, "locale"),
			Title:   stringField(hit.Fields, "title"),
			Section: stringField(hit.Fields, "section"),
			Score:   hit.Score,
		}
		for _, field := range []string{"title", "summary"} {
			entry.Fragments = append(entry.Fragments, hit.Fragments[field]...)
		}
		results.Hits = append(results.Hits, entry)
	}
	for _, name := range []string{"section", "tags"} {
		facet := res.Facets[name]
		if facet == nil || facet.Terms == nil {
			continue
		}
		terms := facet.Terms.Terms()
		if len(terms) == 0 {
			continue
		}
		if results.Facets == nil {
			results.Facets = make(map[string][]interfaces.Facet, 2)
		}
		buckets := make([]interfaces.Facet, 0, len(terms))
		for _, bucket := range terms {
			buckets = append(buckets, interfaces.Facet{Term: bucket.Term, Count: bucket.Count})
		}
		results.Facets[name] = buckets
	}
	return results, nil
}

// DocCount reports the number of indexed documents.
func (idx *Index) DocCount(ctx context.Context) (uint64, error) {
	if idx.index == nil {
		return 0, ErrIndexClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return idx.index.DocCount()
}

// Close releases the underlying index. Further calls fail with ErrIndexClosed.
func (idx *Index) Close() error {
	if idx.index == nil {
		return nil
	}
	err := idx.index.Close()
	idx.index = nil
	if err != nil {
		return fmt.Errorf("search: close index: %w", err)
	}
	return nil
}

func buildQuery(term string, opts interfaces.SearchOptions) query.Query {
	var base query.Query
	term = strings.TrimSpace(term)
	if term == "" {
		base = bleve.NewMatchAllQuery()
	} else {
		titleMatch := bleve.NewMatchQuery(term)
		titleMatch.SetField("title")
		titleMatch.SetBoost(2.0)

		summaryMatch := bleve.NewMatchQuery(term)
		summaryMatch.SetField("summary")

		bodyMatch := bleve.NewMatchQuery(term)
		bodyMatch.SetField("body")

		// prefix keeps partial words matching while the user types
		titlePrefix := bleve.NewPrefixQuery(strings.ToLower(term))
		titlePrefix.SetField("title")

		base = bleve.NewDisjunctionQuery(titleMatch, summaryMatch, bodyMatch, titlePrefix)
	}

	filters := make([]query.Query, 0, 2)
	if locale := strings.TrimSpace(opts.Locale); locale != "" {
		phrase := bleve.NewMatchPhraseQuery(locale)
		phrase.SetField("locale")
		filters = append(filters, phrase)
	}
	if section := strings.TrimSpace(opts.Section); section != "" {
		phrase := bleve.NewMatchPhraseQuery(section)
		phrase.SetField("section")
		filters = append(filters, phrase)
	}
	if len(filters) == 0 {
		return base
	}
	return bleve.NewConjunctionQuery(append([]query.Query{base}, filters...)...)
}

func (idx *Index) allDocIDs(ctx context.Context) ([]string, error) {
	count, err := idx.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("search: count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := idx.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: list documents: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func buildIndexMapping() mapping.IndexMapping {
	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = "en"

	summaryField := bleve.NewTextFieldMapping()
	summaryField.Analyzer = "en"

	bodyField := bleve.NewTextFieldMapping()
	bodyField.Analyzer = "en"
	bodyField.Store = false

	keywordField := bleve.NewKeywordFieldMapping()
	dateField := bleve.NewDateTimeFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("title", titleField)
	docMapping.AddFieldMappingsAt("summary", summaryField)
	docMapping.AddFieldMappingsAt("body", bodyField)
	docMapping.AddFieldMappingsAt("route", keywordField)
	docMapping.AddFieldMappingsAt("section", keywordField)
	docMapping.AddFieldMappingsAt("tags", keywordField)
	docMapping.AddFieldMappingsAt("locale", keywordField)
	docMapping.AddFieldMappingsAt("modified", dateField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

func docID(route, locale string) string {
	return strings.ToLower(strings.TrimSpace(route)) + "::" + strings.ToLower(strings.TrimSpace(locale))
}

func stringField(fields map[string]any, name string) string {
	if value, ok := fields[name].(string); ok {
		return value
	}
	return ""
}

func pageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func maxInt(value, floor int) int {
	if value < floor {
		return floor
	}
	return value
}
