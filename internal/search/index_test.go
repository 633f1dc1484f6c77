package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewMemory()
	if err != nil {
		t.Fatalf("open memory index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func seedDocs() []interfaces.SearchDocument {
	modified := time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)
	return []interfaces.SearchDocument{
		{
			Route:    "guides/installation",
			Locale:   "en",
			Section:  "guides",
			Title:    "Installation",
			Summary:  "Install the toolchain",
			Body:     "Download the binary and place it on your PATH.",
			Tags:     []string{"setup"},
			Modified: modified,
		},
		{
			Route:    "guides/configuration",
			Locale:   "en",
			Section:  "guides",
			Title:    "Configuration",
			Summary:  "Configure the site",
			Body:     "Installation notes continue here with config keys.",
			Tags:     []string{"setup", "yaml"},
			Modified: modified,
		},
		{
			Route:    "reference/cli",
			Locale:   "en",
			Section:  "reference",
			Title:    "CLI Reference",
			Summary:  "Flags and subcommands",
			Body:     "Every flag accepted by the command line.",
			Tags:     []string{"cli"},
			Modified: modified,
		},
		{
			Route:    "guides/installation",
			Locale:   "es",
			Section:  "guides",
			Title:    "Instalacion",
			Summary:  "Instala la herramienta",
			Body:     "Descarga el binario.",
			Tags:     []string{"setup"},
			Modified: modified,
		},
	}
}

func TestRebuildAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Rebuild(ctx, seedDocs()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	count, err := idx.DocCount(ctx)
	if err != nil {
		t.Fatalf("doc count: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 indexed documents, got %d", count)
	}

	results, err := idx.Query(ctx, "installation", interfaces.SearchOptions{Locale: "en"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if results.Total != 2 {
		t.Fatalf("expected 2 hits, got %d", results.Total)
	}
	if results.Hits[0].Route != "guides/installation" {
		t.Fatalf("expected title match ranked first, got %q", results.Hits[0].Route)
	}
	if results.Hits[0].Score <= results.Hits[1].Score {
		t.Fatalf("expected boosted title hit to outrank body hit: %v vs %v",
			results.Hits[0].Score, results.Hits[1].Score)
	}
	for _, hit := range results.Hits {
		if hit.Locale != "en" {
			t.Fatalf("locale filter leaked %q", hit.Locale)
		}
	}
}

func TestQuerySectionFilterAndFacets(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Rebuild(ctx, seedDocs()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	results, err := idx.Query(ctx, "", interfaces.SearchOptions{Section: "reference"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if results.Total != 1 {
		t.Fatalf("expected 1 hit in reference section, got %d", results.Total)
	}
	if results.Hits[0].Route != "reference/cli" {
		t.Fatalf("unexpected hit %q", results.Hits[0].Route)
	}

	all, err := idx.Query(ctx, "", interfaces.SearchOptions{})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	sections := all.Facets["section"]
	if len(sections) == 0 {
		t.Fatal("expected section facet buckets")
	}
	found := map[string]int{}
	for _, bucket := range sections {
		found[bucket.Term] = bucket.Count
	}
	if found["guides"] != 3 || found["reference"] != 1 {
		t.Fatalf("unexpected section facet counts: %#v", found)
	}
}

func TestQueryPagination(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Rebuild(ctx, seedDocs()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	first, err := idx.Query(ctx, "", interfaces.SearchOptions{Size: 2})
	if err != nil {
		t.Fatalf("query first page: %v", err)
	}
	if len(first.Hits) != 2 || first.Total != 4 {
		t.Fatalf("expected 2 of 4 hits, got %d of %d", len(first.Hits), first.Total)
	}

	second, err := idx.Query(ctx, "", interfaces.SearchOptions{Size: 2, From: 2})
	if err != nil {
		t.Fatalf("query second page: %v", err)
	}
	if len(second.Hits) != 2 {
		t.Fatalf("expected 2 hits on second page, got %d", len(second.Hits))
	}
	if first.Hits[0].Route == second.Hits[0].Route && first.Hits[0].Locale == second.Hits[0].Locale {
		t.Fatal("pagination returned overlapping pages")
	}
}

func TestRebuildRemovesVanishedRoutes(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Rebuild(ctx, seedDocs()); err != nil {
		t.Fatalf("initial rebuild: %v", err)
	}

	kept := seedDocs()[:2]
	if err := idx.Rebuild(ctx, kept); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	count, err := idx.DocCount(ctx)
	if err != nil {
		t.Fatalf("doc count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected vanished routes removed, count=%d", count)
	}

	results, err := idx.Query(ctx, "CLI", interfaces.SearchOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, hit := range results.Hits {
		if hit.Route == "reference/cli" {
			t.Fatal("vanished route still matches")
		}
	}
}

func TestQueryAfterClose(t *testing.T) {
	idx, err := NewMemory()
	if err != nil {
		t.Fatalf("open memory index: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("double close should be a no-op, got %v", err)
	}

	if _, err := idx.Query(context.Background(), "anything", interfaces.SearchOptions{}); !errors.Is(err, ErrIndexClosed) {
		t.Fatalf("expected ErrIndexClosed, got %v", err)
	}
	if err := idx.Rebuild(context.Background(), nil); !errors.Is(err, ErrIndexClosed) {
		t.Fatalf("expected rebuild on closed index to fail, got %v", err)
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/" + DefaultIndexName

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Rebuild(context.Background(), seedDocs()[:1]); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.DocCount(context.Background())
	if err != nil {
		t.Fatalf("doc count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected persisted document, count=%d", count)
	}
}

func TestProjectSkipsDrafts(t *testing.T) {
	docs := []*documents.Document{
		{Route: "published", Locale: "en", Title: "Published", Body: []byte("body")},
		{Route: "hidden", Locale: "en", Title: "Hidden", Draft: true},
	}

	projected := Project(docs)
	if len(projected) != 1 {
		t.Fatalf("expected drafts dropped, got %d docs", len(projected))
	}
	if projected[0].Route != "published" {
		t.Fatalf("unexpected route %q", projected[0].Route)
	}
}

func TestProjectStripsMarkup(t *testing.T) {
	docs := []*documents.Document{
		{
			Route:  "page",
			Locale: "en",
			HTML:   []byte("<h1>Heading</h1>\n<p>Some <strong>bold</strong> text.</p>"),
		},
	}

	projected := Project(docs)
	if got, want := projected[0].Body, "Heading Some bold text."; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
