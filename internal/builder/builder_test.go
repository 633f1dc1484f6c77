package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/spf13/afero"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/internal/urls"
	"github.com/goliatone/go-docsite/lint"
	"github.com/goliatone/go-docsite/nav"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/site"
)

var buildTime = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

type fakeDocs struct {
	mu            sync.Mutex
	docs          []*documents.Document
	defaultLocale string
	knownLocales  []string
	scans         int
}

func (f *fakeDocs) Scan(context.Context) (*documents.ScanSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	return &documents.ScanSummary{Documents: len(f.docs)}, nil
}

func (f *fakeDocs) Get(_ context.Context, route string, opts ...documents.GetOption) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := f.optLocale(opts)
	var exact, fallback *documents.Document
	for _, doc := range f.docs {
		if doc.Route != route {
			continue
		}
		if wanted != "" && strings.EqualFold(doc.Locale, wanted) {
			exact = doc
		}
		if strings.EqualFold(doc.Locale, f.defaultLocale) {
			fallback = doc
		}
	}
	if exact != nil {
		return exact, nil
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, &documents.NotFoundError{Route: route, Locale: wanted}
}

func (f *fakeDocs) GetByPath(_ context.Context, sourcePath string) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc.SourcePath == sourcePath {
			return doc, nil
		}
	}
	return nil, &documents.NotFoundError{Path: sourcePath}
}

func (f *fakeDocs) List(_ context.Context, opts ...documents.ListOption) ([]*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := f.optLocale(opts)
	includeDrafts := false
	for _, opt := range opts {
		if opt == documents.WithDrafts() {
			includeDrafts = true
		}
	}
	var out []*documents.Document
	for _, doc := range f.docs {
		if doc.Draft && !includeDrafts {
			continue
		}
		if wanted != "" && !strings.EqualFold(doc.Locale, wanted) {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Route == out[j].Route {
			return out[i].Locale < out[j].Locale
		}
		return out[i].Route < out[j].Route
	})
	return out, nil
}

func (f *fakeDocs) Routes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, doc := range f.docs {
		if seen[doc.Route] {
			continue
		}
		seen[doc.Route] = true
		out = append(out, doc.Route)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeDocs) Translations(_ context.Context, route string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, doc := range f.docs {
		if doc.Route == route {
			out = append(out, doc.Locale)
		}
	}
	sort.Strings(out)
	return out, nil
}

// optLocale recovers the locale a caller asked for by matching against the
// fixture's known locales through the public option constructor.
func (f *fakeDocs) optLocale(opts []documents.GetOption) string {
	for _, locale := range f.knownLocales {
		token := documents.InLocale(locale)
		for _, opt := range opts {
			if opt != "" && opt == token {
				return locale
			}
		}
	}
	return ""
}

type fakeNav struct {
	resolved *nav.Resolved
	err      error
}

func (f *fakeNav) Build(context.Context, *site.Definition) (*nav.Resolved, error) {
	return f.resolved, f.err
}

func (f *fakeNav) AutoBuild(context.Context, *site.Definition) (*nav.Resolved, error) {
	return f.resolved, f.err
}

type renderCall struct {
	name string
	ctx  render.PageContext
}

type recordingRenderer struct {
	mu    sync.Mutex
	calls []renderCall
	fail  map[string]error
}

func (r *recordingRenderer) Render(_ context.Context, name string, data any) (string, error) {
	pc, ok := data.(render.PageContext)
	if !ok {
		return "", fmt.Errorf("unexpected render data type %T", data)
	}
	r.mu.Lock()
	r.calls = append(r.calls, renderCall{name: name, ctx: pc})
	err := r.fail[name]
	r.mu.Unlock()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<html data-template=%q data-route=%q data-locale=%q>%s</html>",
		name, pc.Page.Route, pc.Page.Locale, pc.Page.HTML), nil
}

func (r *recordingRenderer) RenderString(_ context.Context, template string, _ any) (string, error) {
	return template, nil
}

func (r *recordingRenderer) RegisterFilter(string, func(any, any) (any, error)) error { return nil }

func (r *recordingRenderer) GlobalContext(map[string]any) error { return nil }

func (r *recordingRenderer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingRenderer) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

type recordingSearch struct {
	mu       sync.Mutex
	rebuilds [][]interfaces.SearchDocument
}

func (s *recordingSearch) Rebuild(_ context.Context, docs []interfaces.SearchDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuilds = append(s.rebuilds, docs)
	return nil
}

func (s *recordingSearch) Query(context.Context, string, interfaces.SearchOptions) (*interfaces.SearchResults, error) {
	return &interfaces.SearchResults{}, nil
}

func (s *recordingSearch) DocCount(context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rebuilds) == 0 {
		return 0, nil
	}
	return uint64(len(s.rebuilds[len(s.rebuilds)-1])), nil
}

func (s *recordingSearch) Close() error { return nil }

type stubAuditor struct {
	report *lint.Report
	err    error
	calls  int
}

func (a *stubAuditor) Audit(context.Context, *nav.Resolved, lint.Options) (*lint.Report, error) {
	a.calls++
	return a.report, a.err
}

type fixture struct {
	def      *site.Definition
	docs     *fakeDocs
	navb     *fakeNav
	renderer *recordingRenderer
	search   *recordingSearch
	pub      *FSPublisher
	builder  *Builder
}

func testDefinition() *site.Definition {
	return &site.Definition{
		Title:         "Helm Docs",
		Description:   "Operator guides",
		BaseURL:       "https://docs.example.com",
		Language:      "en",
		Locales:       []string{"en", "es"},
		DefaultLocale: "en",
		Static:        []string{"assets"},
		Lint:          site.LintPolicy{Level: "warn"},
	}
}

func testDocuments() []*documents.Document {
	return []*documents.Document{
		{
			Route:      "",
			SourcePath: "index.md",
			Locale:     "en",
			Title:      "Home",
			Summary:    "Welcome",
			Date:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			Checksum:   "sum-home-en",
			HTML:       []byte("<p>welcome</p>"),
		},
		{
			Route:      "guides/intro",
			Section:    "guides",
			SourcePath: "guides/intro.md",
			Locale:     "en",
			Title:      "Intro",
			Summary:    "Getting started",
			Date:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			Checksum:   "sum-intro-en",
			HTML:       []byte("<p>intro</p>"),
		},
		{
			Route:      "guides/intro",
			Section:    "guides",
			SourcePath: "guides/intro.es.md",
			Locale:     "es",
			Title:      "Introduccion",
			Summary:    "Primeros pasos",
			Date:       time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
			Checksum:   "sum-intro-es",
			HTML:       []byte("<p>introduccion</p>"),
		},
		{
			Route:      "guides/advanced",
			Section:    "guides",
			SourcePath: "guides/advanced.md",
			Locale:     "en",
			Title:      "Advanced",
			Checksum:   "sum-advanced-en",
			HTML:       []byte("<p>advanced</p>"),
		},
		{
			Route:      "guides/draft",
			Section:    "guides",
			SourcePath: "guides/draft.md",
			Locale:     "en",
			Title:      "Unfinished",
			Draft:      true,
			Checksum:   "sum-draft-en",
			HTML:       []byte("<p>wip</p>"),
		},
	}
}

func testTree() *nav.Resolved {
	return &nav.Resolved{Tree: &nav.Tree{Roots: []*nav.Node{
		{
			Label: "Guides",
			Depth: 0,
			Children: []*nav.Node{
				{Label: "Intro", Route: "guides/intro", URL: "/guides/intro/", Depth: 1},
				{Label: "Advanced", Route: "guides/advanced", URL: "/guides/advanced/", Depth: 1, Position: 1},
			},
		},
	}}}
}

func testConfig() Config {
	return Config{
		Enabled:     true,
		OutputDir:   "public",
		CleanURLs:   true,
		Sitemap:     true,
		Robots:      true,
		Feeds:       true,
		SearchIndex: true,
		Workers:     2,
	}
}

func newFixture(t *testing.T, cfg Config, mutate func(*fixture)) *fixture {
	t.Helper()

	f := &fixture{
		def:      testDefinition(),
		renderer: &recordingRenderer{},
		search:   &recordingSearch{},
	}
	f.docs = &fakeDocs{
		docs:          testDocuments(),
		defaultLocale: f.def.DefaultLocale,
		knownLocales:  f.def.AllLocales(),
	}
	f.navb = &fakeNav{resolved: testTree()}
	if mutate != nil {
		mutate(f)
	}

	pub, err := NewPublisher(afero.NewMemMapFs(), cfg.OutputDir)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	f.pub = pub

	resolver, err := urls.NewResolver(f.def)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	siteFS := fstest.MapFS{
		"assets/css/extra.css": {Data: []byte("body{margin:0}")},
		"assets/img/logo.svg":  {Data: []byte("<svg/>")},
	}
	contentFS := fstest.MapFS{
		"index.md":           {Data: []byte("# home")},
		"guides/intro.md":    {Data: []byte("# intro")},
		"guides/diagram.png": {Data: []byte("png-bytes")},
		"_snippets/note.md":  {Data: []byte("ignored")},
	}

	b, err := New(cfg, Dependencies{
		Definition: StaticDefinition(f.def),
		Documents:  f.docs,
		Nav:        f.navb,
		Renderer:   f.renderer,
		Search:     f.search,
		Publisher:  pub,
		URLs:       resolver,
	},
		WithSourceFS(contentFS),
		WithSiteFS(siteFS),
		WithClock(func() time.Time { return buildTime }),
	)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	f.builder = b
	return f
}

func (f *fixture) readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(f.pub.Fs(), path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func (f *fixture) outputExists(path string) bool {
	ok, _ := afero.Exists(f.pub.Fs(), path)
	return ok
}

func TestBuildFullSite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(), nil)

	result, err := f.builder.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// 4 document outputs per locale (home, intro, advanced, section landing)
	// plus a search page each, plus 404.html.
	if result.Pages != 11 {
		t.Fatalf("expected 11 pages, got %d", result.Pages)
	}
	if result.PagesSkipped != 0 {
		t.Fatalf("expected no skips on a cold build, got %d", result.PagesSkipped)
	}
	if result.Assets != 3 {
		t.Fatalf("expected 3 copied assets, got %d", result.Assets)
	}
	if result.SearchDocs != 4 {
		t.Fatalf("expected 4 indexed documents, got %d", result.SearchDocs)
	}

	for _, path := range []string{
		"index.html",
		"guides/intro/index.html",
		"guides/advanced/index.html",
		"guides/index.html",
		"search/index.html",
		"es/index.html",
		"es/guides/intro/index.html",
		"es/guides/advanced/index.html",
		"es/guides/index.html",
		"es/search/index.html",
		"404.html",
		"css/extra.css",
		"img/logo.svg",
		"guides/diagram.png",
		"sitemap.xml",
		"robots.txt",
		"feeds/en.rss.xml",
		"feeds/en.atom.xml",
		"feeds/es.rss.xml",
		"feeds/es.atom.xml",
		"feed.xml",
		"feed.atom.xml",
		ManifestFileName,
	} {
		if !f.outputExists(path) {
			t.Fatalf("expected output %s", path)
		}
	}

	if f.outputExists("guides/draft/index.html") {
		t.Fatal("draft pages must stay out of the output tree")
	}
	if f.outputExists("_snippets/note.md") || f.outputExists("guides/intro.md") {
		t.Fatal("markdown sources must not be copied into the output tree")
	}

	home := f.readOutput(t, "index.html")
	if !strings.Contains(home, `data-route=""`) || !strings.Contains(home, "<p>welcome</p>") {
		t.Fatalf("unexpected home output %q", home)
	}
	esIntro := f.readOutput(t, "es/guides/intro/index.html")
	if !strings.Contains(esIntro, "<p>introduccion</p>") {
		t.Fatalf("expected the es translation to render, got %q", esIntro)
	}
	esAdvanced := f.readOutput(t, "es/guides/advanced/index.html")
	if !strings.Contains(esAdvanced, `data-locale="es"`) || !strings.Contains(esAdvanced, "<p>advanced</p>") {
		t.Fatalf("expected the fallback document under the es prefix, got %q", esAdvanced)
	}
	section := f.readOutput(t, "guides/index.html")
	if !strings.Contains(section, `data-template="section.html"`) {
		t.Fatalf("expected the section template for landing pages, got %q", section)
	}

	sitemap := f.readOutput(t, "sitemap.xml")
	if !strings.Contains(sitemap, "https://docs.example.com/guides/intro/") {
		t.Fatalf("expected canonical locations in the sitemap, got %q", sitemap)
	}
	if !strings.Contains(sitemap, `hreflang="x-default"`) {
		t.Fatal("expected x-default alternates for a multi-locale site")
	}
	if !strings.Contains(sitemap, "https://docs.example.com/guides/advanced/") {
		t.Fatal("expected undated documents in the sitemap")
	}
	if strings.Contains(sitemap, "guides/draft") {
		t.Fatal("draft routes must stay out of the sitemap")
	}

	robots := f.readOutput(t, "robots.txt")
	if !strings.Contains(robots, "Sitemap: https://docs.example.com/sitemap.xml") {
		t.Fatalf("expected sitemap reference in robots.txt, got %q", robots)
	}

	enFeed := f.readOutput(t, "feeds/en.rss.xml")
	if !strings.Contains(enFeed, "<title>Helm Docs</title>") {
		t.Fatalf("expected site title in the default feed, got %q", enFeed)
	}
	if strings.Contains(enFeed, "guides/advanced") {
		t.Fatal("undated documents must stay out of feeds")
	}
	if enFeed != f.readOutput(t, "feed.xml") {
		t.Fatal("expected feed.xml to alias the default locale feed")
	}
	esFeed := f.readOutput(t, "feeds/es.rss.xml")
	if !strings.Contains(esFeed, "<title>Helm Docs (ES)</title>") {
		t.Fatalf("expected locale-tagged title, got %q", esFeed)
	}
	if strings.Contains(esFeed, "guides/advanced") {
		t.Fatal("fallback documents must not leak into locale feeds")
	}

	f.search.mu.Lock()
	rebuilds := len(f.search.rebuilds)
	f.search.mu.Unlock()
	if rebuilds != 1 {
		t.Fatalf("expected one search rebuild, got %d", rebuilds)
	}
}

func TestBuildIncrementalSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(), nil)

	if _, err := f.builder.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	f.renderer.reset()

	second, err := f.builder.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.Pages != 0 || second.PagesSkipped != 11 {
		t.Fatalf("expected everything skipped, got pages=%d skipped=%d", second.Pages, second.PagesSkipped)
	}
	if second.Assets != 0 || second.AssetsSkipped != 3 {
		t.Fatalf("expected assets skipped, got copied=%d skipped=%d", second.Assets, second.AssetsSkipped)
	}
	if f.renderer.callCount() != 0 {
		t.Fatalf("expected no render calls on a clean rebuild, got %d", f.renderer.callCount())
	}

	// A changed document re-renders every output derived from it, here the
	// en page plus its es fallback copy.
	f.docs.mu.Lock()
	for _, doc := range f.docs.docs {
		if doc.Route == "guides/advanced" {
			doc.Checksum = "sum-advanced-en-v2"
			doc.HTML = []byte("<p>advanced v2</p>")
		}
	}
	f.docs.mu.Unlock()

	third, err := f.builder.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if third.Pages != 2 || third.PagesSkipped != 9 {
		t.Fatalf("expected 2 renders after one change, got pages=%d skipped=%d", third.Pages, third.PagesSkipped)
	}
	if got := f.readOutput(t, "guides/advanced/index.html"); !strings.Contains(got, "advanced v2") {
		t.Fatalf("expected refreshed output, got %q", got)
	}

	forced, err := f.builder.Build(ctx, BuildOptions{Force: true})
	if err != nil {
		t.Fatalf("forced build: %v", err)
	}
	if forced.Pages != 11 || forced.PagesSkipped != 0 {
		t.Fatalf("expected force to re-render everything, got pages=%d skipped=%d", forced.Pages, forced.PagesSkipped)
	}
}

func TestBuildDeterministicOutputs(t *testing.T) {
	ctx := context.Background()

	first := newFixture(t, testConfig(), nil)
	if _, err := first.builder.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	second := newFixture(t, testConfig(), nil)
	if _, err := second.builder.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("second build: %v", err)
	}

	for _, path := range []string{"sitemap.xml", "feed.xml", "feed.atom.xml", ManifestFileName, "index.html"} {
		if first.readOutput(t, path) != second.readOutput(t, path) {
			t.Fatalf("expected identical %s across identical builds", path)
		}
	}
}

func TestBuildCollisionFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(), func(f *fixture) {
		tree := testTree()
		tree.Tree.Roots = append(tree.Tree.Roots, &nav.Node{
			Label: "guides",
			Children: []*nav.Node{
				{Label: "Intro", Route: "guides/intro", URL: "/guides/intro/", Depth: 1},
			},
		})
		f.navb.resolved = tree
	})

	_, err := f.builder.Build(ctx, BuildOptions{})
	var collision *CollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("expected a collision error, got %v", err)
	}
	if collision.Output != "guides/index.html" {
		t.Fatalf("expected the clash at guides/index.html, got %s", collision.Output)
	}
	if collision.First == "" || collision.Second == "" {
		t.Fatalf("expected both inputs named, got %+v", collision)
	}
}

func TestBuildLintGate(t *testing.T) {
	ctx := context.Background()

	failing := &lint.Report{Issues: []lint.Issue{{
		Kind:     lint.IssueNavTargetMissing,
		Severity: lint.SeverityError,
		Source:   "docs/missing.md",
		Detail:   "navigation target does not exist",
	}}}

	f := newFixture(t, testConfig(), func(f *fixture) {
		f.def.Lint.Level = "error"
	})
	auditor := &stubAuditor{report: failing}
	f.builder.deps.Linter = auditor

	result, err := f.builder.Build(ctx, BuildOptions{})
	if !errors.Is(err, ErrLintGate) {
		t.Fatalf("expected lint gate failure, got %v", err)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("expected issues surfaced on the result, got %d", len(result.Issues))
	}
	if f.outputExists("index.html") {
		t.Fatal("expected no pages written when the gate fails")
	}

	// At warn level the same report lets the build through.
	warn := newFixture(t, testConfig(), func(f *fixture) {
		f.def.Lint.Level = "warn"
	})
	warn.builder.deps.Linter = &stubAuditor{report: failing}
	if _, err := warn.builder.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("expected warn level to build, got %v", err)
	}
}

func TestBuildRenderFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(), func(f *fixture) {
		f.renderer.fail = map[string]error{"page.html": errors.New("template exploded")}
	})

	_, err := f.builder.Build(ctx, BuildOptions{})
	if err == nil || !strings.Contains(err.Error(), "template exploded") {
		t.Fatalf("expected the render failure to surface, got %v", err)
	}
	if f.outputExists("index.html") || f.outputExists(ManifestFileName) {
		t.Fatal("expected no outputs after a failed render pass")
	}
}

func TestBuildLocaleSubset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(), nil)

	if _, err := f.builder.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("full build: %v", err)
	}

	// Partial builds merge into the manifest instead of replacing it.
	f.docs.mu.Lock()
	for _, doc := range f.docs.docs {
		if doc.Route == "guides/intro" && doc.Locale == "es" {
			doc.Checksum = "sum-intro-es-v2"
			doc.HTML = []byte("<p>introduccion v2</p>")
		}
	}
	f.docs.mu.Unlock()

	result, err := f.builder.Build(ctx, BuildOptions{Locales: []string{"es"}})
	if err != nil {
		t.Fatalf("partial build: %v", err)
	}
	if result.Pages != 1 {
		t.Fatalf("expected only the changed es page to render, got %d", result.Pages)
	}

	data, err := f.pub.Manifest(ctx)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	man, err := parseManifest(data)
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if _, ok := man.lookupPage("guides/intro", "en"); !ok {
		t.Fatal("expected en entries to survive a partial es build")
	}

	if _, err := f.builder.Build(ctx, BuildOptions{Locales: []string{"fr"}}); err == nil {
		t.Fatal("expected unknown locale to fail the build")
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.SearchIndex = false
	f := newFixture(t, cfg, func(f *fixture) {
		f.def.Locales = nil
		f.def.Static = nil
		f.docs.docs = nil
		f.docs.knownLocales = f.def.AllLocales()
		f.navb.resolved = &nav.Resolved{Tree: &nav.Tree{}}
		f.search = nil
	})
	f.builder.deps.Search = nil

	result, err := f.builder.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("empty corpus build: %v", err)
	}
	// A synthesized home plus the 404 page.
	if result.Pages != 2 {
		t.Fatalf("expected 2 pages for an empty corpus, got %d", result.Pages)
	}
	if !f.outputExists("index.html") || !f.outputExists("404.html") {
		t.Fatal("expected home and 404 outputs")
	}
	home := f.readOutput(t, "index.html")
	if !strings.Contains(home, `data-template="section.html"`) {
		t.Fatalf("expected the synthesized home to use the section template, got %q", home)
	}
}

func TestBuildStaleOutputsSwept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(), nil)

	if _, err := f.builder.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if !f.outputExists("guides/advanced/index.html") {
		t.Fatal("expected advanced page from the first build")
	}

	f.docs.mu.Lock()
	kept := f.docs.docs[:0]
	for _, doc := range f.docs.docs {
		if doc.Route != "guides/advanced" {
			kept = append(kept, doc)
		}
	}
	f.docs.docs = kept
	f.docs.mu.Unlock()

	if _, err := f.builder.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("second build: %v", err)
	}
	if f.outputExists("guides/advanced/index.html") || f.outputExists("es/guides/advanced/index.html") {
		t.Fatal("expected removed documents to leave the output tree")
	}
}

func TestBuildPage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(), nil)

	if _, err := f.builder.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}

	f.docs.mu.Lock()
	for _, doc := range f.docs.docs {
		if doc.Route == "guides/intro" && doc.Locale == "en" {
			doc.HTML = []byte("<p>intro refreshed</p>")
		}
	}
	f.docs.mu.Unlock()
	f.renderer.reset()

	if err := f.builder.BuildPage(ctx, "/guides/intro/"); err != nil {
		t.Fatalf("build page: %v", err)
	}
	if f.renderer.callCount() != 2 {
		t.Fatalf("expected both locale outputs re-rendered, got %d", f.renderer.callCount())
	}
	if got := f.readOutput(t, "guides/intro/index.html"); !strings.Contains(got, "intro refreshed") {
		t.Fatalf("expected refreshed output, got %q", got)
	}

	if err := f.builder.BuildPage(ctx, "missing/route"); err == nil {
		t.Fatal("expected unknown route to error")
	}
}

func TestCleanRemovesRecordedOutputs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(), nil)

	if _, err := f.builder.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := f.builder.Clean(ctx); err != nil {
		t.Fatalf("clean: %v", err)
	}

	for _, path := range []string{
		"index.html", "guides/intro/index.html", "es/index.html",
		"sitemap.xml", "robots.txt", "feed.xml", "css/extra.css", ManifestFileName,
	} {
		if f.outputExists(path) {
			t.Fatalf("expected %s removed by clean", path)
		}
	}

	// A second clean has nothing to do and must not fail.
	if err := f.builder.Clean(ctx); err != nil {
		t.Fatalf("second clean: %v", err)
	}
}

func TestBuildDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	f := newFixture(t, cfg, nil)

	if _, err := f.builder.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if err := f.builder.BuildPage(context.Background(), "guides/intro"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled for page builds, got %v", err)
	}
}

func TestBuildNavErrorsWithoutLinter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(), func(f *fixture) {
		f.navb.resolved.Issues = append(f.navb.resolved.Issues, nav.Issue{
			Severity: nav.SeverityError,
			Path:     "docs/missing.md",
			Reason:   "navigation target does not exist",
		})
	})

	_, err := f.builder.Build(ctx, BuildOptions{})
	if err == nil || !strings.Contains(err.Error(), "docs/missing.md") {
		t.Fatalf("expected unresolved navigation to fail the build, got %v", err)
	}
}
