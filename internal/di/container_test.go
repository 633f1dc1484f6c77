package di

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-docsite/internal/builder"
	"github.com/goliatone/go-docsite/internal/runtimeconfig"
	"github.com/goliatone/go-docsite/lint"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/site"
)

func testConfig(t *testing.T) runtimeconfig.Config {
	t.Helper()
	root := t.TempDir()

	docs := filepath.Join(root, "docs")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatalf("mkdir docs: %v", err)
	}
	writeTestFile(t, filepath.Join(docs, "index.md"), "---\ntitle: Home\n---\n\n# Home\n")
	writeTestFile(t, filepath.Join(docs, "guide.md"), "---\ntitle: Guide\n---\n\n# Guide\n")
	writeTestFile(t, filepath.Join(root, "docsite.yml"), strings.Join([]string{
		`title: "Wired Site"`,
		"nav:",
		"  - path: guide.md",
		"",
	}, "\n"))

	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = docs
	cfg.Site.Definition = filepath.Join(root, "docsite.yml")
	cfg.Build.OutputDir = filepath.Join(root, "dist")
	return cfg
}

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewContainerValidatesConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = "  "

	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrContentDirRequired) {
		t.Fatalf("expected ErrContentDirRequired, got %v", err)
	}
}

func TestContainerWiresCoreServices(t *testing.T) {
	container, err := NewContainer(testConfig(t))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	corpus, err := container.Documents()
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if corpus == nil {
		t.Fatal("expected a corpus service")
	}

	if _, err := container.Nav(); err != nil {
		t.Fatalf("Nav: %v", err)
	}
	if _, err := container.Linter(); err != nil {
		t.Fatalf("Linter: %v", err)
	}

	first, err := container.Builder()
	if err != nil {
		t.Fatalf("Builder: %v", err)
	}
	second, err := container.Builder()
	if err != nil {
		t.Fatalf("Builder memoised call: %v", err)
	}
	if first != second {
		t.Fatal("expected the builder to be memoised")
	}
}

func TestContainerBuildsAndServesCorpus(t *testing.T) {
	cfg := testConfig(t)
	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	siteBuilder, err := container.Builder()
	if err != nil {
		t.Fatalf("Builder: %v", err)
	}

	result, err := siteBuilder.Build(context.Background(), builder.BuildOptions{Force: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Pages == 0 {
		t.Fatal("expected pages to be rendered")
	}
	if _, err := os.Stat(filepath.Join(cfg.Build.OutputDir, "guide", "index.html")); err != nil {
		t.Fatalf("expected guide output on disk: %v", err)
	}
}

func TestContainerSearchDisabledReturnsNil(t *testing.T) {
	container, err := NewContainer(testConfig(t))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	index, err := container.Search()
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if index != nil {
		t.Fatal("expected no index while the search feature is off")
	}
}

func TestContainerLeavesSuppliedIndexOpen(t *testing.T) {
	stub := &stubIndex{}
	container, err := NewContainer(testConfig(t), WithSearchIndex(stub))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	index, err := container.Search()
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if index != interfaces.SearchIndex(stub) {
		t.Fatal("expected the supplied index")
	}

	if err := container.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if stub.closed {
		t.Fatal("Shutdown must not close caller-supplied indexes")
	}
}

func TestContainerServeRequiresFeature(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features.Serve = false

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	if _, err := container.Server(); !errors.Is(err, ErrServeDisabled) {
		t.Fatalf("expected ErrServeDisabled, got %v", err)
	}
}

func TestContainerServerWiring(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features.Serve = true
	cfg.Serve.Watch = true

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	srv, err := container.Server()
	if err != nil {
		t.Fatalf("Server: %v", err)
	}
	if srv == nil {
		t.Fatal("expected a preview server")
	}
	if _, err := container.Watcher(); err != nil {
		t.Fatalf("Watcher: %v", err)
	}
	if err := container.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestDefinitionSourceAppliesBaseURLOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Build.BaseURL = "https://docs.example.com"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	def, err := container.DefinitionSource()(context.Background())
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	if def.BaseURL != "https://docs.example.com" {
		t.Fatalf("BaseURL = %q, want the build override", def.BaseURL)
	}

	url, err := container.resolver.DocumentURL("guide", "en")
	if err != nil {
		t.Fatalf("DocumentURL: %v", err)
	}
	if !strings.HasPrefix(url, "https://docs.example.com/") {
		t.Fatalf("canonical url %q should carry the override host", url)
	}
}

func TestAuditOptionsLayering(t *testing.T) {
	cfg := testConfig(t)
	cfg.Lint.Level = "warn"
	cfg.Lint.Anchors = false

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	def := &site.Definition{Title: "T", DefaultLocale: "en"}

	opts := container.auditOptions(def, lint.Options{})
	if opts.Level != "warn" {
		t.Fatalf("config level should fill the empty policy, got %q", opts.Level)
	}
	if opts.Anchors {
		t.Fatal("config should disable anchors when the policy is silent")
	}

	def.Lint.Level = "off"
	opts = container.auditOptions(def, lint.Options{})
	if opts.Level != "off" {
		t.Fatalf("definition level must win over config, got %q", opts.Level)
	}

	opts = container.auditOptions(def, lint.Options{Level: "ERROR", External: true})
	if opts.Level != "error" {
		t.Fatalf("override level must win, got %q", opts.Level)
	}
	if !opts.External {
		t.Fatal("override should switch external probing on")
	}
}

func TestLiveURLResolverRefresh(t *testing.T) {
	resolver := &liveURLResolver{}
	if _, err := resolver.DocumentURL("guide", "en"); err == nil {
		t.Fatal("expected an error before any definition loaded")
	}

	def := &site.Definition{Title: "T", DefaultLocale: "en", BaseURL: "https://a.example"}
	if err := resolver.refresh(def); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	first := resolver.inner
	if err := resolver.refresh(def); err != nil {
		t.Fatalf("refresh same definition: %v", err)
	}
	if resolver.inner != first {
		t.Fatal("unchanged definition must reuse the resolver")
	}

	def.BaseURL = "https://b.example"
	if err := resolver.refresh(def); err != nil {
		t.Fatalf("refresh changed definition: %v", err)
	}
	if resolver.inner == first {
		t.Fatal("base_url change must rebuild the resolver")
	}
	url, err := resolver.DocumentURL("guide", "en")
	if err != nil {
		t.Fatalf("DocumentURL: %v", err)
	}
	if !strings.HasPrefix(url, "https://b.example/") {
		t.Fatalf("url %q should use the refreshed base", url)
	}
}

type stubIndex struct {
	closed bool
}

func (s *stubIndex) Rebuild(context.Context, []interfaces.SearchDocument) error { return nil }

func (s *stubIndex) Query(context.Context, string, interfaces.SearchOptions) (*interfaces.SearchResults, error) {
	return &interfaces.SearchResults{}, nil
}

func (s *stubIndex) DocCount(context.Context) (uint64, error) { return 0, nil }

func (s *stubIndex) Close() error {
	s.closed = true
	return nil
}
