package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/goliatone/go-docsite/internal/builder"
	buildcmd "github.com/goliatone/go-docsite/internal/commands/build"
	"github.com/goliatone/go-docsite/internal/commands/lintcmd"
	"github.com/goliatone/go-docsite/internal/commands/searchcmd"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

type stubHandlers struct {
	build  *stubBuildHandler
	clean  *stubCleanHandler
	lint   *stubLintHandler
	search *stubSearchHandler
}

type stubBuildHandler struct {
	last buildcmd.BuildSiteCommand
}

func (s *stubBuildHandler) Execute(ctx context.Context, msg buildcmd.BuildSiteCommand) error {
	s.last = msg
	if msg.Callback != nil {
		msg.Callback(buildcmd.ResultEnvelope{
			Result: &builder.BuildResult{
				Pages:  3,
				Assets: 2,
			},
			Metadata: map[string]any{"operation": "build"},
		})
	}
	return nil
}

type stubCleanHandler struct {
	calls int
	err   error
}

func (s *stubCleanHandler) Execute(ctx context.Context, msg buildcmd.CleanSiteCommand) error {
	s.calls++
	return s.err
}

type stubLintHandler struct {
	last lintcmd.AuditLinksCommand
	err  error
}

func (s *stubLintHandler) Execute(ctx context.Context, msg lintcmd.AuditLinksCommand) error {
	s.last = msg
	return s.err
}

type stubSearchHandler struct {
	last searchcmd.QueryCommand
}

func (s *stubSearchHandler) Execute(ctx context.Context, msg searchcmd.QueryCommand) error {
	s.last = msg
	if msg.Callback != nil {
		msg.Callback(&interfaces.SearchResults{
			Total: 1,
			Hits: []interfaces.SearchHit{
				{Route: "guide", Locale: "en", Title: "Guide"},
			},
		})
	}
	return nil
}

var activeStubHandlers *stubHandlers

func withStubModule(t *testing.T) {
	t.Helper()
	original := moduleBuilder
	stubs := &stubHandlers{
		build:  &stubBuildHandler{},
		clean:  &stubCleanHandler{},
		lint:   &stubLintHandler{},
		search: &stubSearchHandler{},
	}
	activeStubHandlers = stubs

	moduleBuilder = func(opts moduleOptions) (*moduleResources, error) {
		return &moduleResources{
			handlers: handlerSet{
				build:  stubs.build,
				clean:  stubs.clean,
				lint:   stubs.lint,
				search: stubs.search,
			},
		}, nil
	}

	t.Cleanup(func() {
		moduleBuilder = original
		activeStubHandlers = nil
	})
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOutput := log.Writer()
	prevFlags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOutput)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestRunBuild_UsesCommandHandler(t *testing.T) {
	withStubModule(t)
	buf := captureLogs(t)

	if err := run([]string{"build", "-locales", "en,es", "-force", "-drafts"}); err != nil {
		t.Fatalf("run build: %v", err)
	}

	got := activeStubHandlers.build.last
	if len(got.Locales) != 2 || got.Locales[0] != "en" || got.Locales[1] != "es" {
		t.Fatalf("expected locales en,es, got %#v", got.Locales)
	}
	if !got.Force {
		t.Fatal("expected force flag to be set")
	}
	if !got.IncludeDrafts {
		t.Fatal("expected drafts flag to be set")
	}
	if !strings.Contains(buf.String(), "module=build operation=build summary") {
		t.Fatalf("expected build summary log, got %q", buf.String())
	}
}

func TestRunClean_UsesCommandHandler(t *testing.T) {
	withStubModule(t)
	buf := captureLogs(t)

	if err := run([]string{"clean", "-out", "dist"}); err != nil {
		t.Fatalf("run clean: %v", err)
	}
	if activeStubHandlers.clean.calls != 1 {
		t.Fatalf("expected one clean call, got %d", activeStubHandlers.clean.calls)
	}
	if !strings.Contains(buf.String(), "operation=clean") {
		t.Fatalf("expected clean log, got %q", buf.String())
	}
}

func TestRunLint_PropagatesIssues(t *testing.T) {
	withStubModule(t)
	captureLogs(t)

	activeStubHandlers.lint.err = lintcmd.ErrIssuesFound
	err := run([]string{"lint", "-external", "-level", "warn"})
	if err == nil {
		t.Fatal("expected lint failure to propagate")
	}
	if !errors.Is(err, lintcmd.ErrIssuesFound) {
		t.Fatalf("expected ErrIssuesFound, got %v", err)
	}

	got := activeStubHandlers.lint.last
	if !got.External {
		t.Fatal("expected external flag to be set")
	}
	if got.Level != "warn" {
		t.Fatalf("expected level warn, got %q", got.Level)
	}
}

func TestRunSearch_JoinsPositionalTerm(t *testing.T) {
	withStubModule(t)
	captureLogs(t)

	if err := run([]string{"search", "-n", "5", "binary", "search"}); err != nil {
		t.Fatalf("run search: %v", err)
	}

	got := activeStubHandlers.search.last
	if got.Term != "binary search" {
		t.Fatalf("expected joined term, got %q", got.Term)
	}
	if got.Size != 5 {
		t.Fatalf("expected size 5, got %d", got.Size)
	}
}

func TestRunSearch_RequiresTerm(t *testing.T) {
	withStubModule(t)
	captureLogs(t)

	if err := run([]string{"search"}); err == nil {
		t.Fatal("expected an error without a search term")
	}
}
