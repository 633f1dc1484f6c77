package searchcmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

type stubIndex struct {
	term string
	opts interfaces.SearchOptions
	err  error
}

func (s *stubIndex) Rebuild(ctx context.Context, docs []interfaces.SearchDocument) error { return nil }

func (s *stubIndex) Query(ctx context.Context, term string, opts interfaces.SearchOptions) (*interfaces.SearchResults, error) {
	s.term = term
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return &interfaces.SearchResults{Total: 2}, nil
}

func (s *stubIndex) DocCount(ctx context.Context) (uint64, error) { return 2, nil }
func (s *stubIndex) Close() error                                 { return nil }

func TestQueryHandlerRunsQuery(t *testing.T) {
	index := &stubIndex{}
	var results *interfaces.SearchResults
	h := NewQueryHandler(index, nil)

	err := h.Execute(context.Background(), QueryCommand{
		Term:     " workers ",
		Locale:   "es",
		Callback: func(r *interfaces.SearchResults) { results = r },
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if index.term != "workers" {
		t.Errorf("term = %q, want trimmed workers", index.term)
	}
	if index.opts.Locale != "es" {
		t.Errorf("locale = %q", index.opts.Locale)
	}
	if index.opts.Size != defaultQuerySize {
		t.Errorf("size = %d, want default %d", index.opts.Size, defaultQuerySize)
	}
	if results == nil || results.Total != 2 {
		t.Fatalf("results = %+v", results)
	}
}

func TestQueryHandlerRequiresTerm(t *testing.T) {
	index := &stubIndex{}
	h := NewQueryHandler(index, nil)

	err := h.Execute(context.Background(), QueryCommand{})
	if err == nil {
		t.Fatal("empty term accepted")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("category = %v", err)
	}
	if index.term != "" {
		t.Error("query ran despite validation failure")
	}
}

func TestQueryHandlerRejectsOversizedPage(t *testing.T) {
	h := NewQueryHandler(&stubIndex{}, nil)
	if err := h.Execute(context.Background(), QueryCommand{Term: "x", Size: maxQuerySize + 1}); err == nil {
		t.Fatal("oversized page accepted")
	}
}

func TestQueryHandlerWithoutIndex(t *testing.T) {
	h := NewQueryHandler(nil, nil)
	err := h.Execute(context.Background(), QueryCommand{Term: "anything"})
	if err == nil {
		t.Fatal("nil index accepted")
	}
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("error = %v", err)
	}
}

func TestQueryHandlerPropagatesIndexError(t *testing.T) {
	index := &stubIndex{err: errors.New("index corrupt")}
	h := NewQueryHandler(index, nil)
	if err := h.Execute(context.Background(), QueryCommand{Term: "x"}); err == nil {
		t.Fatal("index error swallowed")
	}
}
