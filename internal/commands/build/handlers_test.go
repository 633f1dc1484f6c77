package build

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-docsite/internal/builder"
)

type stubService struct {
	buildOpts *builder.BuildOptions
	buildErr  error
	cleaned   bool
	cleanErr  error
}

func (s *stubService) Build(ctx context.Context, opts builder.BuildOptions) (*builder.BuildResult, error) {
	s.buildOpts = &opts
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	return &builder.BuildResult{Pages: 5}, nil
}

func (s *stubService) Clean(ctx context.Context) error {
	s.cleaned = true
	return s.cleanErr
}

func TestBuildSiteHandlerRunsBuild(t *testing.T) {
	service := &stubService{}
	var envelope *ResultEnvelope
	h := NewBuildSiteHandler(service, nil)

	msg := BuildSiteCommand{
		Locales: []string{"en", "EN", " es "},
		Force:   true,
		Callback: func(e ResultEnvelope) {
			envelope = &e
		},
	}
	if err := h.Execute(context.Background(), msg); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if service.buildOpts == nil {
		t.Fatal("Build not invoked")
	}
	if !service.buildOpts.Force {
		t.Error("force flag dropped")
	}
	if len(service.buildOpts.Locales) != 2 {
		t.Errorf("locales = %v, want deduped en/es", service.buildOpts.Locales)
	}
	if envelope == nil || envelope.Result == nil || envelope.Result.Pages != 5 {
		t.Fatalf("envelope = %+v", envelope)
	}
	if envelope.Metadata["operation"] != "build" {
		t.Errorf("metadata = %v", envelope.Metadata)
	}
}

func TestBuildSiteHandlerValidatesLocales(t *testing.T) {
	service := &stubService{}
	h := NewBuildSiteHandler(service, nil)

	err := h.Execute(context.Background(), BuildSiteCommand{Locales: []string{"  "}})
	if err == nil {
		t.Fatal("empty locale accepted")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("category = %v", err)
	}
	if service.buildOpts != nil {
		t.Error("build ran despite validation failure")
	}
}

func TestBuildSiteHandlerPropagatesBuildError(t *testing.T) {
	service := &stubService{buildErr: errors.New("lint gate")}
	var callbackRan bool
	h := NewBuildSiteHandler(service, nil)

	err := h.Execute(context.Background(), BuildSiteCommand{
		Callback: func(ResultEnvelope) { callbackRan = true },
	})
	if err == nil {
		t.Fatal("build error swallowed")
	}
	if !callbackRan {
		t.Error("callback skipped on failure")
	}
}

func TestBuildSiteHandlerWithoutService(t *testing.T) {
	h := NewBuildSiteHandler(nil, nil)
	err := h.Execute(context.Background(), BuildSiteCommand{})
	if err == nil {
		t.Fatal("nil service accepted")
	}
	if !errors.Is(err, builder.ErrDisabled) {
		t.Fatalf("error = %v, want ErrDisabled", err)
	}
}

func TestCleanSiteHandler(t *testing.T) {
	service := &stubService{}
	h := NewCleanSiteHandler(service, nil)

	if err := h.Execute(context.Background(), CleanSiteCommand{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !service.cleaned {
		t.Fatal("Clean not invoked")
	}

	service.cleanErr = errors.New("no manifest")
	if err := h.Execute(context.Background(), CleanSiteCommand{}); err == nil {
		t.Fatal("clean error swallowed")
	}
}
