package lintcmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-docsite/lint"
)

func TestAuditLinksHandlerPassesOverrides(t *testing.T) {
	var got lint.Options
	run := func(ctx context.Context, overrides lint.Options) (*lint.Report, error) {
		got = overrides
		return &lint.Report{Checked: 4}, nil
	}

	var report *lint.Report
	h := NewAuditLinksHandler(run, nil)
	err := h.Execute(context.Background(), AuditLinksCommand{
		Level:    "WARN",
		External: true,
		Callback: func(r *lint.Report) { report = r },
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.Level != "warn" {
		t.Errorf("level = %q, want warn", got.Level)
	}
	if !got.External {
		t.Error("external override dropped")
	}
	if report == nil || report.Checked != 4 {
		t.Fatalf("report = %+v", report)
	}
}

func TestAuditLinksHandlerFailsOnErrors(t *testing.T) {
	run := func(ctx context.Context, overrides lint.Options) (*lint.Report, error) {
		return &lint.Report{
			Issues: []lint.Issue{
				{Kind: lint.IssueNavTargetMissing, Severity: lint.SeverityError, Source: "docsite.yml", Target: "docs/missing.md"},
			},
		}, nil
	}

	var callbackRan bool
	h := NewAuditLinksHandler(run, nil)
	err := h.Execute(context.Background(), AuditLinksCommand{
		Callback: func(*lint.Report) { callbackRan = true },
	})
	if err == nil {
		t.Fatal("failing audit returned nil")
	}
	if !errors.Is(err, ErrIssuesFound) {
		t.Fatalf("error = %v, want ErrIssuesFound", err)
	}
	if !callbackRan {
		t.Error("callback skipped before failure")
	}
}

func TestAuditLinksHandlerValidatesLevel(t *testing.T) {
	run := func(ctx context.Context, overrides lint.Options) (*lint.Report, error) {
		t.Fatal("runner invoked despite invalid message")
		return nil, nil
	}

	h := NewAuditLinksHandler(run, nil)
	err := h.Execute(context.Background(), AuditLinksCommand{Level: "loud"})
	if err == nil {
		t.Fatal("invalid level accepted")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("category = %v", err)
	}
}

func TestAuditLinksHandlerWithoutRunner(t *testing.T) {
	h := NewAuditLinksHandler(nil, nil)
	err := h.Execute(context.Background(), AuditLinksCommand{})
	if err == nil {
		t.Fatal("nil runner accepted")
	}
	if !errors.Is(err, lint.ErrCorpusRequired) {
		t.Fatalf("error = %v", err)
	}
}
