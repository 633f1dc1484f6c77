package scaffold

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/afero"

	"github.com/goliatone/go-docsite/site"
)

func TestInitSiteWritesStarterTree(t *testing.T) {
	fsys := afero.NewMemMapFs()
	h := NewInitSiteHandler(fsys, nil)

	err := h.Execute(context.Background(), InitSiteCommand{Dir: "mysite", Title: "Ops Handbook"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	for _, p := range []string{
		"mysite/docsite.yml",
		"mysite/docs/index.md",
		"mysite/docs/getting-started.md",
	} {
		exists, err := afero.Exists(fsys, p)
		if err != nil || !exists {
			t.Errorf("missing %s (err=%v)", p, err)
		}
	}

	data, err := afero.ReadFile(fsys, "mysite/docsite.yml")
	if err != nil {
		t.Fatalf("read definition: %v", err)
	}
	if !strings.Contains(string(data), `"Ops Handbook"`) {
		t.Errorf("definition lacks title: %s", data)
	}

	index, _ := afero.ReadFile(fsys, "mysite/docs/index.md")
	if !strings.HasPrefix(string(index), "---\n") {
		t.Error("index.md lacks front matter")
	}
}

func TestInitSiteDefinitionLoads(t *testing.T) {
	fsys := afero.NewOsFs()
	dir := t.TempDir()
	h := NewInitSiteHandler(fsys, nil)

	if err := h.Execute(context.Background(), InitSiteCommand{Dir: dir}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	def, err := site.Load(filepath.Join(dir, "docsite.yml"))
	if err != nil {
		t.Fatalf("scaffolded definition does not load: %v", err)
	}
	if def.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", def.Title, DefaultTitle)
	}
	if len(def.Nav) != 1 || def.Nav[0].Path != "getting-started.md" {
		t.Errorf("nav = %+v", def.Nav)
	}
	if def.Lint.Level != "error" {
		t.Errorf("lint level = %q", def.Lint.Level)
	}
}

func TestInitSiteRefusesOverwrite(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "mysite/docsite.yml", []byte("title: Existing\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	h := NewInitSiteHandler(fsys, nil)
	err := h.Execute(context.Background(), InitSiteCommand{Dir: "mysite"})
	if err == nil {
		t.Fatal("existing site overwritten")
	}

	data, _ := afero.ReadFile(fsys, "mysite/docsite.yml")
	if string(data) != "title: Existing\n" {
		t.Errorf("definition mutated: %s", data)
	}
}

func TestInitSiteForceOverwrites(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "mysite/docsite.yml", []byte("title: Existing\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	h := NewInitSiteHandler(fsys, nil)
	if err := h.Execute(context.Background(), InitSiteCommand{Dir: "mysite", Force: true}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, _ := afero.ReadFile(fsys, "mysite/docsite.yml")
	if !strings.Contains(string(data), DefaultTitle) {
		t.Errorf("definition not rewritten: %s", data)
	}
}

func TestInitSiteRequiresDir(t *testing.T) {
	h := NewInitSiteHandler(afero.NewMemMapFs(), nil)
	err := h.Execute(context.Background(), InitSiteCommand{})
	if err == nil {
		t.Fatal("missing dir accepted")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("category = %v", err)
	}
}
