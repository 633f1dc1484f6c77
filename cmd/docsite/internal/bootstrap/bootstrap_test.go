package bootstrap

import (
	"path/filepath"
	"testing"
)

func TestBuildModuleAppliesOverrides(t *testing.T) {
	root := t.TempDir()

	resources, err := BuildModule(Options{
		ContentDir: filepath.Join(root, "docs"),
		OutputDir:  filepath.Join(root, "dist"),
		Locales:    []string{"en", "es"},
	})
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	if resources.Module == nil {
		t.Fatal("expected module to be initialised")
	}
	if resources.Logger == nil {
		t.Fatal("expected a CLI logger")
	}

	cfg := resources.Module.Container().Config()
	if cfg.Content.Dir != filepath.Join(root, "docs") {
		t.Fatalf("expected content dir override, got %q", cfg.Content.Dir)
	}
	if len(cfg.Content.Locales) != 2 {
		t.Fatalf("expected two locales, got %#v", cfg.Content.Locales)
	}
}

func TestBuildModuleServeRequiresFeature(t *testing.T) {
	root := t.TempDir()

	resources, err := BuildModule(Options{
		ContentDir: filepath.Join(root, "docs"),
		OutputDir:  filepath.Join(root, "dist"),
		Serve:      true,
		Addr:       "127.0.0.1:9999",
		Watch:      true,
	})
	if err != nil {
		t.Fatalf("build module: %v", err)
	}

	cfg := resources.Module.Container().Config()
	if !cfg.Features.Serve {
		t.Fatal("expected serve feature to be enabled")
	}
	if cfg.Serve.Addr != "127.0.0.1:9999" {
		t.Fatalf("expected addr override, got %q", cfg.Serve.Addr)
	}
	if !cfg.Serve.Watch {
		t.Fatal("expected watch mode to be enabled")
	}
}

func TestSplitLocales(t *testing.T) {
	if got := SplitLocales(" en, es ,"); len(got) != 2 || got[0] != "en" || got[1] != "es" {
		t.Fatalf("unexpected locales: %#v", got)
	}
	if got := SplitLocales("  "); got != nil {
		t.Fatalf("expected nil for blank input, got %#v", got)
	}
}
