package render

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	gotheme "github.com/goliatone/go-theme"
)

type stubManifestLoader struct {
	manifest *gotheme.Manifest
	err      error
	calls    int
	lastPath string
}

func (s *stubManifestLoader) Load(themePath string) (*gotheme.Manifest, error) {
	s.calls++
	s.lastPath = themePath
	if s.err != nil {
		return nil, s.err
	}
	return s.manifest, nil
}

func TestSelectionWithoutThemeName(t *testing.T) {
	selector := NewThemeSelector(ThemeConfig{BasePath: "themes"}, &stubManifestLoader{})

	selection, err := selector.Selection(ThemeRef{})
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	if selection != nil {
		t.Fatal("expected nil selection when no theme is configured")
	}
}

func TestSelectionLoaderErrorPropagates(t *testing.T) {
	loader := &stubManifestLoader{err: errors.New("manifest missing")}
	selector := NewThemeSelector(ThemeConfig{BasePath: "themes"}, loader)

	_, err := selector.Selection(ThemeRef{Name: "docs"})
	if err == nil || !errors.Is(err, loader.err) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if loader.lastPath != filepath.Join("themes", "docs") {
		t.Fatalf("expected conventional theme dir, got %q", loader.lastPath)
	}
}

func TestThemeDirResolution(t *testing.T) {
	selector := NewThemeSelector(ThemeConfig{BasePath: "themes", DefaultTheme: "docs"}, &stubManifestLoader{})

	if got := selector.Dir(ThemeRef{Name: "custom"}); got != filepath.Join("themes", "custom") {
		t.Fatalf("name dir: %q", got)
	}
	if got := selector.Dir(ThemeRef{Dir: "./my-theme"}); got != filepath.Clean("./my-theme") {
		t.Fatalf("explicit dir: %q", got)
	}
	if got := selector.Dir(ThemeRef{}); got != filepath.Join("themes", "docs") {
		t.Fatalf("default theme dir: %q", got)
	}
}

func TestNewThemeContextNilSelection(t *testing.T) {
	tc := NewThemeContext(nil, ThemeConfig{})

	if tc.Name != "" || tc.Variant != "" {
		t.Fatalf("expected empty identity, got %q/%q", tc.Name, tc.Variant)
	}
	if tc.AssetURL("main.css") != "" {
		t.Fatal("nil selection AssetURL should be empty")
	}
	if got := tc.Template("page", "page.html"); got != "page.html" {
		t.Fatalf("nil selection Template should return fallback, got %q", got)
	}
	if len(tc.Tokens) != 0 || len(tc.CSSVars) != 0 || len(tc.Partials) != 0 {
		t.Fatal("nil selection maps should be empty, not nil")
	}
}

func TestThemeAssets(t *testing.T) {
	if got := ThemeAssets(nil); got != nil {
		t.Fatalf("nil selection should have no assets, got %v", got)
	}

	manifest := &gotheme.Manifest{Name: "docs"}
	manifest.Assets.Files = map[string]string{
		"styles": "/css/site.css",
		"logo":   "img/logo.svg",
		"alias":  "css/site.css",
	}
	selection := &gotheme.Selection{Theme: "docs"}
	selection.Manifest = manifest

	got := ThemeAssets(selection)
	want := []string{"css/site.css", "img/logo.svg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
