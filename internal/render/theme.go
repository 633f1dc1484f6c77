package render

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
	"github.com/google/uuid"

	"github.com/goliatone/go-docsite/internal/identity"
)

// ThemeConfig carries theme pipeline defaults.
type ThemeConfig struct {
	BasePath          string
	DefaultTheme      string
	DefaultVariant    string
	CSSVariablePrefix string
	PartialFallbacks  map[string]string
}

// DefaultCSSVariablePrefix namespaces the variables a selection emits.
const DefaultCSSVariablePrefix = "--ds-"

// ThemeRef names a theme as the site definition declares it. Dir overrides
// the conventional <BasePath>/<Name> location.
type ThemeRef struct {
	Name    string
	Variant string
	Dir     string
}

// ManifestLoader loads a theme manifest from its directory.
type ManifestLoader interface {
	Load(themePath string) (*gotheme.Manifest, error)
}

type fsManifestLoader struct{}

func (fsManifestLoader) Load(themePath string) (*gotheme.Manifest, error) {
	cleaned := filepath.Clean(strings.TrimSpace(themePath))
	if cleaned == "" || cleaned == "." {
		return nil, fmt.Errorf("render: theme path required")
	}
	return gotheme.LoadDir(os.DirFS(cleaned), ".")
}

// ThemeSelector resolves theme selections against a manifest registry,
// loading and registering manifests on first use.
type ThemeSelector struct {
	registry *gotheme.MemoryRegistry
	loader   ManifestLoader
	cfg      ThemeConfig

	mu        sync.Mutex
	manifests map[uuid.UUID]*gotheme.Manifest
}

// NewThemeSelector builds a selector; a nil loader reads manifests from disk.
func NewThemeSelector(cfg ThemeConfig, loader ManifestLoader) *ThemeSelector {
	if loader == nil {
		loader = fsManifestLoader{}
	}
	if strings.TrimSpace(cfg.CSSVariablePrefix) == "" {
		cfg.CSSVariablePrefix = DefaultCSSVariablePrefix
	}
	return &ThemeSelector{
		registry:  gotheme.NewRegistry(),
		loader:    loader,
		cfg:       cfg,
		manifests: map[uuid.UUID]*gotheme.Manifest{},
	}
}

// Selection resolves ref to a selection, or (nil, nil) when the site runs
// without a theme and the embedded templates stand alone.
func (s *ThemeSelector) Selection(ref ThemeRef) (*gotheme.Selection, error) {
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		name = strings.TrimSpace(s.cfg.DefaultTheme)
	}
	if name == "" {
		return nil, nil
	}

	if _, err := s.ensureManifest(name, s.Dir(ref)); err != nil {
		return nil, err
	}

	selector := gotheme.Selector{
		Registry:       s.registry,
		DefaultTheme:   s.cfg.DefaultTheme,
		DefaultVariant: s.cfg.DefaultVariant,
	}
	variant := strings.TrimSpace(ref.Variant)
	if variant == "" {
		variant = s.cfg.DefaultVariant
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("render: select theme %s: %w", name, err)
	}
	return selection, nil
}

// Context converts a selection into template-facing theme data using the
// selector's configuration.
func (s *ThemeSelector) Context(selection *gotheme.Selection) ThemeContext {
	return NewThemeContext(selection, s.cfg)
}

// Dir resolves the theme directory for ref.
func (s *ThemeSelector) Dir(ref ThemeRef) string {
	if dir := strings.TrimSpace(ref.Dir); dir != "" {
		return filepath.Clean(dir)
	}
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		name = strings.TrimSpace(s.cfg.DefaultTheme)
	}
	if name == "" {
		return ""
	}
	return filepath.Join(s.cfg.BasePath, name)
}

func (s *ThemeSelector) ensureManifest(name, dir string) (*gotheme.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identity.ThemeUUID(dir)
	if manifest, ok := s.manifests[key]; ok {
		return manifest, nil
	}

	manifest, err := s.loader.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("render: load theme manifest from %s: %w", dir, err)
	}

	normalized := *manifest
	if strings.TrimSpace(normalized.Name) == "" || !strings.EqualFold(normalized.Name, name) {
		normalized.Name = name
	}
	if err := s.registry.Register(&normalized); err != nil {
		return nil, fmt.Errorf("render: register theme manifest: %w", err)
	}
	s.manifests[key] = &normalized
	return &normalized, nil
}

// ThemeContext surfaces selection data to templates. Stylesheets and
// Scripts list the manifest asset paths the build copies to the output
// root, ready for relurl.
type ThemeContext struct {
	Name        string
	Variant     string
	Tokens      map[string]string
	CSSVars     map[string]string
	Partials    map[string]string
	Stylesheets []string
	Scripts     []string
	AssetURL    func(string) string
	Template    func(string, string) string
	Selection   *gotheme.Selection
}

// NewThemeContext converts a selection into template-facing data. A nil
// selection yields inert helpers so templates need no guards.
func NewThemeContext(selection *gotheme.Selection, cfg ThemeConfig) ThemeContext {
	if selection == nil {
		return ThemeContext{
			Tokens:   map[string]string{},
			CSSVars:  map[string]string{},
			Partials: map[string]string{},
			AssetURL: func(string) string { return "" },
			Template: func(_ string, fallback string) string { return fallback },
		}
	}

	prefix := cfg.CSSVariablePrefix
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultCSSVariablePrefix
	}
	tc := ThemeContext{
		Name:      selection.Theme,
		Variant:   selection.Variant,
		Tokens:    selection.Tokens(),
		CSSVars:   selection.CSSVariables(prefix),
		Partials:  selection.Partials(cfg.PartialFallbacks),
		AssetURL:  func(key string) string { url, _ := selection.Asset(key); return url },
		Template:  selection.Template,
		Selection: selection,
	}
	for _, asset := range ThemeAssets(selection) {
		switch strings.ToLower(filepath.Ext(asset)) {
		case ".css":
			tc.Stylesheets = append(tc.Stylesheets, asset)
		case ".js":
			tc.Scripts = append(tc.Scripts, asset)
		}
	}
	return tc
}

// ThemeAssets lists the asset paths a selection wants copied into the build,
// variant overrides folded over the base file set.
func ThemeAssets(selection *gotheme.Selection) []string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}

	files := selection.Manifest.Assets.Files
	if variant := strings.TrimSpace(selection.Variant); variant != "" {
		if v, ok := selection.Manifest.Variants[variant]; ok && len(v.Assets.Files) > 0 {
			merged := make(map[string]string, len(files)+len(v.Assets.Files))
			for key, file := range files {
				merged[key] = file
			}
			for key, file := range v.Assets.Files {
				merged[key] = file
			}
			files = merged
		}
	}

	seen := map[string]struct{}{}
	var out []string
	for _, asset := range files {
		asset = strings.TrimPrefix(strings.TrimSpace(asset), "/")
		if asset == "" {
			continue
		}
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		out = append(out, filepath.ToSlash(asset))
	}
	sort.Strings(out)
	return out
}

// TemplatesFS returns the theme's template overlay, nil when the theme ships
// no templates directory.
func TemplatesFS(themeDir string) fs.FS {
	dir := filepath.Join(strings.TrimSpace(themeDir), "templates")
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}
	return os.DirFS(dir)
}
