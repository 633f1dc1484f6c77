package builder

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ManifestFileName is the build ledger written at the output root after
// everything else, so an interrupted build re-renders conservatively.
const ManifestFileName = ".docsite-manifest.json"

const manifestVersion = 1

// manifest records what the last successful build produced so the next run
// can skip unchanged work and Clean can remove exactly what was written.
type manifest struct {
	Version     int                      `json:"version"`
	GeneratedAt time.Time                `json:"generated_at"`
	Pages       map[string]manifestPage  `json:"pages"`
	Assets      map[string]manifestAsset `json:"assets"`
}

type manifestPage struct {
	Route      string    `json:"route"`
	Locale     string    `json:"locale"`
	Output     string    `json:"output"`
	Template   string    `json:"template,omitempty"`
	Checksum   string    `json:"checksum"`
	RenderedAt time.Time `json:"rendered_at"`
}

type manifestAsset struct {
	Path     string    `json:"path"`
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Hash     string    `json:"hash"`
	CopiedAt time.Time `json:"copied_at"`
}

func newManifest() *manifest {
	return &manifest{
		Version: manifestVersion,
		Pages:   map[string]manifestPage{},
		Assets:  map[string]manifestAsset{},
	}
}

func parseManifest(data []byte) (*manifest, error) {
	if len(data) == 0 {
		return newManifest(), nil
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("builder: parse manifest: %w", err)
	}
	if m.Pages == nil {
		m.Pages = map[string]manifestPage{}
	}
	if m.Assets == nil {
		m.Assets = map[string]manifestAsset{}
	}
	if m.Version == 0 {
		m.Version = manifestVersion
	}
	return &m, nil
}

// clone copies the manifest so partial builds can merge new entries without
// mutating the snapshot skip checks read from.
func (m *manifest) clone() *manifest {
	out := newManifest()
	if m == nil {
		return out
	}
	out.Version = m.Version
	out.GeneratedAt = m.GeneratedAt
	for key, entry := range m.Pages {
		out.Pages[key] = entry
	}
	for key, entry := range m.Assets {
		out.Assets[key] = entry
	}
	return out
}

// marshal emits the manifest with entries sorted so identical builds produce
// identical bytes.
func (m *manifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	type orderedManifest struct {
		Version     int             `json:"version"`
		GeneratedAt time.Time       `json:"generated_at"`
		Pages       []manifestPage  `json:"pages"`
		Assets      []manifestAsset `json:"assets"`
	}
	ordered := orderedManifest{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
	}
	if len(m.Pages) > 0 {
		ordered.Pages = make([]manifestPage, 0, len(m.Pages))
		for _, entry := range m.Pages {
			ordered.Pages = append(ordered.Pages, entry)
		}
		sort.Slice(ordered.Pages, func(i, j int) bool {
			if ordered.Pages[i].Route == ordered.Pages[j].Route {
				return ordered.Pages[i].Locale < ordered.Pages[j].Locale
			}
			return ordered.Pages[i].Route < ordered.Pages[j].Route
		})
	}
	if len(m.Assets) > 0 {
		ordered.Assets = make([]manifestAsset, 0, len(m.Assets))
		for _, entry := range m.Assets {
			ordered.Assets = append(ordered.Assets, entry)
		}
		sort.Slice(ordered.Assets, func(i, j int) bool {
			if ordered.Assets[i].Source == ordered.Assets[j].Source {
				return ordered.Assets[i].Path < ordered.Assets[j].Path
			}
			return ordered.Assets[i].Source < ordered.Assets[j].Source
		})
	}
	return json.MarshalIndent(ordered, "", "  ")
}

func pageKey(route, locale string) string {
	return strings.ToLower(strings.TrimSpace(route)) + "::" + strings.ToLower(strings.TrimSpace(locale))
}

func assetKey(source, assetPath string) string {
	return strings.ToLower(strings.TrimSpace(source)) + "::" + strings.TrimSpace(assetPath)
}

func (m *manifest) lookupPage(route, locale string) (manifestPage, bool) {
	if m == nil || len(m.Pages) == 0 {
		return manifestPage{}, false
	}
	entry, ok := m.Pages[pageKey(route, locale)]
	return entry, ok
}

func (m *manifest) setPage(entry manifestPage) {
	if m == nil {
		return
	}
	if m.Pages == nil {
		m.Pages = map[string]manifestPage{}
	}
	m.Pages[pageKey(entry.Route, entry.Locale)] = entry
}

// shouldSkipPage reports whether the page's inputs and destination match the
// previous build. Checksum covers the document contents plus the build
// fingerprint, so definition, nav, or theme changes invalidate every page.
func (m *manifest) shouldSkipPage(route, locale, checksum, output string) bool {
	entry, ok := m.lookupPage(route, locale)
	if !ok {
		return false
	}
	return entry.Checksum == checksum && entry.Output == output
}

func (m *manifest) lookupAsset(key string) (manifestAsset, bool) {
	if m == nil || len(m.Assets) == 0 {
		return manifestAsset{}, false
	}
	entry, ok := m.Assets[key]
	return entry, ok
}

func (m *manifest) setAsset(key string, entry manifestAsset) {
	if m == nil {
		return
	}
	if m.Assets == nil {
		m.Assets = map[string]manifestAsset{}
	}
	m.Assets[key] = entry
}

func (m *manifest) shouldSkipAsset(key, hash, output string) bool {
	entry, ok := m.lookupAsset(key)
	if !ok {
		return false
	}
	return entry.Hash == hash && entry.Output == output
}

// sortedPageKeys returns page keys in stable order for clean-up walks.
func (m *manifest) sortedPageKeys() []string {
	keys := make([]string, 0, len(m.Pages))
	for key := range m.Pages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (m *manifest) sortedAssetKeys() []string {
	keys := make([]string, 0, len(m.Assets))
	for key := range m.Assets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
