package documents

import (
	"maps"
	"slices"
	"sort"
	"sync"
)

type corpusKey struct {
	route  string
	locale string
}

// memoryRepository holds the scanned corpus. Scans replace the whole corpus
// atomically, which keeps watch-mode rebuilds free of partial state.
type memoryRepository struct {
	mu      sync.RWMutex
	scanned bool
	byKey   map[corpusKey]*Document
	byPath  map[string]corpusKey
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		byKey:  make(map[corpusKey]*Document),
		byPath: make(map[string]corpusKey),
	}
}

func (m *memoryRepository) replace(docs []*Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byKey = make(map[corpusKey]*Document, len(docs))
	m.byPath = make(map[string]corpusKey, len(docs))
	for _, doc := range docs {
		cloned := cloneDocument(doc)
		key := corpusKey{route: cloned.Route, locale: cloned.Locale}
		m.byKey[key] = cloned
		m.byPath[cloned.SourcePath] = key
	}
	m.scanned = true
}

func (m *memoryRepository) ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scanned
}

func (m *memoryRepository) get(route, locale string) (*Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byKey[corpusKey{route: route, locale: locale}]
	if !ok {
		return nil, false
	}
	return cloneDocument(record), true
}

func (m *memoryRepository) getByPath(sourcePath string) (*Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.byPath[sourcePath]
	if !ok {
		return nil, false
	}
	return cloneDocument(m.byKey[key]), true
}

func (m *memoryRepository) list() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Document, 0, len(m.byKey))
	for _, record := range m.byKey {
		records = append(records, cloneDocument(record))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Route != records[j].Route {
			return records[i].Route < records[j].Route
		}
		return records[i].Locale < records[j].Locale
	})
	return records
}

func (m *memoryRepository) routes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{}, len(m.byKey))
	var routes []string
	for key := range m.byKey {
		if _, ok := seen[key.route]; ok {
			continue
		}
		seen[key.route] = struct{}{}
		routes = append(routes, key.route)
	}
	sort.Strings(routes)
	return routes
}

func (m *memoryRepository) translations(route string) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var locales []string
	for key := range m.byKey {
		if key.route == route {
			locales = append(locales, key.locale)
		}
	}
	if len(locales) == 0 {
		return nil, false
	}
	sort.Strings(locales)
	return locales, true
}

func cloneDocument(src *Document) *Document {
	if src == nil {
		return nil
	}
	cloned := *src
	if len(src.Tags) > 0 {
		cloned.Tags = slices.Clone(src.Tags)
	}
	if len(src.Outline) > 0 {
		cloned.Outline = slices.Clone(src.Outline)
	}
	if len(src.Links) > 0 {
		cloned.Links = slices.Clone(src.Links)
	}
	if src.Custom != nil {
		cloned.Custom = maps.Clone(src.Custom)
	}
	if len(src.Body) > 0 {
		cloned.Body = slices.Clone(src.Body)
	}
	if len(src.HTML) > 0 {
		cloned.HTML = slices.Clone(src.HTML)
	}
	return &cloned
}
