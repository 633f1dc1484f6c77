package urls

import (
	"fmt"
	"strings"
	"sync"

	intnav "github.com/goliatone/go-docsite/internal/nav"
	"github.com/goliatone/go-docsite/site"
	urlkit "github.com/goliatone/go-urlkit"
)

const rootGroup = "site"

// Resolver builds canonical URLs for documents, assets, search and feeds
// from the site definition. URLs are absolute when the definition carries a
// base URL and root-relative otherwise.
type Resolver struct {
	manager       *urlkit.RouteManager
	defaultLocale string
	locales       map[string]bool

	mu         sync.RWMutex
	groupCache map[string]*urlkit.Group
}

// NewResolver configures a go-urlkit route manager from the definition: one
// root group plus a child group per non-default locale.
func NewResolver(def *site.Definition) (*Resolver, error) {
	if def == nil {
		return nil, fmt.Errorf("urls: site definition is required")
	}

	locales := def.AllLocales()
	root := urlkit.GroupConfig{
		Name:    rootGroup,
		BaseURL: strings.TrimRight(strings.TrimSpace(def.BaseURL), "/"),
		Paths: map[string]string{
			"home":    "/",
			"search":  "/-/search",
			"sitemap": "/sitemap.xml",
			"feed":    "/feeds/:locale",
		},
	}

	known := map[string]bool{}
	for i, locale := range locales {
		known[locale] = true
		if i == 0 {
			continue
		}
		root.Groups = append(root.Groups, urlkit.GroupConfig{
			Name: locale,
			Path: "/" + locale,
			Paths: map[string]string{
				"home": "/",
			},
		})
	}

	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{root},
	})

	return &Resolver{
		manager:       manager,
		defaultLocale: locales[0],
		locales:       known,
		groupCache:    map[string]*urlkit.Group{},
	}, nil
}

// DocumentURL returns the canonical URL for a route in the given locale.
// Routes span multiple path segments, so they are appended to the locale
// group's home URL rather than substituted as a single parameter.
func (r *Resolver) DocumentURL(route, locale string) (string, error) {
	home, err := r.homeURL(locale)
	if err != nil {
		return "", err
	}
	route = strings.Trim(strings.TrimSpace(route), "/")
	if route == "" {
		return home, nil
	}
	return strings.TrimRight(home, "/") + "/" + route + "/", nil
}

// AssetURL returns the URL for a copied asset path. Assets are never locale
// prefixed.
func (r *Resolver) AssetURL(assetPath string) (string, error) {
	home, err := r.homeURL("")
	if err != nil {
		return "", err
	}
	assetPath = strings.TrimLeft(strings.TrimSpace(assetPath), "/")
	return strings.TrimRight(home, "/") + "/" + assetPath, nil
}

// SearchURL returns the local search endpoint exposed by the preview server.
func (r *Resolver) SearchURL() (string, error) {
	return r.buildFixed("search")
}

// SitemapURL returns the sitemap location for robots.txt.
func (r *Resolver) SitemapURL() (string, error) {
	return r.buildFixed("sitemap")
}

// FeedURL returns the RSS feed location for a locale.
func (r *Resolver) FeedURL(locale string) (string, error) {
	group, err := r.groupFor(rootGroup)
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, "feed")
	if err != nil {
		return "", err
	}
	built, err := builder.WithParam("locale", normalizeLocale(locale)).Build()
	if err != nil {
		return "", fmt.Errorf("urls: build feed url: %w", err)
	}
	return built + ".rss.xml", nil
}

// Resolve implements the navigation builder's URL resolver.
func (r *Resolver) Resolve(req intnav.ResolveRequest) (string, error) {
	return r.DocumentURL(req.Route, req.Locale)
}

func (r *Resolver) homeURL(locale string) (string, error) {
	groupPath := rootGroup
	locale = normalizeLocale(locale)
	if locale != "" && locale != r.defaultLocale && r.locales[locale] {
		groupPath = rootGroup + "." + locale
	}

	group, err := r.groupFor(groupPath)
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, "home")
	if err != nil {
		return "", err
	}
	built, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("urls: build home url: %w", err)
	}
	if built == "" {
		built = "/"
	}
	if !strings.HasSuffix(built, "/") {
		built += "/"
	}
	return built, nil
}

func (r *Resolver) buildFixed(route string) (string, error) {
	group, err := r.groupFor(rootGroup)
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, route)
	if err != nil {
		return "", err
	}
	built, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("urls: build %s url: %w", route, err)
	}
	return built, nil
}

func (r *Resolver) groupFor(path string) (*urlkit.Group, error) {
	r.mu.RLock()
	group, ok := r.groupCache[path]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	parts := strings.Split(path, ".")
	current, err := lookupGroup(r.manager, parts[0])
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		current, err = lookupChildGroup(current, part)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.groupCache[path] = current
	r.mu.Unlock()
	return current, nil
}

// urlkit panics on unknown groups and routes; lookups recover into errors.
func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("urls: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("urls: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	if parent == nil {
		return nil, fmt.Errorf("urls: parent group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("urls: child group %q not found", name)
		}
	}()
	group = parent.Group(name)
	return group, err
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("urls: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("urls: route %q not registered", route)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.TrimSpace(locale))
}
