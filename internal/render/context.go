package render

import (
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/google/uuid"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/nav"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/site"
)

// PageContext is the data contract handed to every page template.
type PageContext struct {
	Site    SiteContext
	Page    PageData
	Nav     NavContext
	Theme   ThemeContext
	Build   BuildInfo
	Helpers Helpers
}

// SiteContext exposes definition-level metadata to templates.
type SiteContext struct {
	Title         string
	Description   string
	BaseURL       string
	Language      string
	DefaultLocale string
	Locales       []string
}

// PageData carries one document resolved for one locale.
type PageData struct {
	Route        string
	Locale       string
	Section      string
	Title        string
	Summary      string
	HTML         string
	Outline      []interfaces.Heading
	Tags         []string
	Author       string
	Date         time.Time
	LastModified time.Time
	Template     string
	Canonical    string
	Custom       map[string]any
}

// NavContext carries the resolved tree plus the pieces templates want
// precomputed for the active route. Section is set when rendering a section
// listing so the template can walk its children.
type NavContext struct {
	Tree        *nav.Tree
	Breadcrumbs []*nav.Node
	Prev        *nav.Node
	Next        *nav.Node
	Section     *nav.Node
	Active      map[uuid.UUID]bool
}

// BuildInfo surfaces build provenance to templates.
type BuildInfo struct {
	GeneratedAt time.Time
	Version     string
	Incremental bool
}

// NewSiteContext projects the definition into template-facing metadata.
func NewSiteContext(def *site.Definition) SiteContext {
	if def == nil {
		return SiteContext{DefaultLocale: "en"}
	}
	return SiteContext{
		Title:         def.Title,
		Description:   def.Description,
		BaseURL:       strings.TrimRight(def.BaseURL, "/"),
		Language:      def.Language,
		DefaultLocale: def.DefaultLocale,
		Locales:       def.AllLocales(),
	}
}

// NewPageData projects a corpus document, pairing it with its canonical URL.
func NewPageData(doc *documents.Document, canonical string) PageData {
	if doc == nil {
		return PageData{}
	}
	return PageData{
		Route:        doc.Route,
		Locale:       doc.Locale,
		Section:      doc.Section,
		Title:        doc.Title,
		Summary:      doc.Summary,
		HTML:         string(doc.HTML),
		Outline:      doc.Outline,
		Tags:         doc.Tags,
		Author:       doc.Author,
		Date:         doc.Date,
		LastModified: doc.LastModified,
		Template:     doc.Template,
		Canonical:    canonical,
		Custom:       doc.Custom,
	}
}

// NewNavContext precomputes the route-relative navigation slices.
func NewNavContext(tree *nav.Tree, route string) NavContext {
	nc := NavContext{Tree: tree}
	if tree == nil {
		return nc
	}
	nc.Breadcrumbs = tree.Breadcrumbs(route)
	nc.Prev, nc.Next = tree.PrevNext(route)
	nc.Active = tree.ActiveTrail(route)
	return nc
}

// NewSectionNavContext precomputes navigation for a section landing page
// generated from the tree itself rather than a corpus document.
func NewSectionNavContext(tree *nav.Tree, section *nav.Node) NavContext {
	nc := NavContext{Tree: tree, Section: section}
	if tree == nil || section == nil {
		return nc
	}
	nc.Breadcrumbs = ancestorChain(tree.Roots, section, nil)
	nc.Active = map[uuid.UUID]bool{}
	for _, node := range nc.Breadcrumbs {
		nc.Active[node.ID] = true
	}
	return nc
}

func ancestorChain(nodes []*nav.Node, target *nav.Node, trail []*nav.Node) []*nav.Node {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		next := append(append([]*nav.Node{}, trail...), node)
		if node == target {
			return next
		}
		if found := ancestorChain(node.Children, target, next); found != nil {
			return found
		}
	}
	return nil
}

func (pc PageContext) templateContext() pongo2.Context {
	return pongo2.Context{
		"site":    pc.Site,
		"page":    pc.Page,
		"nav":     pc.Nav,
		"theme":   pc.Theme,
		"build":   pc.Build,
		"helpers": pc.Helpers,
	}
}

// Helpers bundles locale-aware conveniences for template authors.
type Helpers struct {
	locale        string
	defaultLocale string
	baseURL       string
}

// NewHelpers binds helpers to the locale a page renders in.
func NewHelpers(locale, defaultLocale, baseURL string) Helpers {
	return Helpers{
		locale:        strings.TrimSpace(locale),
		defaultLocale: strings.TrimSpace(defaultLocale),
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// Locale returns the active locale code.
func (h Helpers) Locale() string {
	return h.locale
}

// IsLocale reports whether code matches the active locale.
func (h Helpers) IsLocale(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), h.locale)
}

// IsDefaultLocale reports whether the active locale is the site default.
func (h Helpers) IsDefaultLocale() bool {
	return strings.EqualFold(h.locale, h.defaultLocale)
}

// BaseURL returns the configured site base URL without a trailing slash.
func (h Helpers) BaseURL() string {
	return h.baseURL
}

// WithBaseURL prefixes path with the base URL; absolute URLs pass through.
func (h Helpers) WithBaseURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return h.baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if h.baseURL == "" {
		return path
	}
	return h.baseURL + path
}

// LocalePrefix returns "/<locale>" for non-default locales, empty otherwise.
func (h Helpers) LocalePrefix() string {
	if h.IsDefaultLocale() || h.locale == "" {
		return ""
	}
	return "/" + strings.TrimPrefix(h.locale, "/")
}
