package nav

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/identity"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/site"
)

// BuilderOption customises the navigation builder.
type BuilderOption func(*builder)

// WithLogger overrides the no-op logger.
func WithLogger(logger interfaces.Logger) BuilderOption {
	return func(b *builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithLocale selects the locale used for node labels and hrefs. The
// definition's default locale is used when unset.
func WithLocale(locale string) BuilderOption {
	return func(b *builder) {
		if trimmed := strings.ToLower(strings.TrimSpace(locale)); trimmed != "" {
			b.locale = trimmed
		}
	}
}

// WithURLResolver overrides the default relative URL resolver.
func WithURLResolver(resolver URLResolver) BuilderOption {
	return func(b *builder) {
		if resolver != nil {
			b.urls = resolver
		}
	}
}

type builder struct {
	corpus documents.Service
	locale string
	urls   URLResolver
	logger interfaces.Logger
}

// NewBuilder returns a Builder that resolves navigation entries against the
// scanned corpus.
func NewBuilder(corpus documents.Service, opts ...BuilderOption) (Builder, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	b := &builder{
		corpus: corpus,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// resolveScope fixes the locale and URL resolver for one build pass.
type resolveScope struct {
	locale string
	urls   URLResolver
}

func (b *builder) scope(def *site.Definition) resolveScope {
	defaultLocale := strings.ToLower(strings.TrimSpace(def.DefaultLocale))
	locale := b.locale
	if locale == "" {
		locale = defaultLocale
	}
	urls := b.urls
	if urls == nil {
		urls = relativeURLResolver{defaultLocale: defaultLocale}
	}
	return resolveScope{locale: locale, urls: urls}
}

func (b *builder) Build(ctx context.Context, def *site.Definition) (*Resolved, error) {
	if def == nil {
		return nil, ErrDefinitionRequired
	}
	if len(def.Nav) == 0 {
		return b.AutoBuild(ctx, def)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scope := b.scope(def)
	res := &Resolved{Tree: &Tree{}}
	roots, err := b.buildEntries(ctx, scope, nil, def.Nav, 0, res)
	if err != nil {
		return nil, err
	}
	res.Tree.Roots = roots

	b.logger.Debug("navigation resolved",
		"locale", scope.locale,
		"documents", len(res.Tree.Flatten()),
		"issues", len(res.Issues),
	)
	return res, nil
}

func (b *builder) buildEntries(ctx context.Context, scope resolveScope, trail []int, entries []site.NavEntry, depth int, res *Resolved) ([]*Node, error) {
	var out []*Node
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := append(append([]int{}, trail...), i)
		node, err := b.buildEntry(ctx, scope, next, entry, depth, res)
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		node.Position = len(out)
		out = append(out, node)
	}
	return out, nil
}

func (b *builder) buildEntry(ctx context.Context, scope resolveScope, trail []int, entry site.NavEntry, depth int, res *Resolved) (*Node, error) {
	switch entry.Kind() {
	case site.EntryDocument:
		return b.buildDocumentEntry(ctx, scope, trail, entry, depth, res)
	case site.EntryExternal:
		return &Node{
			ID:       identity.NavNodeUUID(trailKey(trail)),
			Label:    strings.TrimSpace(entry.Title),
			URL:      strings.TrimSpace(entry.URL),
			External: true,
			Depth:    depth,
		}, nil
	case site.EntrySection:
		label := strings.TrimSpace(entry.Title)
		children, err := b.buildEntries(ctx, scope, trail, entry.Children, depth+1, res)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			res.Issues = append(res.Issues, Issue{
				Severity: SeverityWarning,
				Reason:   "section " + strconv.Quote(label) + " has no resolvable children",
			})
			return nil, nil
		}
		return &Node{
			ID:       identity.NavNodeUUID(trailKey(trail)),
			Label:    label,
			Depth:    depth,
			Children: children,
		}, nil
	default:
		res.Issues = append(res.Issues, Issue{
			Severity: SeverityError,
			Path:     strings.TrimSpace(entry.Path),
			Reason:   "entry must set exactly one of path, url, or children",
		})
		return nil, nil
	}
}

func (b *builder) buildDocumentEntry(ctx context.Context, scope resolveScope, trail []int, entry site.NavEntry, depth int, res *Resolved) (*Node, error) {
	sourcePath := strings.TrimSpace(entry.Path)
	doc, err := b.corpus.GetByPath(ctx, sourcePath)
	if err != nil {
		var notFound *documents.NotFoundError
		if errors.As(err, &notFound) {
			res.Issues = append(res.Issues, Issue{
				Severity: SeverityError,
				Path:     sourcePath,
				Reason:   "navigation target does not exist in the content directory",
			})
			return nil, nil
		}
		return nil, err
	}

	if doc.Draft {
		res.Issues = append(res.Issues, Issue{
			Severity: SeverityWarning,
			Path:     sourcePath,
			Reason:   "navigation target is a draft and is excluded from built output",
		})
		return nil, nil
	}

	localized := doc
	if scope.locale != "" && !strings.EqualFold(doc.Locale, scope.locale) {
		if alt, getErr := b.corpus.Get(ctx, doc.Route, documents.InLocale(scope.locale)); getErr == nil && !alt.Draft {
			localized = alt
		}
	}

	href, err := scope.urls.Resolve(ResolveRequest{Route: doc.Route, Locale: scope.locale})
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(entry.Title)
	if label == "" {
		label = localized.Title
	}

	return &Node{
		ID:    identity.NavNodeUUID(trailKey(trail)),
		Label: label,
		Route: doc.Route,
		URL:   href,
		Depth: depth,
	}, nil
}

func (b *builder) AutoBuild(ctx context.Context, def *site.Definition) (*Resolved, error) {
	if def == nil {
		return nil, ErrDefinitionRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scope := b.scope(def)
	routes, err := b.corpus.Routes(ctx)
	if err != nil {
		return nil, err
	}

	docs := make(map[string]*documents.Document, len(routes))
	var ordered []string
	for _, route := range routes {
		doc, getErr := b.corpus.Get(ctx, route, documents.InLocale(scope.locale))
		if getErr != nil {
			var notFound *documents.NotFoundError
			if errors.As(getErr, &notFound) {
				continue
			}
			return nil, getErr
		}
		if doc.Draft {
			continue
		}
		docs[route] = doc
		ordered = append(ordered, route)
	}

	sections := map[string][]string{}
	for _, route := range ordered {
		if route == "" {
			continue
		}
		section := documents.SectionOf(route)
		sections[section] = append(sections[section], route)
	}
	sectionOrder := make([]string, 0, len(sections))
	for section := range sections {
		sectionOrder = append(sectionOrder, section)
	}
	sort.Strings(sectionOrder)

	res := &Resolved{Tree: &Tree{}}
	var roots []*Node

	if home, ok := docs[""]; ok {
		node, nodeErr := b.autoNode(scope, []int{len(roots)}, home, 0)
		if nodeErr != nil {
			return nil, nodeErr
		}
		node.Position = len(roots)
		roots = append(roots, node)
	}

	for _, section := range sectionOrder {
		group := sections[section]
		trail := []int{len(roots)}

		var node *Node
		rest := group
		if doc, ok := docs[section]; ok {
			built, nodeErr := b.autoNode(scope, trail, doc, 0)
			if nodeErr != nil {
				return nil, nodeErr
			}
			node = built
			rest = group[1:]
		} else {
			node = &Node{
				ID:    identity.NavNodeUUID(trailKey(trail)),
				Label: documents.TitleForRoute(section),
				Depth: 0,
			}
		}

		for _, route := range rest {
			childTrail := append(append([]int{}, trail...), len(node.Children))
			child, nodeErr := b.autoNode(scope, childTrail, docs[route], 1)
			if nodeErr != nil {
				return nil, nodeErr
			}
			child.Position = len(node.Children)
			node.Children = append(node.Children, child)
		}

		node.Position = len(roots)
		roots = append(roots, node)
	}

	res.Tree.Roots = roots

	b.logger.Debug("navigation derived from corpus",
		"locale", scope.locale,
		"documents", len(ordered),
		"sections", len(sectionOrder),
	)
	return res, nil
}

func (b *builder) autoNode(scope resolveScope, trail []int, doc *documents.Document, depth int) (*Node, error) {
	href, err := scope.urls.Resolve(ResolveRequest{Route: doc.Route, Locale: scope.locale})
	if err != nil {
		return nil, err
	}
	return &Node{
		ID:    identity.NavNodeUUID(trailKey(trail)),
		Label: doc.Title,
		Route: doc.Route,
		URL:   href,
		Depth: depth,
	}, nil
}

func trailKey(trail []int) string {
	parts := make([]string, len(trail))
	for i, idx := range trail {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, "/")
}
