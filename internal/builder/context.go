package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/nav"
	"github.com/goliatone/go-docsite/site"
)

type pageKind int

const (
	pageDocument pageKind = iota
	pageSection
	pageSearchPage
	pageNotFound
)

// pageJob is one output file the build plans to render.
type pageJob struct {
	kind     pageKind
	doc      *documents.Document
	section  *nav.Node
	route    string
	locale   string
	template string
	output   string
	checksum string
}

// buildContext carries everything a single build run derives up front, so
// render workers only read from it.
type buildContext struct {
	def         *site.Definition
	resolved    *nav.Resolved
	selection   *gotheme.Selection
	themeDir    string
	themeCtx    render.ThemeContext
	siteCtx     render.SiteContext
	locales     []string
	generatedAt time.Time
	fingerprint string

	pages   []*pageJob
	outputs map[string]string
}

// register claims an output path for a build input, failing on collisions so
// two inputs never silently overwrite each other.
func (c *buildContext) register(output, source string) error {
	if existing, ok := c.outputs[output]; ok {
		return &CollisionError{Output: output, First: existing, Second: source}
	}
	c.outputs[output] = source
	return nil
}

func (b *Builder) loadContext(ctx context.Context, opts BuildOptions) (*buildContext, error) {
	def, err := b.deps.Definition(ctx)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, errors.New("builder: definition source returned nothing")
	}

	if _, err := b.deps.Documents.Scan(ctx); err != nil {
		return nil, err
	}

	resolved, err := b.deps.Nav.Build(ctx, def)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		resolved = &nav.Resolved{Tree: &nav.Tree{}}
	}
	if resolved.Tree == nil {
		resolved.Tree = &nav.Tree{}
	}

	locales, err := resolveLocales(def, opts.Locales)
	if err != nil {
		return nil, err
	}

	bctx := &buildContext{
		def:         def,
		resolved:    resolved,
		locales:     locales,
		generatedAt: b.now().UTC(),
		siteCtx:     render.NewSiteContext(def),
		outputs:     map[string]string{},
	}

	if b.deps.Theme != nil {
		ref := render.ThemeRef{
			Name:    def.Theme.Name,
			Variant: def.Theme.Variant,
			Dir:     def.Theme.Dir,
		}
		selection, err := b.deps.Theme.Selection(ref)
		if err != nil {
			return nil, err
		}
		bctx.selection = selection
		if selection != nil {
			bctx.themeDir = b.deps.Theme.Dir(ref)
		}
		bctx.themeCtx = b.deps.Theme.Context(selection)
	} else {
		bctx.themeCtx = render.NewThemeContext(nil, render.ThemeConfig{})
	}

	bctx.fingerprint = b.buildFingerprint(bctx)
	return bctx, nil
}

// resolveLocales intersects the requested locales with the definition's,
// preserving definition order. Unknown locales fail the build.
func resolveLocales(def *site.Definition, requested []string) ([]string, error) {
	all := def.AllLocales()
	if len(requested) == 0 {
		return all, nil
	}

	known := make(map[string]bool, len(all))
	for _, locale := range all {
		known[strings.ToLower(locale)] = true
	}
	wanted := map[string]bool{}
	for _, raw := range requested {
		code := strings.ToLower(strings.TrimSpace(raw))
		if code == "" {
			continue
		}
		if !known[code] {
			return nil, fmt.Errorf("builder: locale %q is not declared by the site definition", raw)
		}
		wanted[code] = true
	}
	if len(wanted) == 0 {
		return all, nil
	}

	out := make([]string, 0, len(wanted))
	for _, locale := range all {
		if wanted[strings.ToLower(locale)] {
			out = append(out, locale)
		}
	}
	return out, nil
}

// planPages fills bctx.pages with every output of this run: corpus documents
// per locale, section landings derived from the tree, a home page when no
// document claims the root, the 404 page, and the search page.
func (b *Builder) planPages(ctx context.Context, bctx *buildContext, opts BuildOptions) error {
	routes, err := b.deps.Documents.Routes(ctx)
	if err != nil {
		return err
	}
	routeSet := make(map[string]bool, len(routes))
	for _, route := range routes {
		routeSet[route] = true
	}

	def := bctx.def
	for _, locale := range bctx.locales {
		for _, route := range routes {
			doc, err := b.deps.Documents.Get(ctx, route, documents.InLocale(locale))
			if err != nil {
				var notFound *documents.NotFoundError
				if errors.As(err, &notFound) {
					continue
				}
				return err
			}
			if doc.Draft && !b.cfg.IncludeDrafts {
				continue
			}

			template := strings.TrimSpace(doc.Template)
			if template == "" {
				template = render.TemplatePage
			}
			job := &pageJob{
				kind:     pageDocument,
				doc:      doc,
				route:    route,
				locale:   locale,
				template: template,
				output:   outputPath(route, locale, def.DefaultLocale, b.cfg.CleanURLs),
				checksum: pageChecksum(bctx.fingerprint, template, doc.Checksum),
			}
			desc := fmt.Sprintf("page %q (%s) from %s", routeLabel(route), locale, doc.SourcePath)
			if err := bctx.register(job.output, desc); err != nil {
				return err
			}
			bctx.pages = append(bctx.pages, job)
		}

		if err := b.planSections(bctx, locale, routeSet); err != nil {
			return err
		}

		if b.cfg.SearchIndex && !routeSet["search"] {
			job := &pageJob{
				kind:     pageSearchPage,
				route:    "search",
				locale:   locale,
				template: render.TemplateSearch,
				output:   outputPath("search", locale, def.DefaultLocale, b.cfg.CleanURLs),
				checksum: pageChecksum(bctx.fingerprint, render.TemplateSearch, "search"),
			}
			if err := bctx.register(job.output, fmt.Sprintf("search page (%s)", locale)); err != nil {
				return err
			}
			bctx.pages = append(bctx.pages, job)
		}
	}

	// The 404 page is a root-level singleton rendered in the default locale,
	// so locale-subset builds leave it stable.
	job := &pageJob{
		kind:     pageNotFound,
		route:    "404",
		locale:   def.DefaultLocale,
		template: render.TemplateNotFound,
		output:   "404.html",
		checksum: pageChecksum(bctx.fingerprint, render.TemplateNotFound, "404"),
	}
	if err := bctx.register(job.output, "not-found page"); err != nil {
		return err
	}
	bctx.pages = append(bctx.pages, job)

	return nil
}

// planSections emits landing pages for tree sections no document claims, plus
// a synthesized home page when the corpus has no root document. Landing
// routes are derived from slugged label chains; labels that slug to nothing
// drop their whole subtree's landings.
func (b *Builder) planSections(bctx *buildContext, locale string, routeSet map[string]bool) error {
	tree := bctx.resolved.Tree

	var walk func(nodes []*nav.Node, trail []string) error
	walk = func(nodes []*nav.Node, trail []string) error {
		for _, node := range nodes {
			if node == nil || !node.IsSection() {
				continue
			}
			segment := sectionSegment(node.Label)
			if segment == "" {
				continue
			}
			next := append(append([]string{}, trail...), segment)
			route := strings.Join(next, "/")
			if !routeSet[route] {
				job := &pageJob{
					kind:     pageSection,
					section:  node,
					route:    route,
					locale:   locale,
					template: render.TemplateSection,
					output:   outputPath(route, locale, bctx.def.DefaultLocale, b.cfg.CleanURLs),
					checksum: pageChecksum(bctx.fingerprint, render.TemplateSection, "section", route),
				}
				desc := fmt.Sprintf("section %q (%s)", node.Label, locale)
				if err := bctx.register(job.output, desc); err != nil {
					return err
				}
				bctx.pages = append(bctx.pages, job)
			}
			if err := walk(node.Children, next); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(tree.Roots, nil); err != nil {
		return err
	}

	if !routeSet[""] {
		home := &nav.Node{Label: bctx.def.Title, Children: tree.Roots}
		job := &pageJob{
			kind:     pageSection,
			section:  home,
			route:    "",
			locale:   locale,
			template: render.TemplateSection,
			output:   outputPath("", locale, bctx.def.DefaultLocale, b.cfg.CleanURLs),
			checksum: pageChecksum(bctx.fingerprint, render.TemplateSection, "home"),
		}
		if err := bctx.register(job.output, fmt.Sprintf("home page (%s)", locale)); err != nil {
			return err
		}
		bctx.pages = append(bctx.pages, job)
	}
	return nil
}

func sectionSegment(label string) string {
	slug, err := documents.NormalizeSlug(label)
	if err != nil {
		return ""
	}
	return slug
}

func routeLabel(route string) string {
	if route == "" {
		return "home"
	}
	return route
}

// buildFingerprint hashes every page-shaping input outside the document
// itself: definition metadata, the resolved tree, the theme selection and
// its template files. Any change here invalidates all manifest skips.
func (b *Builder) buildFingerprint(bctx *buildContext) string {
	h := sha256.New()
	writeField := func(parts ...string) {
		for _, part := range parts {
			io.WriteString(h, part)
			h.Write([]byte{0})
		}
	}

	def := bctx.def
	writeField("v1", def.Title, def.Description, def.BaseURL, def.Language, def.DefaultLocale)
	writeField(def.AllLocales()...)
	writeField(def.Static...)
	writeField(strconv.FormatBool(b.cfg.CleanURLs), strconv.FormatBool(b.cfg.IncludeDrafts))

	if tree := bctx.resolved.Tree; tree != nil {
		tree.Walk(func(node *nav.Node) bool {
			fmt.Fprintf(h, "%s|%s|%s|%t|%d|%d;", node.Label, node.Route, node.URL, node.External, node.Depth, node.Position)
			return true
		})
	}

	if sel := bctx.selection; sel != nil {
		writeField(sel.Theme, sel.Variant)
		if sel.Manifest != nil {
			writeField(sel.Manifest.Name, sel.Manifest.Version)
		}
		writeField(render.ThemeAssets(sel)...)
		hashFS(h, b.themeTemplatesFS(bctx.themeDir))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// hashFS folds file names and contents into h in sorted order. Unreadable
// files are skipped rather than failing the fingerprint.
func hashFS(h hash.Hash, fsys fs.FS) {
	if fsys == nil {
		return
	}
	var files []string
	_ = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		files = append(files, p)
		return nil
	})
	sort.Strings(files)
	for _, p := range files {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			continue
		}
		io.WriteString(h, p)
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}
}
