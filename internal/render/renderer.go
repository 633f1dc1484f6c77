package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// Template names resolved against the layered template set. A theme may
// override any of them; the embedded defaults guarantee they all exist.
const (
	TemplatePage     = "page.html"
	TemplateSection  = "section.html"
	TemplateSearch   = "search.html"
	TemplateNotFound = "404.html"
)

// ErrTemplateSetEmpty indicates the renderer was built without any source.
var ErrTemplateSetEmpty = errors.New("render: template set has no layers")

// TemplateError wraps a template failure with the page being rendered.
type TemplateError struct {
	Template string
	Route    string
	Err      error
}

func (e *TemplateError) Error() string {
	if e.Route != "" {
		return fmt.Sprintf("render template %s for route %s: %v", e.Template, e.Route, e.Err)
	}
	return fmt.Sprintf("render template %s: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Option configures the renderer.
type Option func(*Renderer)

// WithLogger overrides the no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithThemeFS layers a theme template directory over the embedded defaults.
// Later layers win, so call order is defaults -> theme.
func WithThemeFS(fsys fs.FS) Option {
	return func(r *Renderer) {
		if fsys != nil {
			r.loader.push(fsys)
		}
	}
}

// WithBaseURL seeds the relurl filter and canonical URL helpers.
func WithBaseURL(baseURL string) Option {
	return func(r *Renderer) {
		r.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithDefaultLocale marks the locale that renders without a path prefix.
func WithDefaultLocale(locale string) Option {
	return func(r *Renderer) {
		if locale = strings.TrimSpace(locale); locale != "" {
			r.defaultLocale = locale
		}
	}
}

// Renderer executes pongo2 templates from a layered template set: theme
// templates first, embedded defaults as the floor.
type Renderer struct {
	set    *pongo2.TemplateSet
	loader *layeredLoader
	logger interfaces.Logger

	baseURL       string
	defaultLocale string

	mu sync.Mutex
}

var _ interfaces.TemplateRenderer = (*Renderer)(nil)

// New builds a renderer over the embedded default templates plus any theme
// layers supplied through options.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		loader:        newLayeredLoader(DefaultTemplates()),
		logger:        logging.NoOp(),
		defaultLocale: "en",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.loader.empty() {
		return nil, ErrTemplateSetEmpty
	}

	r.set = pongo2.NewSet("docsite", r.loader)
	r.set.Globals = pongo2.Context{}

	if err := r.registerBuiltinFilters(); err != nil {
		return nil, err
	}
	return r, nil
}

// Render executes the named template. Unknown names fall back to the page
// template so partial themes keep working; compile errors propagate.
func (r *Renderer) Render(ctx context.Context, name string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = normalizeTemplateName(name)
	if name != TemplatePage && !r.loader.exists(name) {
		r.logger.Debug("template missing, using page fallback", "template", name)
		name = TemplatePage
	}

	tpl, err := r.template(name)
	if err != nil {
		return "", r.wrapError(name, data, err)
	}
	out, err := tpl.Execute(r.executionContext(data))
	if err != nil {
		return "", r.wrapError(name, data, err)
	}
	return out, nil
}

// RenderString executes an inline template against the shared globals.
func (r *Renderer) RenderString(ctx context.Context, template string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tpl, err := r.set.FromString(template)
	if err != nil {
		return "", &TemplateError{Template: "inline", Err: err}
	}
	out, err := tpl.Execute(r.executionContext(data))
	if err != nil {
		return "", &TemplateError{Template: "inline", Err: err}
	}
	return out, nil
}

// RegisterFilter exposes fn to templates under name, replacing any filter
// already registered under it.
func (r *Renderer) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("render: filter name is required")
	}
	if fn == nil {
		return fmt.Errorf("render: filter %s requires a function", name)
	}
	return registerOrReplaceFilter(name, adaptFilter(fn))
}

// GlobalContext merges data into the set-wide globals.
func (r *Renderer) GlobalContext(data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, value := range data {
		r.set.Globals[key] = value
	}
	return nil
}

// Invalidate drops compiled templates so theme edits picked up by the
// watcher take effect on the next render.
func (r *Renderer) Invalidate() {
	r.set.CleanCache()
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.FromCache(name)
}

func (r *Renderer) executionContext(data any) pongo2.Context {
	switch value := data.(type) {
	case nil:
		return pongo2.Context{}
	case pongo2.Context:
		return value
	case map[string]any:
		return pongo2.Context(value)
	case PageContext:
		return value.templateContext()
	case *PageContext:
		if value == nil {
			return pongo2.Context{}
		}
		return value.templateContext()
	default:
		return pongo2.Context{"data": data}
	}
}

func (r *Renderer) wrapError(template string, data any, err error) error {
	route := ""
	switch value := data.(type) {
	case PageContext:
		route = value.Page.Route
	case *PageContext:
		if value != nil {
			route = value.Page.Route
		}
	}
	return &TemplateError{Template: template, Route: route, Err: err}
}

func normalizeTemplateName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return TemplatePage
	}
	if path.Ext(name) == "" {
		name += ".html"
	}
	return path.Clean(name)
}

// layeredLoader resolves template names against a stack of filesystems,
// newest layer first. It satisfies pongo2.TemplateLoader.
type layeredLoader struct {
	mu     sync.RWMutex
	layers []fs.FS
}

func newLayeredLoader(base fs.FS) *layeredLoader {
	loader := &layeredLoader{}
	if base != nil {
		loader.layers = append(loader.layers, base)
	}
	return loader
}

func (l *layeredLoader) push(fsys fs.FS) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.layers = append(l.layers, fsys)
}

func (l *layeredLoader) empty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.layers) == 0
}

func (l *layeredLoader) exists(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cleaned := path.Clean(strings.TrimPrefix(name, "/"))
	for i := len(l.layers) - 1; i >= 0; i-- {
		if _, err := fs.Stat(l.layers[i], cleaned); err == nil {
			return true
		}
	}
	return false
}

// Abs resolves name relative to the template that referenced it. Set-root
// names pass through untouched.
func (l *layeredLoader) Abs(base, name string) string {
	name = path.Clean(strings.TrimSpace(name))
	if base == "" || (!strings.HasPrefix(name, "./") && !strings.Contains(name, "..")) {
		return name
	}
	return path.Join(path.Dir(base), name)
}

func (l *layeredLoader) Get(name string) (io.Reader, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cleaned := path.Clean(strings.TrimPrefix(name, "/"))
	for i := len(l.layers) - 1; i >= 0; i-- {
		contents, err := fs.ReadFile(l.layers[i], cleaned)
		if err == nil {
			return bytes.NewReader(contents), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("template %s: %w", cleaned, fs.ErrNotExist)
}
