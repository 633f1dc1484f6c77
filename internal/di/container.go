package di

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/builder"
	intdocs "github.com/goliatone/go-docsite/internal/documents"
	intlint "github.com/goliatone/go-docsite/internal/lint"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/internal/logging/console"
	"github.com/goliatone/go-docsite/internal/logging/gologger"
	"github.com/goliatone/go-docsite/internal/markdown"
	intnav "github.com/goliatone/go-docsite/internal/nav"
	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/internal/runtimeconfig"
	"github.com/goliatone/go-docsite/internal/search"
	"github.com/goliatone/go-docsite/internal/server"
	"github.com/goliatone/go-docsite/internal/urls"
	"github.com/goliatone/go-docsite/internal/watch"
	"github.com/goliatone/go-docsite/lint"
	"github.com/goliatone/go-docsite/nav"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/site"
)

// ErrServeDisabled indicates the preview server was requested without the
// serve feature.
var ErrServeDisabled = errors.New("di: serve feature is disabled")

// Container wires the engine's services from runtime configuration. Every
// service is built on first use and memoised, so a host that only lints never
// pays for a renderer or a search index. Overrides installed through options
// replace the default wiring wholesale.
type Container struct {
	cfg runtimeconfig.Config

	mu sync.Mutex

	provider interfaces.LoggerProvider
	clock    func() time.Time

	rendererOverride  interfaces.TemplateRenderer
	publisherOverride interfaces.Publisher
	searchOverride    interfaces.SearchIndex

	definition builder.DefinitionSource
	resolver   *liveURLResolver
	themeSel   *render.ThemeSelector

	documentsSvc documents.Service
	documentsErr error

	navBuilder nav.Builder
	navErr     error

	auditor    lint.Auditor
	auditorErr error

	renderer    interfaces.TemplateRenderer
	rendererErr error

	publisher    interfaces.Publisher
	publisherErr error

	searchIdx   interfaces.SearchIndex
	searchErr   error
	searchOwned bool

	siteBuilder *builder.Builder
	builderErr  error

	watcher    *watch.Watcher
	watcherErr error

	srv    *server.Server
	srvErr error
}

// Option mutates the container before any service is built.
type Option func(*Container)

// WithLoggerProvider overrides the configured logging provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.provider = provider
		}
	}
}

// WithRenderer overrides the default template renderer.
func WithRenderer(renderer interfaces.TemplateRenderer) Option {
	return func(c *Container) {
		if renderer != nil {
			c.rendererOverride = renderer
		}
	}
}

// WithPublisher overrides the default output publisher. The preview server
// needs a publisher exposing an afero filesystem, so supplying another kind
// disables serve.
func WithPublisher(publisher interfaces.Publisher) Option {
	return func(c *Container) {
		if publisher != nil {
			c.publisherOverride = publisher
		}
	}
}

// WithSearchIndex overrides the default bleve index. Shutdown leaves
// caller-supplied indexes open.
func WithSearchIndex(index interfaces.SearchIndex) Option {
	return func(c *Container) {
		if index != nil {
			c.searchOverride = index
		}
	}
}

// WithClock pins the time source used by builds, for reproducible output.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.clock = now
		}
	}
}

// NewContainer validates cfg and prepares the wiring. Services are not
// constructed until their accessor runs.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{
		cfg:      cfg,
		resolver: &liveURLResolver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() runtimeconfig.Config {
	return c.cfg
}

// LoggerProvider returns the logging provider, building the configured one on
// first use. Hosts use it to log through the same sink as the module.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggerProviderLocked()
}

// Documents returns the corpus service.
func (c *Container) Documents() (documents.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.documentsLocked()
}

// Nav returns the navigation builder.
func (c *Container) Nav() (nav.Builder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navLocked()
}

// Linter returns the link auditor.
func (c *Container) Linter() (lint.Auditor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.linterLocked()
}

// Renderer returns the template renderer.
func (c *Container) Renderer() (interfaces.TemplateRenderer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rendererLocked()
}

// Publisher returns the output publisher.
func (c *Container) Publisher() (interfaces.Publisher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.publisherLocked()
}

// Search returns the search index, nil when the feature is off.
func (c *Container) Search() (interfaces.SearchIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchLocked()
}

// Builder returns the static site builder.
func (c *Container) Builder() (*builder.Builder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builderLocked()
}

// Watcher returns the filesystem watcher used by watch mode.
func (c *Container) Watcher() (*watch.Watcher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watcherLocked()
}

// Server returns the preview server. The serve feature must be enabled.
func (c *Container) Server() (*server.Server, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverLocked()
}

// DefinitionSource returns the loader shared by the builder, the server, and
// command handlers. Every load refreshes the canonical URL resolver, so
// watch-mode edits to base_url or locales take effect on the next run.
func (c *Container) DefinitionSource() builder.DefinitionSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.definitionLocked()
}

// Audit runs a link audit over the current corpus. Overrides win over the
// definition's lint policy; empty override fields keep the policy values.
func (c *Container) Audit(ctx context.Context, overrides lint.Options) (*lint.Report, error) {
	c.mu.Lock()
	corpus, err := c.documentsLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	navBuilder, err := c.navLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	auditor, err := c.linterLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	source := c.definitionLocked()
	c.mu.Unlock()

	def, err := source(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := corpus.Scan(ctx); err != nil {
		return nil, err
	}
	resolved, err := navBuilder.Build(ctx, def)
	if err != nil {
		return nil, err
	}
	return auditor.Audit(ctx, resolved, c.auditOptions(def, overrides))
}

// Shutdown releases long-lived resources: the watcher stops streaming and a
// container-opened search index is closed. Indexes supplied through
// WithSearchIndex stay open for their owner.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	watcher := c.watcher
	index := c.searchIdx
	owned := c.searchOwned
	c.mu.Unlock()

	var errs []error
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if owned && index != nil {
		if err := index.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Container) loggerProviderLocked() interfaces.LoggerProvider {
	if c.provider != nil {
		return c.provider
	}
	if !c.cfg.Features.Logger {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(c.cfg.Logging.Provider), "gologger") {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.cfg.Logging.Level,
			Format:    c.cfg.Logging.Format,
			AddSource: c.cfg.Logging.AddSource,
			Focus:     c.cfg.Logging.Focus,
		})
		if err == nil {
			c.provider = provider
			return c.provider
		}
	}
	c.provider = console.NewProvider(console.Options{
		MinLevel: consoleLevel(c.cfg.Logging.Level),
	})
	return c.provider
}

func (c *Container) documentsLocked() (documents.Service, error) {
	if c.documentsSvc != nil || c.documentsErr != nil {
		return c.documentsSvc, c.documentsErr
	}

	opts := []intdocs.ServiceOption{
		intdocs.WithLogger(logging.DocumentsLogger(c.loggerProviderLocked())),
	}
	if def, err := c.peekDefinitionLocked(); err == nil && def != nil {
		if len(def.FrontMatter.Require) > 0 || len(def.FrontMatter.Schema) > 0 {
			policy, err := markdown.CompileFrontMatterPolicy(def.FrontMatter.Require, def.FrontMatter.Schema)
			if err != nil {
				c.documentsErr = err
				return nil, err
			}
			opts = append(opts, intdocs.WithFrontMatterPolicy(policy))
		}
	}

	svc, err := intdocs.NewService(intdocs.Config{
		ContentDir:    c.cfg.Content.Dir,
		Pattern:       firstPattern(c.cfg.Content.Patterns),
		Recursive:     c.cfg.Content.Recursive,
		DefaultLocale: c.cfg.DefaultLocale,
		Locales:       c.cfg.Content.Locales,
		Parser: interfaces.ParseOptions{
			Extensions: c.cfg.Markdown.Extensions,
			Sanitize:   c.cfg.Markdown.Sanitize,
			HardWraps:  c.cfg.Markdown.HardWraps,
			SafeMode:   c.cfg.Markdown.SafeMode,
		},
	}, opts...)
	if err != nil {
		c.documentsErr = err
		return nil, err
	}
	c.documentsSvc = svc
	return c.documentsSvc, nil
}

func (c *Container) navLocked() (nav.Builder, error) {
	if c.navBuilder != nil || c.navErr != nil {
		return c.navBuilder, c.navErr
	}
	corpus, err := c.documentsLocked()
	if err != nil {
		c.navErr = err
		return nil, err
	}
	b, err := intnav.NewBuilder(corpus,
		intnav.WithLogger(logging.NavLogger(c.loggerProviderLocked())),
		intnav.WithLocale(c.cfg.DefaultLocale),
	)
	if err != nil {
		c.navErr = err
		return nil, err
	}
	c.navBuilder = b
	return c.navBuilder, nil
}

func (c *Container) linterLocked() (lint.Auditor, error) {
	if c.auditor != nil || c.auditorErr != nil {
		return c.auditor, c.auditorErr
	}
	corpus, err := c.documentsLocked()
	if err != nil {
		c.auditorErr = err
		return nil, err
	}

	opts := []intlint.AuditorOption{
		intlint.WithLogger(logging.LintLogger(c.loggerProviderLocked())),
	}
	if dir := strings.TrimSpace(c.cfg.Content.Dir); dir != "" {
		opts = append(opts, intlint.WithSourceFS(os.DirFS(dir)))
	}
	if def, err := c.peekDefinitionLocked(); err == nil && def != nil {
		var roots []fs.FS
		for _, static := range def.Static {
			roots = append(roots, os.DirFS(filepath.Join(c.siteDir(), static)))
		}
		if len(roots) > 0 {
			opts = append(opts, intlint.WithAssetFS(roots...))
		}
	}

	auditor, err := intlint.NewAuditor(corpus, opts...)
	if err != nil {
		c.auditorErr = err
		return nil, err
	}
	c.auditor = auditor
	return c.auditor, nil
}

func (c *Container) rendererLocked() (interfaces.TemplateRenderer, error) {
	if c.renderer != nil || c.rendererErr != nil {
		return c.renderer, c.rendererErr
	}
	if c.rendererOverride != nil {
		c.renderer = c.rendererOverride
		return c.renderer, nil
	}

	opts := []render.Option{
		render.WithLogger(logging.ModuleLogger(c.loggerProviderLocked(), "docsite.render")),
	}
	// A broken definition is tolerated here: the renderer falls back to the
	// embedded templates and the builder reports the definition error itself.
	if def, err := c.peekDefinitionLocked(); err == nil && def != nil {
		opts = append(opts,
			render.WithBaseURL(def.BaseURL),
			render.WithDefaultLocale(def.DefaultLocale),
		)
		if selector := c.themeSelectorLocked(); selector != nil {
			dir := selector.Dir(render.ThemeRef{
				Name:    def.Theme.Name,
				Variant: def.Theme.Variant,
				Dir:     def.Theme.Dir,
			})
			if dir != "" {
				if themeFS := render.TemplatesFS(dir); themeFS != nil {
					opts = append(opts, render.WithThemeFS(themeFS))
				}
			}
		}
	}

	renderer, err := render.New(opts...)
	if err != nil {
		c.rendererErr = err
		return nil, err
	}
	c.renderer = renderer
	return c.renderer, nil
}

func (c *Container) publisherLocked() (interfaces.Publisher, error) {
	if c.publisher != nil || c.publisherErr != nil {
		return c.publisher, c.publisherErr
	}
	if c.publisherOverride != nil {
		c.publisher = c.publisherOverride
		return c.publisher, nil
	}
	publisher, err := builder.NewPublisher(afero.NewOsFs(), c.cfg.Build.OutputDir)
	if err != nil {
		c.publisherErr = err
		return nil, err
	}
	c.publisher = publisher
	return c.publisher, nil
}

func (c *Container) searchLocked() (interfaces.SearchIndex, error) {
	if c.searchIdx != nil || c.searchErr != nil {
		return c.searchIdx, c.searchErr
	}
	if c.searchOverride != nil {
		c.searchIdx = c.searchOverride
		return c.searchIdx, nil
	}
	if !c.searchEnabled() {
		return nil, nil
	}

	path := strings.TrimSpace(c.cfg.Search.IndexPath)
	if path == "" {
		path = filepath.Join(c.cfg.Build.OutputDir, search.DefaultIndexName)
	}
	index, err := search.Open(path, search.WithLogger(logging.SearchLogger(c.loggerProviderLocked())))
	if err != nil {
		c.searchErr = err
		return nil, err
	}
	c.searchIdx = index
	c.searchOwned = true
	return c.searchIdx, nil
}

func (c *Container) builderLocked() (*builder.Builder, error) {
	if c.siteBuilder != nil || c.builderErr != nil {
		return c.siteBuilder, c.builderErr
	}

	corpus, err := c.documentsLocked()
	if err != nil {
		c.builderErr = err
		return nil, err
	}
	navBuilder, err := c.navLocked()
	if err != nil {
		c.builderErr = err
		return nil, err
	}
	renderer, err := c.rendererLocked()
	if err != nil {
		c.builderErr = err
		return nil, err
	}
	publisher, err := c.publisherLocked()
	if err != nil {
		c.builderErr = err
		return nil, err
	}
	var auditor lint.Auditor
	if c.cfg.Features.Lint {
		auditor, err = c.linterLocked()
		if err != nil {
			c.builderErr = err
			return nil, err
		}
	}
	index, err := c.searchLocked()
	if err != nil {
		c.builderErr = err
		return nil, err
	}

	deps := builder.Dependencies{
		Definition: c.definitionLocked(),
		Documents:  corpus,
		Nav:        navBuilder,
		Linter:     auditor,
		Renderer:   renderer,
		Search:     index,
		Publisher:  publisher,
		URLs:       c.resolver,
		Theme:      c.themeSelectorLocked(),
		Logger:     logging.BuilderLogger(c.loggerProviderLocked()),
	}
	cfg := builder.Config{
		Enabled:       c.cfg.Build.Enabled,
		ContentDir:    c.cfg.Content.Dir,
		SiteDir:       c.siteDir(),
		OutputDir:     c.cfg.Build.OutputDir,
		Workers:       c.cfg.Build.Workers,
		CleanURLs:     c.cfg.Build.CleanURLs,
		IncludeDrafts: c.cfg.Content.IncludeDrafts,
		Sitemap:       c.cfg.Build.GenerateSitemap,
		Robots:        c.cfg.Build.GenerateRobots,
		Feeds:         c.cfg.Build.GenerateFeeds,
		SearchIndex:   c.searchEnabled(),
	}
	var opts []builder.Option
	if c.clock != nil {
		opts = append(opts, builder.WithClock(c.clock))
	}

	b, err := builder.New(cfg, deps, opts...)
	if err != nil {
		c.builderErr = err
		return nil, err
	}
	c.siteBuilder = b
	return c.siteBuilder, nil
}

func (c *Container) watcherLocked() (*watch.Watcher, error) {
	if c.watcher != nil || c.watcherErr != nil {
		return c.watcher, c.watcherErr
	}

	cfg := watch.Config{
		ContentDir:     c.cfg.Content.Dir,
		DefinitionPath: c.definitionPath(),
		Debounce:       c.cfg.Serve.Debounce,
	}
	if selector := c.themeSelectorLocked(); selector != nil {
		if def, err := c.peekDefinitionLocked(); err == nil && def != nil {
			cfg.ThemeDir = selector.Dir(render.ThemeRef{
				Name:    def.Theme.Name,
				Variant: def.Theme.Variant,
				Dir:     def.Theme.Dir,
			})
		}
	}

	watcher, err := watch.New(cfg, watch.WithLogger(logging.WatchLogger(c.loggerProviderLocked())))
	if err != nil {
		c.watcherErr = err
		return nil, err
	}
	c.watcher = watcher
	return c.watcher, nil
}

func (c *Container) serverLocked() (*server.Server, error) {
	if c.srv != nil || c.srvErr != nil {
		return c.srv, c.srvErr
	}
	if !c.cfg.Features.Serve {
		c.srvErr = ErrServeDisabled
		return nil, c.srvErr
	}

	siteBuilder, err := c.builderLocked()
	if err != nil {
		c.srvErr = err
		return nil, err
	}
	publisher, err := c.publisherLocked()
	if err != nil {
		c.srvErr = err
		return nil, err
	}
	fsPublisher, ok := publisher.(interface{ Fs() afero.Fs })
	if !ok {
		c.srvErr = errors.New("di: preview server needs a filesystem publisher")
		return nil, c.srvErr
	}
	index, err := c.searchLocked()
	if err != nil {
		c.srvErr = err
		return nil, err
	}
	renderer, err := c.rendererLocked()
	if err != nil {
		c.srvErr = err
		return nil, err
	}

	deps := server.Dependencies{
		Builder:    siteBuilder,
		Files:      fsPublisher.Fs(),
		Search:     index,
		Renderer:   renderer,
		Definition: c.definitionLocked(),
		Logger:     logging.ServerLogger(c.loggerProviderLocked()),
	}
	if c.cfg.Serve.Watch {
		watcher, err := c.watcherLocked()
		if err != nil {
			c.srvErr = err
			return nil, err
		}
		deps.Watcher = watcher
	}

	srv, err := server.New(server.Config{
		Addr:  c.cfg.Serve.Addr,
		Watch: c.cfg.Serve.Watch,
		Open:  c.cfg.Serve.Open,
	}, deps)
	if err != nil {
		c.srvErr = err
		return nil, err
	}
	c.srv = srv
	return c.srv, nil
}

func (c *Container) definitionLocked() builder.DefinitionSource {
	if c.definition == nil {
		base := builder.LoadDefinition(c.cfg.Site.Definition)
		baseURL := strings.TrimSpace(c.cfg.Build.BaseURL)
		resolver := c.resolver
		c.definition = func(ctx context.Context) (*site.Definition, error) {
			def, err := base(ctx)
			if err != nil {
				return nil, err
			}
			if def == nil {
				return nil, site.ErrDefinitionNotFound
			}
			if baseURL != "" {
				patched := *def
				patched.BaseURL = baseURL
				def = &patched
			}
			if err := resolver.refresh(def); err != nil {
				return nil, err
			}
			return def, nil
		}
	}
	return c.definition
}

// peekDefinitionLocked loads the definition for wiring-time decisions such
// as theme directories and static roots. Failures are tolerated by callers;
// the builder surfaces the real error at build time.
func (c *Container) peekDefinitionLocked() (*site.Definition, error) {
	return c.definitionLocked()(context.Background())
}

func (c *Container) themeSelectorLocked() *render.ThemeSelector {
	if !c.cfg.Features.Themes {
		return nil
	}
	if c.themeSel == nil {
		c.themeSel = render.NewThemeSelector(render.ThemeConfig{
			BasePath:       c.cfg.Themes.BasePath,
			DefaultTheme:   c.cfg.Themes.DefaultTheme,
			DefaultVariant: c.cfg.Themes.DefaultVariant,
		}, nil)
	}
	return c.themeSel
}

// auditOptions layers three sources: the definition's lint policy, host
// configuration for the fields the policy leaves open, and per-call
// overrides on top.
func (c *Container) auditOptions(def *site.Definition, overrides lint.Options) lint.Options {
	opts := lint.DefaultOptions()
	if def != nil {
		opts = lint.OptionsFromPolicy(def.Lint)
		if strings.TrimSpace(def.Lint.Level) == "" {
			if level := strings.TrimSpace(c.cfg.Lint.Level); level != "" {
				opts.Level = strings.ToLower(level)
			}
		}
		if def.Lint.Anchors == nil {
			opts.Anchors = c.cfg.Lint.Anchors
		}
	}
	if c.cfg.Lint.External {
		opts.External = true
	}
	if c.cfg.Lint.ExternalTimeout > 0 {
		opts.Timeout = c.cfg.Lint.ExternalTimeout
	}
	opts.Ignore = append(opts.Ignore, c.cfg.Lint.Ignore...)

	if level := strings.TrimSpace(overrides.Level); level != "" {
		opts.Level = strings.ToLower(level)
	}
	if overrides.External {
		opts.External = true
	}
	if overrides.Timeout > 0 {
		opts.Timeout = overrides.Timeout
	}
	if overrides.Concurrency > 0 {
		opts.Concurrency = overrides.Concurrency
	}
	if len(overrides.Ignore) > 0 {
		opts.Ignore = append(opts.Ignore, overrides.Ignore...)
	}
	return opts
}

func (c *Container) searchEnabled() bool {
	return c.cfg.Features.Search || c.cfg.Search.Enabled
}

// siteDir is the directory the definition's static paths resolve against.
func (c *Container) siteDir() string {
	if path := strings.TrimSpace(c.cfg.Site.Definition); path != "" {
		if dir := filepath.Dir(path); dir != "" {
			return dir
		}
	}
	return "."
}

// definitionPath resolves the watched definition file: the configured path,
// or the first default filename present in the working directory.
func (c *Container) definitionPath() string {
	if path := strings.TrimSpace(c.cfg.Site.Definition); path != "" {
		return path
	}
	for _, candidate := range site.DefaultFilenames {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func firstPattern(patterns []string) string {
	for _, pattern := range patterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func consoleLevel(name string) *console.Level {
	var level console.Level
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		level = console.LevelTrace
	case "debug":
		level = console.LevelDebug
	case "", "info":
		level = console.LevelInfo
	case "warn", "warning":
		level = console.LevelWarn
	case "error":
		level = console.LevelError
	case "fatal":
		level = console.LevelFatal
	default:
		return nil
	}
	return &level
}

// liveURLResolver tracks the most recently loaded definition so canonical
// URLs follow base_url and locale edits in watch mode. The builder loads the
// definition at the start of every run, which refreshes this resolver before
// any URL is built.
type liveURLResolver struct {
	mu    sync.RWMutex
	key   string
	inner *urls.Resolver
}

var _ builder.URLResolver = (*liveURLResolver)(nil)

func (r *liveURLResolver) refresh(def *site.Definition) error {
	key := resolverKey(def)
	r.mu.RLock()
	current, ready := r.key, r.inner != nil
	r.mu.RUnlock()
	if ready && current == key {
		return nil
	}

	resolver, err := urls.NewResolver(def)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.key = key
	r.inner = resolver
	r.mu.Unlock()
	return nil
}

func (r *liveURLResolver) current() (*urls.Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.inner == nil {
		return nil, errors.New("di: url resolver used before a definition loaded")
	}
	return r.inner, nil
}

func (r *liveURLResolver) DocumentURL(route, locale string) (string, error) {
	resolver, err := r.current()
	if err != nil {
		return "", err
	}
	return resolver.DocumentURL(route, locale)
}

func (r *liveURLResolver) AssetURL(assetPath string) (string, error) {
	resolver, err := r.current()
	if err != nil {
		return "", err
	}
	return resolver.AssetURL(assetPath)
}

func (r *liveURLResolver) SitemapURL() (string, error) {
	resolver, err := r.current()
	if err != nil {
		return "", err
	}
	return resolver.SitemapURL()
}

func (r *liveURLResolver) FeedURL(locale string) (string, error) {
	resolver, err := r.current()
	if err != nil {
		return "", err
	}
	return resolver.FeedURL(locale)
}

func resolverKey(def *site.Definition) string {
	parts := append([]string{def.BaseURL}, def.AllLocales()...)
	return strings.Join(parts, "\x00")
}
