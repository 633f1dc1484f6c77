package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/internal/search"
	"github.com/goliatone/go-docsite/lint"
	"github.com/goliatone/go-docsite/nav"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/site"
)

var (
	// ErrDisabled indicates the build feature is switched off.
	ErrDisabled = errors.New("builder: build feature is disabled")
	// ErrLintGate indicates the link audit found errors under level "error".
	ErrLintGate = errors.New("builder: link audit failed")

	errDefinitionRequired = errors.New("builder: definition source is required")
	errDocumentsRequired  = errors.New("builder: documents service is required")
	errNavRequired        = errors.New("builder: nav builder is required")
	errRendererRequired   = errors.New("builder: template renderer is required")
	errPublisherRequired  = errors.New("builder: publisher is required")
	errURLsRequired       = errors.New("builder: url resolver is required")
)

// CollisionError reports two build inputs claiming the same output file.
type CollisionError struct {
	Output string
	First  string
	Second string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("builder: output collision at %s: %s and %s", e.Output, e.First, e.Second)
}

// Config captures behaviour toggles for the static site build.
type Config struct {
	Enabled       bool
	ContentDir    string
	SiteDir       string
	OutputDir     string
	Workers       int
	CleanURLs     bool
	IncludeDrafts bool
	Sitemap       bool
	Robots        bool
	Feeds         bool
	SearchIndex   bool
}

// BuildOptions narrows the scope of a single run.
type BuildOptions struct {
	// Locales restricts the build to a subset of the definition's locales.
	// Partial builds merge into the existing manifest instead of replacing it.
	Locales []string
	// Force bypasses manifest skip checks and re-renders everything.
	Force bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	Pages         int
	PagesSkipped  int
	Assets        int
	AssetsSkipped int
	SearchDocs    int
	Duration      time.Duration
	Issues        []lint.Issue
	ManifestPath  string
}

// DefinitionSource yields the parsed site definition for a build. Watch mode
// reloads it on every run so definition edits take effect without a restart.
type DefinitionSource func(ctx context.Context) (*site.Definition, error)

// StaticDefinition adapts an already-parsed definition, for tests and
// embedded callers.
func StaticDefinition(def *site.Definition) DefinitionSource {
	return func(context.Context) (*site.Definition, error) { return def, nil }
}

// LoadDefinition reads the definition file at path on every call.
func LoadDefinition(path string) DefinitionSource {
	return func(context.Context) (*site.Definition, error) { return site.Load(path) }
}

// URLResolver builds the canonical URLs baked into page canonicals, the
// sitemap, and feeds.
type URLResolver interface {
	DocumentURL(route, locale string) (string, error)
	AssetURL(assetPath string) (string, error)
	SitemapURL() (string, error)
	FeedURL(locale string) (string, error)
}

// Dependencies lists the services the builder drives. Linter, Search, and
// Theme are optional; the rest are required.
type Dependencies struct {
	Definition DefinitionSource
	Documents  documents.Service
	Nav        nav.Builder
	Linter     lint.Auditor
	Renderer   interfaces.TemplateRenderer
	Search     interfaces.SearchIndex
	Publisher  interfaces.Publisher
	URLs       URLResolver
	Theme      *render.ThemeSelector
	Logger     interfaces.Logger
}

// Option customises builder construction.
type Option func(*Builder)

// WithSourceFS overrides the content root used for non-Markdown asset
// copying. Tests run against fstest.MapFS through this.
func WithSourceFS(fsys fs.FS) Option {
	return func(b *Builder) {
		if fsys != nil {
			b.source = fsys
		}
	}
}

// WithSiteFS overrides the site root the definition's static directories
// are resolved against.
func WithSiteFS(fsys fs.FS) Option {
	return func(b *Builder) {
		if fsys != nil {
			b.siteRoot = fsys
		}
	}
}

// WithThemeFS overrides the theme directory used for asset copying and
// template fingerprinting.
func WithThemeFS(fsys fs.FS) Option {
	return func(b *Builder) {
		if fsys != nil {
			b.theme = fsys
		}
	}
}

// WithClock overrides the time source, pinning timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// Builder renders the document corpus into a publishable static tree.
type Builder struct {
	cfg  Config
	deps Dependencies

	logger   interfaces.Logger
	source   fs.FS
	siteRoot fs.FS
	theme    fs.FS
	now      func() time.Time
}

// New validates dependencies and constructs a builder.
func New(cfg Config, deps Dependencies, opts ...Option) (*Builder, error) {
	switch {
	case deps.Definition == nil:
		return nil, errDefinitionRequired
	case deps.Documents == nil:
		return nil, errDocumentsRequired
	case deps.Nav == nil:
		return nil, errNavRequired
	case deps.Renderer == nil:
		return nil, errRendererRequired
	case deps.Publisher == nil:
		return nil, errPublisherRequired
	case deps.URLs == nil:
		return nil, errURLsRequired
	}

	b := &Builder{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		now:    time.Now,
	}
	if b.logger == nil {
		b.logger = logging.NoOp()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

const htmlContentType = "text/html; charset=utf-8"

// Build runs the full pipeline: scan, lint, render, assets, sitemap, feeds,
// search, manifest. The manifest is written last so an interrupted build
// re-renders conservatively on the next run.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if !b.cfg.Enabled {
		return nil, ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := b.now()

	bctx, err := b.loadContext(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		ManifestPath: filepath.Join(b.cfg.OutputDir, ManifestFileName),
	}

	if err := b.lintGate(ctx, bctx, result); err != nil {
		result.Duration = b.now().Sub(started)
		return result, err
	}

	if err := b.planPages(ctx, bctx, opts); err != nil {
		return result, err
	}

	previous := b.previousManifest(ctx)
	partial := len(opts.Locales) > 0
	next := newManifest()
	if partial {
		next = previous.clone()
	}

	outcomes, err := b.renderPages(ctx, bctx, previous, opts.Force)
	if err != nil {
		return result, err
	}

	for _, outcome := range outcomes {
		job := outcome.job
		if outcome.skipped {
			result.PagesSkipped++
			if entry, ok := previous.lookupPage(job.route, job.locale); ok {
				next.setPage(entry)
			}
			continue
		}
		if err := b.deps.Publisher.Write(ctx, interfaces.WriteRequest{
			Path:        job.output,
			Contents:    []byte(outcome.html),
			ContentType: htmlContentType,
			Category:    interfaces.ArtifactPage,
		}); err != nil {
			return result, err
		}
		result.Pages++
		next.setPage(manifestPage{
			Route:      job.route,
			Locale:     job.locale,
			Output:     job.output,
			Template:   job.template,
			Checksum:   job.checksum,
			RenderedAt: bctx.generatedAt,
		})
	}

	assets, err := b.copyAssets(ctx, bctx, previous, next, opts.Force)
	result.Assets = assets.copied
	result.AssetsSkipped = assets.skipped
	if err != nil {
		return result, err
	}

	if b.cfg.Sitemap {
		if err := b.writeSitemap(ctx, bctx, next); err != nil {
			return result, err
		}
	}
	if b.cfg.Robots {
		if err := b.writeRobots(ctx, bctx, next); err != nil {
			return result, err
		}
	}
	if b.cfg.Feeds {
		if err := b.writeFeeds(ctx, bctx, next); err != nil {
			return result, err
		}
	}

	if b.cfg.SearchIndex && b.deps.Search != nil {
		count, err := b.rebuildSearch(ctx, bctx, next)
		if err != nil {
			return result, err
		}
		result.SearchDocs = count
	}

	if !partial {
		if err := b.sweepStale(ctx, previous, next); err != nil {
			return result, err
		}
	}

	next.GeneratedAt = bctx.generatedAt
	data, err := next.marshal()
	if err != nil {
		return result, err
	}
	if err := b.deps.Publisher.Write(ctx, interfaces.WriteRequest{
		Path:        ManifestFileName,
		Contents:    data,
		ContentType: "application/json",
		Category:    interfaces.ArtifactManifest,
	}); err != nil {
		return result, err
	}

	result.Duration = b.now().Sub(started)
	b.logger.Info("site build complete",
		"pages", result.Pages,
		"pages_skipped", result.PagesSkipped,
		"assets", result.Assets,
		"assets_skipped", result.AssetsSkipped,
		"search_docs", result.SearchDocs,
		"duration", result.Duration.String(),
	)
	return result, nil
}

// BuildPage re-renders every output of a single route, for watch-mode
// refreshes. The manifest is left untouched; the next full build reconciles.
func (b *Builder) BuildPage(ctx context.Context, route string) error {
	if !b.cfg.Enabled {
		return ErrDisabled
	}
	route = strings.Trim(strings.TrimSpace(strings.ReplaceAll(route, "\\", "/")), "/")

	bctx, err := b.loadContext(ctx, BuildOptions{})
	if err != nil {
		return err
	}
	if err := b.planPages(ctx, bctx, BuildOptions{}); err != nil {
		return err
	}

	var jobs []*pageJob
	for _, job := range bctx.pages {
		if job.route == route {
			jobs = append(jobs, job)
		}
	}
	if len(jobs) == 0 {
		return fmt.Errorf("builder: no page at route %q", route)
	}

	for _, job := range jobs {
		outcome := b.renderJob(ctx, bctx, job, nil, true)
		if outcome.err != nil {
			return outcome.err
		}
		if err := b.deps.Publisher.Write(ctx, interfaces.WriteRequest{
			Path:        job.output,
			Contents:    []byte(outcome.html),
			ContentType: htmlContentType,
			Category:    interfaces.ArtifactPage,
		}); err != nil {
			return err
		}
	}
	b.logger.Debug("page rebuilt", "route", route, "outputs", len(jobs))
	return nil
}

// Clean removes the outputs recorded in the manifest, then the manifest
// itself. Entries pointing outside the output directory are refused.
func (b *Builder) Clean(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, ok := b.deps.Publisher.(ManifestSource)
	if !ok {
		return errors.New("builder: publisher keeps no manifest, refusing to guess at outputs")
	}
	data, err := src.Manifest(ctx)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		b.logger.Debug("no build manifest, nothing to clean")
		return nil
	}
	man, err := parseManifest(data)
	if err != nil {
		return err
	}

	var errs []error
	removed := 0
	for _, key := range man.sortedPageKeys() {
		if err := b.removeRecorded(ctx, man.Pages[key].Output); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	for _, key := range man.sortedAssetKeys() {
		if err := b.removeRecorded(ctx, man.Assets[key].Output); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if err := b.deps.Publisher.Remove(ctx, ManifestFileName); err != nil {
		errs = append(errs, err)
	}

	b.logger.Info("clean complete", "removed", removed, "output", b.cfg.OutputDir)
	return errors.Join(errs...)
}

func (b *Builder) removeRecorded(ctx context.Context, output string) error {
	if _, err := safeRelPath(output); err != nil {
		return fmt.Errorf("builder: manifest entry %q: %w", output, err)
	}
	return b.deps.Publisher.Remove(ctx, output)
}

// sweepStale removes outputs the previous build produced that this build no
// longer claims, so full builds converge on an exact tree.
func (b *Builder) sweepStale(ctx context.Context, previous, next *manifest) error {
	var stale []string
	for key, entry := range previous.Pages {
		if _, ok := next.Pages[key]; !ok {
			stale = append(stale, entry.Output)
		}
	}
	for key, entry := range previous.Assets {
		if _, ok := next.Assets[key]; !ok {
			stale = append(stale, entry.Output)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	for _, output := range stale {
		if _, err := safeRelPath(output); err != nil {
			b.logger.Warn("stale manifest entry ignored", "output", output)
			continue
		}
		if err := b.deps.Publisher.Remove(ctx, output); err != nil {
			return err
		}
	}
	b.logger.Debug("stale outputs removed", "count", len(stale))
	return nil
}

func (b *Builder) lintGate(ctx context.Context, bctx *buildContext, result *BuildResult) error {
	if b.deps.Linter == nil {
		if bctx.resolved.HasErrors() {
			return navIssuesError(bctx.resolved)
		}
		return nil
	}

	opts := lint.OptionsFromPolicy(bctx.def.Lint)
	report, err := b.deps.Linter.Audit(ctx, bctx.resolved, opts)
	if err != nil {
		return fmt.Errorf("builder: link audit: %w", err)
	}
	result.Issues = report.Issues
	errCount, warnCount := report.Counts()
	if warnCount > 0 {
		b.logger.Warn("link audit reported warnings", "warnings", warnCount)
	}
	if opts.Level == "error" && report.HasErrors() {
		return fmt.Errorf("%w: %d errors", ErrLintGate, errCount)
	}
	return nil
}

func navIssuesError(resolved *nav.Resolved) error {
	var parts []string
	for _, issue := range resolved.Issues {
		if issue.Severity != nav.SeverityError {
			continue
		}
		detail := issue.Reason
		if issue.Path != "" {
			detail = issue.Path + ": " + detail
		}
		parts = append(parts, detail)
	}
	return fmt.Errorf("builder: navigation did not resolve: %s", strings.Join(parts, "; "))
}

func (b *Builder) previousManifest(ctx context.Context) *manifest {
	src, ok := b.deps.Publisher.(ManifestSource)
	if !ok {
		return newManifest()
	}
	data, err := src.Manifest(ctx)
	if err != nil {
		b.logger.Warn("manifest read failed, rebuilding everything", "error", err.Error())
		return newManifest()
	}
	man, err := parseManifest(data)
	if err != nil {
		b.logger.Warn("manifest parse failed, rebuilding everything", "error", err.Error())
		return newManifest()
	}
	return man
}

func (b *Builder) rebuildSearch(ctx context.Context, bctx *buildContext, next *manifest) (int, error) {
	docs, err := b.deps.Documents.List(ctx)
	if err != nil {
		return 0, err
	}
	projected := search.Project(docs)
	if err := b.deps.Search.Rebuild(ctx, projected); err != nil {
		return 0, fmt.Errorf("builder: search rebuild: %w", err)
	}
	if rel := b.searchIndexRel(); rel != "" {
		next.setAsset(assetKey("search", rel), manifestAsset{
			Path:     rel,
			Source:   "search",
			Output:   rel,
			CopiedAt: bctx.generatedAt,
		})
	}
	return len(projected), nil
}

// searchIndexRel resolves the index location relative to the output dir so
// Clean can remove it. Memory indexes and out-of-tree paths yield nothing.
func (b *Builder) searchIndexRel() string {
	pather, ok := b.deps.Search.(interface{ Path() string })
	if !ok {
		return ""
	}
	idxPath := strings.TrimSpace(pather.Path())
	if idxPath == "" {
		return ""
	}
	rel, err := filepath.Rel(b.cfg.OutputDir, idxPath)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return ""
	}
	return rel
}

func (b *Builder) canonicalURL(route, locale string) string {
	built, err := b.deps.URLs.DocumentURL(route, locale)
	if err != nil {
		b.logger.Debug("canonical url unresolved", "route", route, "error", err.Error())
		return ""
	}
	return built
}

func (b *Builder) workerCount(groups int) int {
	workers := b.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if groups > 0 && workers > groups {
		workers = groups
	}
	return workers
}

func (b *Builder) contentFS() fs.FS {
	if b.source != nil {
		return b.source
	}
	if dir := strings.TrimSpace(b.cfg.ContentDir); dir != "" {
		return os.DirFS(dir)
	}
	return nil
}

func (b *Builder) staticFS() fs.FS {
	if b.siteRoot != nil {
		return b.siteRoot
	}
	dir := strings.TrimSpace(b.cfg.SiteDir)
	if dir == "" {
		dir = "."
	}
	return os.DirFS(dir)
}

func (b *Builder) themeAssetFS(themeDir string) fs.FS {
	if b.theme != nil {
		return b.theme
	}
	if strings.TrimSpace(themeDir) == "" {
		return nil
	}
	return os.DirFS(themeDir)
}

func (b *Builder) themeTemplatesFS(themeDir string) fs.FS {
	if b.theme != nil {
		if _, err := fs.Stat(b.theme, "templates"); err != nil {
			return nil
		}
		sub, err := fs.Sub(b.theme, "templates")
		if err != nil {
			return nil
		}
		return sub
	}
	return render.TemplatesFS(themeDir)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// pageChecksum folds the page's inputs into one manifest skip key. Parts are
// separated so concatenation cannot alias two different input sets.
func pageChecksum(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		io.WriteString(h, part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// absolutize upgrades root-relative URLs for sitemap and feed consumers,
// which require absolute locations even when the site has no base URL.
func absolutize(loc string) string {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "http://localhost/"
	}
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return loc
	}
	if !strings.HasPrefix(loc, "/") {
		loc = "/" + loc
	}
	return "http://localhost" + loc
}
