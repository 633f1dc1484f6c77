package documents

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	sitedocs "github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/identity"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/internal/markdown"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// Config controls corpus discovery and parsing.
type Config struct {
	ContentDir    string
	Pattern       string
	Recursive     bool
	DefaultLocale string
	Locales       []string
	Parser        interfaces.ParseOptions
}

// ServiceOption customises service construction.
type ServiceOption func(*service)

// WithLogger injects the logger used for scan reporting.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFrontMatterPolicy enforces the supplied front-matter contract during scans.
func WithFrontMatterPolicy(policy *markdown.FrontMatterPolicy) ServiceOption {
	return func(s *service) {
		s.policy = policy
	}
}

// WithSourceFS loads documents from the supplied filesystem instead of the
// configured content directory. Tests use this to run against fstest.MapFS.
func WithSourceFS(fsys fs.FS) ServiceOption {
	return func(s *service) {
		s.fsys = fsys
	}
}

// WithClock overrides the time source used for scan durations.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	cfg    Config
	source *markdown.Service
	policy *markdown.FrontMatterPolicy
	repo   *memoryRepository
	logger interfaces.Logger
	fsys   fs.FS
	now    func() time.Time
}

// NewService constructs the document corpus service.
func NewService(cfg Config, opts ...ServiceOption) (Service, error) {
	s := &service{
		cfg:    cfg,
		repo:   newMemoryRepository(),
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mdCfg := markdown.Config{
		BasePath:      cfg.ContentDir,
		DefaultLocale: cfg.DefaultLocale,
		Locales:       cfg.Locales,
		Pattern:       cfg.Pattern,
		Recursive:     cfg.Recursive,
		Parser:        cfg.Parser,
	}
	if s.fsys != nil {
		mdCfg.BasePath = ""
		s.source = markdown.NewServiceWithFS(mdCfg, nil, s.fsys)
	} else {
		source, err := markdown.NewService(mdCfg, nil)
		if err != nil {
			return nil, err
		}
		s.source = source
	}
	return s, nil
}

func (s *service) Scan(ctx context.Context) (*ScanSummary, error) {
	started := s.now()

	parsed, err := s.source.LoadDirectory(ctx, ".", markdown.LoadOptions{})
	if err != nil {
		return nil, errors.Join(ErrScanFailed, err)
	}

	records := make([]*Document, 0, len(parsed))
	sources := make(map[corpusKey]string, len(parsed))
	locales := map[string]struct{}{}
	sections := map[string]struct{}{}
	drafts := 0

	var failures []error
	for _, doc := range parsed {
		if s.policy != nil {
			if err := s.policy.Validate(doc.FrontMatter); err != nil {
				failures = append(failures, fmt.Errorf("%s: %w", doc.FilePath, err))
				continue
			}
		}

		record, err := s.buildRecord(doc)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", doc.FilePath, err))
			continue
		}

		key := corpusKey{route: record.Route, locale: record.Locale}
		if existing, ok := sources[key]; ok {
			return nil, &DuplicateRouteError{
				Route:  record.Route,
				Locale: record.Locale,
				Paths:  []string{existing, record.SourcePath},
			}
		}
		sources[key] = record.SourcePath

		records = append(records, record)
		locales[record.Locale] = struct{}{}
		if record.Section != "" {
			sections[record.Section] = struct{}{}
		}
		if record.Draft {
			drafts++
		}
	}

	if len(failures) > 0 {
		s.logger.Error("corpus scan failed", "failures", len(failures))
		return nil, errors.Join(append([]error{ErrScanFailed}, failures...)...)
	}

	s.repo.replace(records)

	summary := &ScanSummary{
		Documents: len(records),
		Drafts:    drafts,
		Locales:   sortedKeys(locales),
		Sections:  sortedKeys(sections),
		Duration:  s.now().Sub(started),
	}
	s.logger.Info("corpus scan complete",
		"documents", summary.Documents,
		"drafts", summary.Drafts,
		"locales", strings.Join(summary.Locales, ","),
		"duration", summary.Duration.String(),
	)
	return summary, nil
}

func (s *service) Get(ctx context.Context, route string, opts ...GetOption) (*Document, error) {
	if err := s.ensureScanned(ctx); err != nil {
		return nil, err
	}

	route = normalizeRoute(route)
	parsed := parseListOptions(opts...)
	locale := parsed.locale
	if locale == "" {
		locale = s.cfg.DefaultLocale
	}

	if doc, ok := s.repo.get(route, locale); ok {
		return doc, nil
	}
	if locale != s.cfg.DefaultLocale {
		if doc, ok := s.repo.get(route, s.cfg.DefaultLocale); ok {
			return doc, nil
		}
	}
	return nil, &NotFoundError{Route: route, Locale: locale}
}

func (s *service) GetByPath(ctx context.Context, sourcePath string) (*Document, error) {
	if err := s.ensureScanned(ctx); err != nil {
		return nil, err
	}

	sourcePath = strings.TrimSpace(strings.ReplaceAll(sourcePath, "\\", "/"))
	sourcePath = strings.TrimPrefix(sourcePath, "./")
	if sourcePath == "" {
		return nil, ErrPathRequired
	}

	if doc, ok := s.repo.getByPath(sourcePath); ok {
		return doc, nil
	}
	return nil, &NotFoundError{Path: sourcePath}
}

func (s *service) List(ctx context.Context, opts ...ListOption) ([]*Document, error) {
	if err := s.ensureScanned(ctx); err != nil {
		return nil, err
	}

	parsed := parseListOptions(opts...)

	var out []*Document
	for _, doc := range s.repo.list() {
		if doc.Draft && !parsed.includeDrafts {
			continue
		}
		if parsed.locale != "" && doc.Locale != parsed.locale {
			continue
		}
		if parsed.section != "" && doc.Section != parsed.section {
			continue
		}
		if parsed.tag != "" && !hasTag(doc.Tags, parsed.tag) {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *service) Routes(ctx context.Context) ([]string, error) {
	if err := s.ensureScanned(ctx); err != nil {
		return nil, err
	}
	return s.repo.routes(), nil
}

func (s *service) Translations(ctx context.Context, route string) ([]string, error) {
	if err := s.ensureScanned(ctx); err != nil {
		return nil, err
	}

	route = normalizeRoute(route)
	locales, ok := s.repo.translations(route)
	if !ok {
		return nil, &NotFoundError{Route: route}
	}
	return locales, nil
}

func (s *service) ensureScanned(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.repo.ready() {
		return ErrNotScanned
	}
	return nil
}

func (s *service) buildRecord(parsed *interfaces.Document) (*Document, error) {
	route, _ := sitedocs.RouteForPath(parsed.FilePath, s.cfg.Locales)
	route = applySlugOverride(route, parsed.FrontMatter.Slug)

	locale := parsed.Locale
	if locale == "" {
		locale = s.cfg.DefaultLocale
	}

	outline, err := markdown.ExtractOutline(parsed.Body, s.cfg.Parser)
	if err != nil {
		return nil, err
	}
	links, err := markdown.ExtractLinks(parsed.Body, s.cfg.Parser)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(parsed.FrontMatter.Title)
	if title == "" {
		title = markdown.FirstHeading(outline)
	}
	if title == "" {
		title = sitedocs.TitleForRoute(route)
	}

	record := &Document{
		ID:           identity.DocumentUUID(route, locale),
		Route:        route,
		Section:      sitedocs.SectionOf(route),
		SourcePath:   parsed.FilePath,
		Locale:       locale,
		Title:        title,
		Summary:      strings.TrimSpace(parsed.FrontMatter.Summary),
		Tags:         parsed.FrontMatter.Tags,
		Author:       parsed.FrontMatter.Author,
		Date:         parsed.FrontMatter.Date,
		Draft:        parsed.FrontMatter.Draft,
		Template:     parsed.FrontMatter.Template,
		Outline:      outline,
		Links:        links,
		Checksum:     hex.EncodeToString(parsed.Checksum),
		WordCount:    len(strings.Fields(string(parsed.Body))),
		LastModified: parsed.LastModified,
		Custom:       parsed.FrontMatter.Custom,
		Body:         parsed.Body,
		HTML:         parsed.BodyHTML,
	}
	return record, nil
}

// applySlugOverride substitutes the final route segment with a front-matter
// slug. The home route stays empty regardless of slug overrides.
func applySlugOverride(route, slugValue string) string {
	slugValue = strings.TrimSpace(slugValue)
	if slugValue == "" || route == "" {
		return route
	}
	normalized, err := sitedocs.NormalizeSlug(slugValue)
	if err != nil || normalized == "" {
		return route
	}
	if idx := strings.LastIndex(route, "/"); idx >= 0 {
		return route[:idx+1] + normalized
	}
	return normalized
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(strings.ReplaceAll(route, "\\", "/"))
	return strings.Trim(route, "/")
}

func hasTag(tags []string, tag string) bool {
	for _, candidate := range tags {
		if strings.EqualFold(candidate, tag) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
