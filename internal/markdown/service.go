package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// Config controls how the Markdown service discovers and parses files.
type Config struct {
	BasePath       string
	DefaultLocale  string
	Locales        []string
	LocalePatterns map[string]string
	Pattern        string
	Recursive      bool
	Parser         interfaces.ParseOptions
}

// LoadOptions tune a single Load or LoadDirectory call. Zero values fall back
// to the service configuration.
type LoadOptions struct {
	Pattern        string
	LocalePatterns map[string]string
	Recursive      *bool
	Parser         interfaces.ParseOptions
}

// Service loads filesystem-backed Markdown documents and renders them to HTML.
type Service struct {
	cfg    Config
	parser interfaces.MarkdownParser
	loader *Loader
}

// NewService constructs a Markdown service rooted at cfg.BasePath on the host
// filesystem. When parser is nil a Goldmark parser with the configured default
// options is used.
func NewService(cfg Config, parser interfaces.MarkdownParser) (*Service, error) {
	base := strings.TrimSpace(cfg.BasePath)
	if base == "" {
		base = "."
	}
	if _, err := os.Stat(base); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", base, err)
	}
	return NewServiceWithFS(cfg, parser, os.DirFS(base)), nil
}

// NewServiceWithFS constructs a Markdown service over an explicit filesystem,
// which keeps tests and in-memory corpora off the host disk.
func NewServiceWithFS(cfg Config, parser interfaces.MarkdownParser, filesystem fs.FS) *Service {
	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}

	return &Service{
		cfg:    cfg,
		parser: parser,
		loader: NewLoader(filesystem, LoaderConfig{
			BasePath:       cfg.BasePath,
			DefaultLocale:  cfg.DefaultLocale,
			Locales:        cfg.Locales,
			LocalePatterns: cfg.LocalePatterns,
			Pattern:        cfg.Pattern,
			Recursive:      cfg.Recursive,
		}),
	}
}

// Load reads and renders a single Markdown document relative to the base path.
func (s *Service) Load(ctx context.Context, path string, opts LoadOptions) (*interfaces.Document, error) {
	result, err := s.loader.LoadFile(ctx, s.relativize(path), loaderParams(opts))
	if err != nil {
		return nil, err
	}
	if err := s.renderInto(ctx, result.Document, opts.Parser); err != nil {
		return nil, err
	}
	return result.Document, nil
}

// LoadDirectory reads and renders every Markdown document under dir. Documents
// come back ordered by source path so repeated scans are deterministic.
func (s *Service) LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*interfaces.Document, error) {
	results, err := s.loader.LoadDirectory(ctx, s.relativize(dir), loaderParams(opts))
	if err != nil {
		return nil, err
	}

	docs := make([]*interfaces.Document, 0, len(results))
	for _, result := range results {
		if err := s.renderInto(ctx, result.Document, opts.Parser); err != nil {
			return nil, err
		}
		docs = append(docs, result.Document)
	}

	slices.SortFunc(docs, func(a, b *interfaces.Document) int {
		return strings.Compare(a.FilePath, b.FilePath)
	})
	return docs, nil
}

// Render parses Markdown bytes into HTML, layering opts over the service
// defaults.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.ParseWithOptions(markdown, s.cfg.Parser.Merge(opts))
}

// RenderDocument converts the document body into HTML and stores it on the
// document alongside returning it.
func (s *Service) RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("markdown service: document is nil")
	}
	html, err := s.Render(ctx, doc.Body, opts)
	if err != nil {
		return nil, err
	}
	doc.BodyHTML = html
	return html, nil
}

func (s *Service) renderInto(ctx context.Context, doc *interfaces.Document, overrides interfaces.ParseOptions) error {
	if doc == nil {
		return nil
	}
	html, err := s.Render(ctx, doc.Body, overrides)
	if err != nil {
		return fmt.Errorf("markdown render document %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = html
	return nil
}

// relativize maps caller-supplied paths onto loader-relative slash paths.
// Absolute paths inside the base directory are rebased; anything else is
// cleaned as-is.
func (s *Service) relativize(path string) string {
	if strings.TrimSpace(path) == "" {
		return "."
	}
	clean := filepath.Clean(path)
	if base := strings.TrimSpace(s.cfg.BasePath); base != "" && filepath.IsAbs(clean) {
		if rel, err := filepath.Rel(base, clean); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(clean)
}

func loaderParams(opts LoadOptions) LoadParams {
	return LoadParams{
		Pattern:        opts.Pattern,
		LocalePatterns: opts.LocalePatterns,
		Recursive:      opts.Recursive,
	}
}
