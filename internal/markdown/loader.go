package markdown

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// LoaderConfig configures how Markdown files are discovered within a base directory.
type LoaderConfig struct {
	// BasePath is the root directory where Markdown documents live.
	BasePath string
	// DefaultLocale is used when no locale can be inferred from the file path.
	DefaultLocale string
	// Locales enumerates the known locales (e.g. ["en", "es"]) for quick directory matching.
	Locales []string
	// LocalePatterns maps locale identifiers to glob expressions relative to BasePath.
	LocalePatterns map[string]string
	// Pattern limits discovered files to those matching the supplied glob (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
}

// LoadParams provide call-specific overrides for locale detection and pattern matching.
type LoadParams struct {
	Pattern        string
	LocalePatterns map[string]string
	Recursive      *bool
}

// DocumentResult carries the parsed document along with the raw source.
type DocumentResult struct {
	Document *interfaces.Document
	Source   []byte
}

// Loader turns filesystem paths into Markdown documents with metadata.
type Loader struct {
	fs  fs.FS
	cfg LoaderConfig
}

// NewLoader constructs a Loader over the provided filesystem. The config is
// copied so later caller mutations cannot change discovery behaviour.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	cfg.BasePath = filepath.Clean(cfg.BasePath)
	if strings.TrimSpace(cfg.Pattern) == "" {
		cfg.Pattern = "*.md"
	}
	cfg.Locales = slices.Clone(cfg.Locales)
	cfg.LocalePatterns = maps.Clone(cfg.LocalePatterns)

	return &Loader{fs: filesystem, cfg: cfg}
}

// LoadFile reads and parses a single Markdown document.
func (l *Loader) LoadFile(ctx context.Context, path string, opts LoadParams) (*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := l.makeRelative(path)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", rel, err)
	}

	info, err := fs.Stat(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", rel, err)
	}

	doc, err := BuildDocument(rel, l.detectLocale(rel, opts.LocalePatterns), data, info.ModTime())
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	doc.Checksum = sum[:]

	return &DocumentResult{Document: doc, Source: data}, nil
}

// LoadDirectory discovers Markdown files under dir and returns parsed
// documents ordered by source path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, opts LoadParams) ([]*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := l.makeRelative(dir)
	if err != nil {
		return nil, err
	}
	root = filepath.Clean(root)

	recursive := l.cfg.Recursive
	if opts.Recursive != nil {
		recursive = *opts.Recursive
	}
	pattern := strings.TrimSpace(opts.Pattern)
	if pattern == "" {
		pattern = l.cfg.Pattern
	}

	var results []*DocumentResult
	walkErr := fs.WalkDir(l.fs, root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if !recursive && filepath.Clean(path) != root {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel := filepath.ToSlash(path)
		if !globMatch(pattern, rel) {
			return nil
		}

		result, err := l.LoadFile(ctx, rel, opts)
		if err != nil {
			return err
		}
		results = append(results, result)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	slices.SortFunc(results, func(a, b *DocumentResult) int {
		return strings.Compare(a.Document.FilePath, b.Document.FilePath)
	})
	return results, nil
}

// detectLocale resolves a document locale from, in order: a filename suffix
// marker, call-level patterns, configured patterns, a leading locale
// directory, and finally the default locale.
func (l *Loader) detectLocale(path string, overrides map[string]string) string {
	path = filepath.ToSlash(path)

	if _, locale := SplitLocaleSuffix(path, l.cfg.Locales); locale != "" {
		return locale
	}
	if locale := matchLocalePattern(path, overrides); locale != "" {
		return locale
	}
	if locale := matchLocalePattern(path, l.cfg.LocalePatterns); locale != "" {
		return locale
	}

	if first, _, ok := strings.Cut(path, "/"); ok && slices.Contains(l.cfg.Locales, first) {
		return first
	}
	return l.cfg.DefaultLocale
}

// SplitLocaleSuffix separates a filename-suffix translation marker from a
// relative path. "graphs/intro.ru.md" with locales [en ru] yields
// ("graphs/intro.md", "ru"); paths without a declared locale suffix are
// returned unchanged with an empty locale.
func SplitLocaleSuffix(path string, locales []string) (string, string) {
	path = filepath.ToSlash(path)
	ext := filepath.Ext(path)
	if ext == "" {
		return path, ""
	}
	stem := strings.TrimSuffix(path, ext)
	dot := strings.LastIndex(stem, ".")
	if dot < 0 {
		return path, ""
	}
	candidate := stem[dot+1:]
	for _, locale := range locales {
		if strings.EqualFold(candidate, strings.TrimSpace(locale)) {
			return stem[:dot] + ext, strings.ToLower(candidate)
		}
	}
	return path, ""
}

func matchLocalePattern(path string, patterns map[string]string) string {
	for locale, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		if globMatch(pattern, path) {
			return locale
		}
	}
	return ""
}

// globMatch applies a filepath.Match pattern against a slash path. Patterns
// without a separator match the base name only, and a leading "**/" segment
// is treated as matching at any depth.
func globMatch(pattern, path string) bool {
	pattern = filepath.ToSlash(pattern)
	if strings.Contains(pattern, "**") {
		pattern = strings.ReplaceAll(pattern, "**/", "")
	}
	target := path
	if !strings.Contains(pattern, "/") {
		target = filepath.Base(path)
	}
	ok, err := filepath.Match(pattern, target)
	return err == nil && ok
}

func (l *Loader) makeRelative(path string) (string, error) {
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		return clean, nil
	}
	if l.cfg.BasePath == "" {
		return "", fmt.Errorf("markdown loader: absolute path %s provided without base path", path)
	}
	rel, err := filepath.Rel(l.cfg.BasePath, clean)
	if err != nil {
		return "", fmt.Errorf("markdown loader: make relative %s: %w", path, err)
	}
	return rel, nil
}
