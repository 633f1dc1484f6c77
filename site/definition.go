package site

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// EntryKind identifies which target a navigation entry points at.
type EntryKind string

const (
	// EntryDocument references a Markdown file relative to the content root.
	EntryDocument EntryKind = "document"
	// EntryExternal references an absolute URL outside the site.
	EntryExternal EntryKind = "external"
	// EntrySection groups child entries without a target of its own.
	EntrySection EntryKind = "section"
	// EntryInvalid marks entries with zero or conflicting targets.
	EntryInvalid EntryKind = "invalid"
)

// Definition is the parsed site definition file (docsite.yml). It carries the
// site metadata and the ordered navigation tree of document references.
type Definition struct {
	Title         string            `yaml:"title"`
	Description   string            `yaml:"description"`
	BaseURL       string            `yaml:"base_url"`
	Language      string            `yaml:"language"`
	Locales       []string          `yaml:"locales"`
	DefaultLocale string            `yaml:"default_locale"`
	Theme         ThemeConfig       `yaml:"theme"`
	Nav           []NavEntry        `yaml:"nav"`
	FrontMatter   FrontMatterPolicy `yaml:"frontmatter"`
	Lint          LintPolicy        `yaml:"lint"`
	Static        []string          `yaml:"static"`
}

// NavEntry is one node of the navigation tree. Exactly one of Path, URL, or
// Children must be set; Title is optional for document entries (the document
// title is used) and required otherwise.
type NavEntry struct {
	Title    string     `yaml:"title"`
	Path     string     `yaml:"path"`
	URL      string     `yaml:"url"`
	Children []NavEntry `yaml:"children"`
}

// ThemeConfig selects the theme applied during builds.
type ThemeConfig struct {
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
	Dir     string `yaml:"dir"`
}

// FrontMatterPolicy declares front-matter requirements enforced at scan time.
// Schema accepts either a JSON Schema document or the shorthand
// {fields: [{name, type, required}, ...]} form.
type FrontMatterPolicy struct {
	Require []string       `yaml:"require"`
	Schema  map[string]any `yaml:"schema"`
}

// LintPolicy tunes the link auditor. Anchors defaults to enabled when the key
// is absent, hence the pointer.
type LintPolicy struct {
	Level    string   `yaml:"level"`
	Anchors  *bool    `yaml:"anchors"`
	External bool     `yaml:"external"`
	Ignore   []string `yaml:"ignore"`
}

// AnchorsEnabled reports whether fragment targets should be verified.
func (p LintPolicy) AnchorsEnabled() bool {
	if p.Anchors == nil {
		return true
	}
	return *p.Anchors
}

// Kind classifies the entry by its populated target.
func (e NavEntry) Kind() EntryKind {
	set := 0
	if strings.TrimSpace(e.Path) != "" {
		set++
	}
	if strings.TrimSpace(e.URL) != "" {
		set++
	}
	if len(e.Children) > 0 {
		set++
	}
	if set != 1 {
		return EntryInvalid
	}
	switch {
	case strings.TrimSpace(e.Path) != "":
		return EntryDocument
	case strings.TrimSpace(e.URL) != "":
		return EntryExternal
	default:
		return EntrySection
	}
}

// AllLocales returns the locale set with the default locale first and
// duplicates removed. An empty definition yields a single-locale site.
func (d *Definition) AllLocales() []string {
	out := []string{d.DefaultLocale}
	seen := map[string]bool{strings.ToLower(d.DefaultLocale): true}
	for _, locale := range d.Locales {
		key := strings.ToLower(strings.TrimSpace(locale))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// WalkNav visits every navigation entry depth-first in definition order. The
// trail identifies the entry by its index path from the root.
func (d *Definition) WalkNav(fn func(trail []int, entry NavEntry) error) error {
	return walkEntries(nil, d.Nav, fn)
}

func walkEntries(trail []int, entries []NavEntry, fn func(trail []int, entry NavEntry) error) error {
	for i, entry := range entries {
		next := append(append([]int{}, trail...), i)
		if err := fn(next, entry); err != nil {
			return err
		}
		if len(entry.Children) > 0 {
			if err := walkEntries(next, entry.Children, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

var localePattern = regexp.MustCompile(`^[A-Za-z]{2}([-_][A-Za-z0-9]{2,8})?$`)

// Validate performs structural checks on the definition. Navigation target
// existence is the nav/lint modules' concern; only shape is verified here.
func (d *Definition) Validate() error {
	errs := validation.Errors{}

	if strings.TrimSpace(d.Title) == "" {
		errs["title"] = validation.NewError("validation_required", "site title is required")
	}
	if raw := strings.TrimSpace(d.BaseURL); raw != "" {
		if parsed, err := url.Parse(raw); err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs["base_url"] = validation.NewError("validation_invalid", "base_url must be an absolute http(s) URL")
		}
	}
	if lang := strings.TrimSpace(d.Language); lang != "" && !localePattern.MatchString(lang) {
		errs["language"] = validation.NewError("validation_invalid", "language must be a BCP 47 style tag")
	}
	for i, locale := range d.Locales {
		if !localePattern.MatchString(strings.TrimSpace(locale)) {
			errs["locales."+strconv.Itoa(i)] = validation.NewError("validation_invalid", "locale code is malformed")
		}
	}
	if len(d.Locales) > 0 && !containsFold(d.Locales, d.DefaultLocale) {
		errs["default_locale"] = validation.NewError("validation_invalid", "default_locale must be one of the declared locales")
	}
	if level := strings.TrimSpace(d.Lint.Level); level != "" {
		switch strings.ToLower(level) {
		case "off", "warn", "error":
		default:
			errs["lint.level"] = validation.NewError("validation_invalid", "lint level must be off, warn, or error")
		}
	}
	for i, dir := range d.Static {
		if !isRelativePath(dir) {
			errs["static."+strconv.Itoa(i)] = validation.NewError("validation_invalid", "static directories must stay inside the site root")
		}
	}

	_ = d.WalkNav(func(trail []int, entry NavEntry) error {
		key := "nav." + trailKey(trail)
		switch entry.Kind() {
		case EntryInvalid:
			errs[key] = validation.NewError("validation_invalid", "entry must set exactly one of path, url, or children")
		case EntryDocument:
			if !isDocumentPath(entry.Path) {
				errs[key+".path"] = validation.NewError("validation_invalid", "path must be a relative Markdown file inside the content root")
			}
		case EntryExternal:
			if strings.TrimSpace(entry.Title) == "" {
				errs[key+".title"] = validation.NewError("validation_required", "external entries require a title")
			}
			if parsed, err := url.Parse(strings.TrimSpace(entry.URL)); err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
				errs[key+".url"] = validation.NewError("validation_invalid", "url must be an absolute http(s) URL")
			}
		case EntrySection:
			if strings.TrimSpace(entry.Title) == "" {
				errs[key+".title"] = validation.NewError("validation_required", "sections require a title")
			}
		}
		return nil
	})

	return errs.Filter()
}

func trailKey(trail []int) string {
	parts := make([]string, len(trail))
	for i, idx := range trail {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

func containsFold(values []string, needle string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(needle)) {
			return true
		}
	}
	return false
}

func isRelativePath(p string) bool {
	cleaned := path.Clean(strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"))
	if cleaned == "." || cleaned == "" {
		return false
	}
	if strings.HasPrefix(cleaned, "/") || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}

func isDocumentPath(p string) bool {
	if !isRelativePath(p) {
		return false
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(p)), ".md")
}

func applyDefaults(d *Definition) {
	if strings.TrimSpace(d.Language) == "" {
		d.Language = "en"
	}
	normalized := make([]string, 0, len(d.Locales))
	for _, locale := range d.Locales {
		if trimmed := strings.ToLower(strings.TrimSpace(locale)); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	d.Locales = normalized
	if strings.TrimSpace(d.DefaultLocale) == "" {
		if len(d.Locales) > 0 {
			d.DefaultLocale = d.Locales[0]
		} else {
			d.DefaultLocale = strings.ToLower(d.Language)
		}
	} else {
		d.DefaultLocale = strings.ToLower(strings.TrimSpace(d.DefaultLocale))
	}
	if strings.TrimSpace(d.Lint.Level) == "" {
		d.Lint.Level = "error"
	}
	normalizeEntries(d.Nav)
}

func normalizeEntries(entries []NavEntry) {
	for i := range entries {
		entries[i].Title = strings.TrimSpace(entries[i].Title)
		entries[i].URL = strings.TrimSpace(entries[i].URL)
		if raw := strings.TrimSpace(entries[i].Path); raw != "" {
			cleaned := path.Clean(strings.ReplaceAll(raw, "\\", "/"))
			cleaned = strings.TrimPrefix(cleaned, "./")
			entries[i].Path = cleaned
		}
		if len(entries[i].Children) > 0 {
			normalizeEntries(entries[i].Children)
		}
	}
}
