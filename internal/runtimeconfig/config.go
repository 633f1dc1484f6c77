package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

// ErrContentDirRequired indicates the engine was enabled without a source tree.
var ErrContentDirRequired = errors.New("docsite config: content directory is required")

// ErrOutputDirRequired indicates the build was enabled without a destination.
var ErrOutputDirRequired = errors.New("docsite config: output directory is required")

// ErrThemesFeatureRequired indicates inconsistent theme configuration.
var ErrThemesFeatureRequired = errors.New("docsite config: themes feature must be enabled to configure themes")

// ErrWatchRequiresServe ensures the watcher only runs under the preview server.
var ErrWatchRequiresServe = errors.New("docsite config: watch mode requires the serve feature to be enabled")

// ErrSearchFeatureRequired indicates inconsistent search configuration.
var ErrSearchFeatureRequired = errors.New("docsite config: search feature must be enabled to configure the index")

var ErrWorkerCountInvalid = errors.New("docsite config: build worker count must be zero or positive")
var ErrLintLevelInvalid = errors.New("docsite config: lint level is invalid")
var ErrDefaultLocaleUnknown = errors.New("docsite config: default locale is not part of the configured locales")
var ErrLoggingProviderRequired = errors.New("docsite config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("docsite config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("docsite config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("docsite config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the docsite engine.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled       bool
	DefaultLocale string
	Content       ContentConfig
	Site          SiteConfig
	Build         BuildConfig
	Navigation    NavigationConfig
	Themes        ThemeConfig
	Search        SearchConfig
	Serve         ServeConfig
	Lint          LintConfig
	Markdown      MarkdownParserConfig
	Features      Features
	Commands      CommandsConfig
	Logging       LoggingConfig
}

// ContentConfig captures filesystem behaviour for the document corpus.
type ContentConfig struct {
	Dir           string
	Patterns      []string
	Recursive     bool
	IncludeDrafts bool
	Locales       []string
}

// SiteConfig points at the site definition file consumed by every build.
type SiteConfig struct {
	Definition string
}

// BuildConfig captures behaviour for the static site build. BaseURL, when
// set, overrides the definition's base_url so deploy pipelines can point one
// source tree at several hosts.
type BuildConfig struct {
	Enabled         bool
	OutputDir       string
	BaseURL         string
	CleanURLs       bool
	Incremental     bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	Workers         int
}

// NavigationConfig captures routing configuration for canonical URL building.
type NavigationConfig struct {
	RouteConfig  *urlkit.Config
	DefaultGroup string
	LocaleGroups map[string]string
}

// ThemeConfig captures configuration for the theme pipeline.
type ThemeConfig struct {
	BasePath       string
	DefaultTheme   string
	DefaultVariant string
}

// SearchConfig captures behaviour for the full-text index.
type SearchConfig struct {
	Enabled   bool
	IndexPath string
}

// ServeConfig captures behaviour for the local preview server.
type ServeConfig struct {
	Addr     string
	Watch    bool
	Open     bool
	Debounce time.Duration
}

// LintConfig captures behaviour for the link auditor.
type LintConfig struct {
	Level           string
	Anchors         bool
	External        bool
	ExternalTimeout time.Duration
	Ignore          []string
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// Features toggles module functionality.
type Features struct {
	Themes bool
	Search bool
	Serve  bool
	Lint   bool
	Logger bool
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool
	AutoRegisterDispatcher bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults for a local documentation site.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		DefaultLocale: "en",
		Content: ContentConfig{
			Dir:       "docs",
			Patterns:  []string{"*.md"},
			Recursive: true,
			Locales:   []string{"en"},
		},
		Site: SiteConfig{},
		Build: BuildConfig{
			Enabled:         true,
			OutputDir:       "dist",
			CleanURLs:       true,
			Incremental:     true,
			GenerateSitemap: true,
			GenerateRobots:  false,
			GenerateFeeds:   false,
			Workers:         0,
		},
		Navigation: NavigationConfig{},
		Themes: ThemeConfig{
			BasePath: "themes",
		},
		Search: SearchConfig{},
		Serve: ServeConfig{
			Addr:     "127.0.0.1:8080",
			Debounce: 400 * time.Millisecond,
		},
		Lint: LintConfig{
			Level:   "error",
			Anchors: true,
		},
		Markdown: MarkdownParserConfig{},
		Features: Features{
			Themes: true,
			Lint:   true,
		},
		Commands: CommandsConfig{},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.Enabled && strings.TrimSpace(cfg.Content.Dir) == "" {
		return ErrContentDirRequired
	}
	if cfg.Build.Enabled && strings.TrimSpace(cfg.Build.OutputDir) == "" {
		return ErrOutputDirRequired
	}
	if cfg.Build.Workers < 0 {
		return ErrWorkerCountInvalid
	}
	if !cfg.Features.Themes {
		if strings.TrimSpace(cfg.Themes.DefaultTheme) != "" {
			return ErrThemesFeatureRequired
		}
	}
	if cfg.Serve.Watch && !cfg.Features.Serve {
		return ErrWatchRequiresServe
	}
	if !cfg.Features.Search && strings.TrimSpace(cfg.Search.IndexPath) != "" {
		return ErrSearchFeatureRequired
	}
	if level := strings.TrimSpace(cfg.Lint.Level); level != "" && !isSupportedLintLevel(level) {
		return fmt.Errorf("%w: %s", ErrLintLevelInvalid, level)
	}
	if cfg.DefaultLocale != "" && len(cfg.Content.Locales) > 0 {
		if !containsLocale(cfg.Content.Locales, cfg.DefaultLocale) {
			return fmt.Errorf("%w: %s", ErrDefaultLocaleUnknown, cfg.DefaultLocale)
		}
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func containsLocale(locales []string, locale string) bool {
	needle := strings.ToLower(strings.TrimSpace(locale))
	for _, candidate := range locales {
		if strings.ToLower(strings.TrimSpace(candidate)) == needle {
			return true
		}
	}
	return false
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLintLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "off", "warn", "error":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
