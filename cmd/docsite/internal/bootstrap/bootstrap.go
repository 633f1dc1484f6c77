package bootstrap

import (
	"fmt"
	"strings"

	docsite "github.com/goliatone/go-docsite"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// Options captures configuration for docsite CLI bootstraps.
type Options struct {
	ConfigPath    string
	ContentDir    string
	OutputDir     string
	BaseURL       string
	Locales       []string
	DefaultLocale string
	IncludeDrafts bool
	Workers       int

	Serve    bool
	Addr     string
	Watch    bool
	Open     bool
	Search   bool
	LintOff  bool
	LogJSON  bool
	LogLevel string

	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the docsite module and the logger the CLI reports through.
type Module struct {
	Module *docsite.Module
	Logger interfaces.Logger
}

// BuildModule constructs a docsite module configured from CLI options.
func BuildModule(opts Options) (*Module, error) {
	cfg := docsite.DefaultConfig()

	if dir := strings.TrimSpace(opts.ContentDir); dir != "" {
		cfg.Content.Dir = dir
	}
	if out := strings.TrimSpace(opts.OutputDir); out != "" {
		cfg.Build.OutputDir = out
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.Build.BaseURL = base
	}
	cfg.Site.Definition = strings.TrimSpace(opts.ConfigPath)
	cfg.Content.IncludeDrafts = opts.IncludeDrafts
	if opts.Workers > 0 {
		cfg.Build.Workers = opts.Workers
	}

	if locale := strings.TrimSpace(opts.DefaultLocale); locale != "" {
		cfg.DefaultLocale = locale
		cfg.Content.Locales = []string{locale}
	}
	if len(opts.Locales) > 0 {
		cfg.Content.Locales = cloneStrings(opts.Locales)
		if !containsFold(cfg.Content.Locales, cfg.DefaultLocale) {
			cfg.Content.Locales = append([]string{cfg.DefaultLocale}, cfg.Content.Locales...)
		}
	}

	if opts.Serve {
		cfg.Features.Serve = true
		if addr := strings.TrimSpace(opts.Addr); addr != "" {
			cfg.Serve.Addr = addr
		}
		cfg.Serve.Watch = opts.Watch
		cfg.Serve.Open = opts.Open
	}
	if opts.Search {
		cfg.Features.Search = true
	}
	if opts.LintOff {
		cfg.Features.Lint = false
	}

	cfg.Features.Logger = true
	if opts.LogJSON {
		cfg.Logging.Provider = "gologger"
		cfg.Logging.Format = "json"
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}

	diOpts := []docsite.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, docsite.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := docsite.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise docsite module: %w", err)
	}

	logger := logging.ModuleLogger(module.Container().LoggerProvider(), "docsite.cli")

	return &Module{
		Module: module,
		Logger: logger,
	}, nil
}

// SplitLocales parses a comma separated locale list into a trimmed slice.
func SplitLocales(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	locales := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			locales = append(locales, trimmed)
		}
	}
	return locales
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func containsFold(values []string, needle string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), needle) {
			return true
		}
	}
	return false
}
