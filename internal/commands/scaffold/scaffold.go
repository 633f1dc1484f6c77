package scaffold

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/afero"

	"github.com/goliatone/go-docsite/internal/commands"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const initSiteMessageType = "docsite.scaffold.init"

// DefaultTitle names sites initialised without one.
const DefaultTitle = "My Documentation"

// DefinitionFileName is the site definition the scaffold drops at the root.
const DefinitionFileName = "docsite.yml"

// InitSiteCommand writes a starter site into Dir: the definition file plus
// a docs/ tree with a home page and a first guide. Existing files are left
// alone unless Force is set.
type InitSiteCommand struct {
	Dir   string `json:"dir"`
	Title string `json:"title,omitempty"`
	Force bool   `json:"force,omitempty"`
}

// Type implements command.Message.
func (InitSiteCommand) Type() string { return initSiteMessageType }

// Validate requires a target directory.
func (m InitSiteCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Dir, validation.Required.Error("a target directory is required")),
	)
}

// InitSiteHandler scaffolds new sites through the shared handler runtime.
type InitSiteHandler struct {
	inner *commands.Handler[InitSiteCommand]
}

// NewInitSiteHandler constructs a handler writing through fsys, defaulting
// to the OS filesystem.
func NewInitSiteHandler(fsys afero.Fs, logger interfaces.Logger, opts ...commands.HandlerOption[InitSiteCommand]) *InitSiteHandler {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg InitSiteCommand) error {
		return initSite(fsys, msg)
	}

	handlerOpts := []commands.HandlerOption[InitSiteCommand]{
		commands.WithLogger[InitSiteCommand](baseLogger),
		commands.WithOperation[InitSiteCommand]("scaffold.init"),
		commands.WithMessageFields(func(msg InitSiteCommand) map[string]any {
			fields := map[string]any{"dir": msg.Dir}
			if msg.Force {
				fields["force"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[InitSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InitSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[InitSiteCommand].
func (h *InitSiteHandler) Execute(ctx context.Context, msg InitSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

func initSite(fsys afero.Fs, msg InitSiteCommand) error {
	dir := filepath.Clean(strings.TrimSpace(msg.Dir))
	title := strings.TrimSpace(msg.Title)
	if title == "" {
		title = DefaultTitle
	}

	definitionPath := filepath.Join(dir, DefinitionFileName)
	if !msg.Force {
		if exists, err := afero.Exists(fsys, definitionPath); err != nil {
			return fmt.Errorf("scaffold: check %s: %w", definitionPath, err)
		} else if exists {
			return fmt.Errorf("scaffold: %s already exists, pass force to overwrite", definitionPath)
		}
	}

	files := map[string]string{
		definitionPath: definitionTemplate(title),
		filepath.Join(dir, "docs", "index.md"):           indexTemplate(title),
		filepath.Join(dir, "docs", "getting-started.md"): gettingStartedTemplate(),
	}

	for p, contents := range files {
		if !msg.Force {
			if exists, err := afero.Exists(fsys, p); err != nil {
				return fmt.Errorf("scaffold: check %s: %w", p, err)
			} else if exists {
				continue
			}
		}
		if parent := filepath.Dir(p); parent != "." {
			if err := fsys.MkdirAll(parent, 0o755); err != nil {
				return fmt.Errorf("scaffold: create %s: %w", parent, err)
			}
		}
		if err := afero.WriteFile(fsys, p, []byte(contents), 0o644); err != nil {
			return fmt.Errorf("scaffold: write %s: %w", p, err)
		}
	}
	return nil
}

func definitionTemplate(title string) string {
	return fmt.Sprintf(`title: %s
description: ""
language: en

# Set base_url before building for production so canonical URLs,
# the sitemap, and feeds point at the published site.
# base_url: https://docs.example.com

# Declare translations by listing locale codes and suffixing the
# translated files, e.g. getting-started.es.md.
# locales: [en, es]
# default_locale: en

nav:
  - path: getting-started.md

lint:
  level: error
`, yamlQuote(title))
}

func indexTemplate(title string) string {
	return fmt.Sprintf(`---
title: %s
summary: Welcome to the documentation.
---

# %s

This is the home page of your documentation site. Edit
`+"`docs/index.md`"+` to change it.

Start with the [getting started guide](getting-started.md).
`, yamlQuote(title), title)
}

func gettingStartedTemplate() string {
	return `---
title: Getting Started
summary: Build, preview, and publish the site.
---

# Getting Started

Preview the site locally with live reload:

` + "```sh\ndocsite serve -watch\n```" + `

Build the production tree:

` + "```sh\ndocsite build\n```" + `

Check every link before publishing:

` + "```sh\ndocsite lint\n```" + `

Add pages by dropping Markdown files under ` + "`docs/`" + ` and listing
them in the ` + "`nav`" + ` section of ` + "`docsite.yml`" + `.
`
}

// yamlQuote renders a string safely for a YAML scalar position.
func yamlQuote(value string) string {
	return strconv.Quote(value)
}
