package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// extensionRegistry maps the names accepted in configuration onto goldmark
// extenders. Aliases cover the spellings docs sites commonly use.
var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// defaultExtensions apply when configuration names none.
var defaultExtensions = []goldmark.Extender{
	extension.GFM,
	extension.Linkify,
	extension.TaskList,
}

// GoldmarkParser implements interfaces.MarkdownParser on the goldmark
// engine. It carries no mutable state, so one instance is safe to share
// across the render worker pool.
type GoldmarkParser struct {
	defaults interfaces.ParseOptions
}

var _ interfaces.MarkdownParser = (*GoldmarkParser)(nil)

// NewGoldmarkParser constructs a parser whose Parse calls use defaults.
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{defaults: defaults}
}

// Parse renders Markdown into HTML with the parser's default options.
func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return p.ParseWithOptions(markdown, p.defaults)
}

// ParseWithOptions renders Markdown into HTML using the supplied options.
func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := newEngine(opts).Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	return buf.Bytes(), nil
}

// newEngine assembles a goldmark.Markdown for one conversion. Auto heading
// IDs are always on: document outlines and anchor linting depend on them.
func newEngine(opts interfaces.ParseOptions) goldmark.Markdown {
	options := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}

	var rendererOpts []renderer.Option
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	// SafeMode and Sanitize both suppress raw HTML passthrough.
	if !opts.SafeMode && !opts.Sanitize {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	if len(rendererOpts) > 0 {
		options = append(options, goldmark.WithRendererOptions(rendererOpts...))
	}

	if exts := resolveExtensions(opts.Extensions); len(exts) > 0 {
		options = append(options, goldmark.WithExtensions(exts...))
	}

	return goldmark.New(options...)
}

// resolveExtensions maps configured names onto extenders, dropping unknown
// names and duplicates. An empty list yields the defaults.
func resolveExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return defaultExtensions
	}

	seen := make(map[string]struct{}, len(names))
	extenders := make([]goldmark.Extender, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if ext, ok := extensionRegistry[key]; ok {
			extenders = append(extenders, ext)
		}
	}
	return extenders
}
