package markdown

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// frontMatterEnvelope decodes the YAML block at the top of a source file.
// Well-known keys land in typed fields; everything else collects into the
// inline map so site-specific metadata survives the round trip.
type frontMatterEnvelope struct {
	Title    string         `yaml:"title"`
	Slug     string         `yaml:"slug"`
	Summary  string         `yaml:"summary"`
	Template string         `yaml:"template"`
	Tags     []string       `yaml:"tags"`
	Author   string         `yaml:"author"`
	Date     time.Time      `yaml:"date"`
	Draft    bool           `yaml:"draft"`
	Custom   map[string]any `yaml:",inline"`
}

// ParseFrontMatter splits source into structured front matter and the
// Markdown body without the delimiter block. Files without front matter
// return a zero FrontMatter and the full body.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var env frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &env)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return env.toFrontMatter(), body, nil
}

// BuildDocument parses source into an interfaces.Document. BodyHTML stays
// empty; rendering happens lazily when a consumer asks for HTML.
func BuildDocument(path string, locale string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	return &interfaces.Document{
		FilePath:     path,
		Locale:       locale,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
	}, nil
}

func (env frontMatterEnvelope) toFrontMatter() interfaces.FrontMatter {
	custom := make(map[string]any, len(env.Custom))
	for key, value := range env.Custom {
		custom[key] = value
	}

	// Raw carries the full key set, typed fields included, so front-matter
	// policies can validate against one flat payload.
	raw := make(map[string]any, len(custom)+8)
	for key, value := range custom {
		raw[key] = value
	}
	for key, value := range map[string]any{
		"title":    env.Title,
		"slug":     env.Slug,
		"summary":  env.Summary,
		"template": env.Template,
		"author":   env.Author,
	} {
		if value != "" {
			raw[key] = value
		}
	}
	if len(env.Tags) > 0 {
		raw["tags"] = append([]string(nil), env.Tags...)
	}
	if !env.Date.IsZero() {
		raw["date"] = env.Date
	}
	raw["draft"] = env.Draft

	return interfaces.FrontMatter{
		Title:    env.Title,
		Slug:     env.Slug,
		Summary:  env.Summary,
		Template: env.Template,
		Tags:     append([]string(nil), env.Tags...),
		Author:   env.Author,
		Date:     env.Date,
		Draft:    env.Draft,
		Custom:   custom,
		Raw:      raw,
	}
}
