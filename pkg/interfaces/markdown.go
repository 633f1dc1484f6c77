package interfaces

import (
	"time"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
// Implementations should support reusable parser instances and extension
// toggles so hosts can tailor rendering without rewriting the pipeline.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// Merge layers override on top of o. A non-empty extension list replaces the
// base list; boolean toggles combine so an override can only tighten output.
func (o ParseOptions) Merge(override ParseOptions) ParseOptions {
	merged := o
	if len(override.Extensions) > 0 {
		merged.Extensions = append([]string(nil), override.Extensions...)
	}
	merged.Sanitize = merged.Sanitize || override.Sanitize
	merged.HardWraps = merged.HardWraps || override.HardWraps
	merged.SafeMode = merged.SafeMode || override.SafeMode
	return merged
}

// Document represents a Markdown file with parsed metadata and content. The
// struct is shared between the interfaces package and internal implementations
// so consumers can depend on a stable contract.
type Document struct {
	FilePath     string
	Locale       string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum stores a digest of the original file content (typically SHA-256)
	// so rebuild workflows can detect changes without re-rendering unchanged files.
	Checksum []byte
}

// FrontMatter models metadata extracted from Markdown files. The Custom map
// keeps author-defined keys available to templates and schema validation.
type FrontMatter struct {
	Title    string         `yaml:"title" json:"title"`
	Slug     string         `yaml:"slug" json:"slug"`
	Summary  string         `yaml:"summary" json:"summary"`
	Template string         `yaml:"template" json:"template"`
	Tags     []string       `yaml:"tags" json:"tags"`
	Author   string         `yaml:"author" json:"author"`
	Date     time.Time      `yaml:"date" json:"date"`
	Draft    bool           `yaml:"draft" json:"draft"`
	Custom   map[string]any `yaml:",inline" json:"custom"`
	Raw      map[string]any `yaml:"-" json:"raw"`
}

// Heading is one outline entry extracted from a document body. Anchor carries
// the same ID the renderer attaches to the heading element, so fragment links
// can be verified against the outline without re-parsing HTML.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}

// LinkKind distinguishes how a reference was written in the source.
type LinkKind string

const (
	// LinkInline covers [text](dest) links; reference-style links resolve to
	// the same node during parsing and surface here as well.
	LinkInline LinkKind = "inline"
	// LinkImage covers ![alt](dest) references.
	LinkImage LinkKind = "image"
	// LinkAuto covers bare URLs promoted by the linkify extension and
	// <dest> autolinks.
	LinkAuto LinkKind = "auto"
)

// Link is a single outbound reference extracted from a document body.
type Link struct {
	Kind        LinkKind `json:"kind"`
	Destination string   `json:"destination"`
	Title       string   `json:"title,omitempty"`
}
