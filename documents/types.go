package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// Document is a site-level page derived from one Markdown source file.
// Translations of the same page share a Route and differ by Locale.
type Document struct {
	ID           uuid.UUID            `json:"id"`
	Route        string               `json:"route"`
	Section      string               `json:"section,omitempty"`
	SourcePath   string               `json:"source_path"`
	Locale       string               `json:"locale"`
	Title        string               `json:"title"`
	Summary      string               `json:"summary,omitempty"`
	Tags         []string             `json:"tags,omitempty"`
	Author       string               `json:"author,omitempty"`
	Date         time.Time            `json:"date"`
	Draft        bool                 `json:"draft"`
	Template     string               `json:"template,omitempty"`
	Outline      []interfaces.Heading `json:"outline,omitempty"`
	Links        []interfaces.Link    `json:"links,omitempty"`
	Checksum     string               `json:"checksum"`
	WordCount    int                  `json:"word_count"`
	LastModified time.Time            `json:"last_modified"`
	Custom       map[string]any       `json:"custom,omitempty"`

	// Body holds the raw Markdown content and HTML the rendered fragment.
	// Neither is serialised; the manifest only needs the metadata above.
	Body []byte `json:"-"`
	HTML []byte `json:"-"`
}

// HasAnchor reports whether the document outline carries the given fragment
// identifier.
func (d *Document) HasAnchor(anchor string) bool {
	if d == nil || anchor == "" {
		return false
	}
	for _, heading := range d.Outline {
		if heading.Anchor == anchor {
			return true
		}
	}
	return false
}

// ScanSummary reports the outcome of a corpus scan.
type ScanSummary struct {
	Documents int           `json:"documents"`
	Drafts    int           `json:"drafts"`
	Skipped   int           `json:"skipped"`
	Locales   []string      `json:"locales"`
	Sections  []string      `json:"sections,omitempty"`
	Duration  time.Duration `json:"duration"`
}
