package render

import (
	"embed"
	"io/fs"
	"time"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// DefaultTemplates returns the built-in template set every renderer carries.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// RenderedPage is one page's rendered output before persistence.
type RenderedPage struct {
	Route       string
	Locale      string
	OutputPath  string
	Template    string
	HTML        string
	Checksum    string
	Diagnostics []Diagnostic
}

// Diagnostic records render timing and notes for a single page.
type Diagnostic struct {
	Template string
	Route    string
	Duration time.Duration
	Message  string
}
