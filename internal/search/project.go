package search

import (
	"strings"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// Project maps corpus documents onto their indexable form. Drafts are
// dropped here so they never reach the index, whatever the build flags say.
func Project(docs []*documents.Document) []interfaces.SearchDocument {
	projected := make([]interfaces.SearchDocument, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || doc.Draft {
			continue
		}
		projected = append(projected, interfaces.SearchDocument{
			Route:    doc.Route,
			Locale:   doc.Locale,
			Section:  doc.Section,
			Title:    doc.Title,
			Summary:  doc.Summary,
			Body:     indexableText(doc),
			Tags:     append([]string(nil), doc.Tags...),
			Modified: doc.LastModified,
		})
	}
	return projected
}

// indexableText prefers the rendered HTML with markup stripped; raw Markdown
// is close enough when a document was never rendered.
func indexableText(doc *documents.Document) string {
	if len(doc.HTML) > 0 {
		return stripTags(string(doc.HTML))
	}
	return string(doc.Body)
}

func stripTags(html string) string {
	var b strings.Builder
	b.Grow(len(html))
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
