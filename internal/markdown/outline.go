package markdown

import (
	"fmt"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// ExtractOutline parses the Markdown body and returns its headings in
// document order. The same engine configuration as ParseWithOptions is used
// so anchors match the rendered output, including duplicate de-duplication.
func ExtractOutline(source []byte, opts interfaces.ParseOptions) ([]interfaces.Heading, error) {
	engine := newEngine(opts)
	root := engine.Parser().Parse(text.NewReader(source), parser.WithContext(parser.NewContext()))

	var outline []interfaces.Heading
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		entry := interfaces.Heading{
			Level: heading.Level,
			Text:  string(heading.Text(source)),
		}
		if id, ok := heading.AttributeString("id"); ok {
			if raw, ok := id.([]byte); ok {
				entry.Anchor = string(raw)
			}
		}
		outline = append(outline, entry)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown outline: %w", err)
	}
	return outline, nil
}

// FirstHeading returns the text of the first top-level heading, or an empty
// string when the document has none. Used as a title fallback when front
// matter omits one.
func FirstHeading(outline []interfaces.Heading) string {
	for _, heading := range outline {
		if heading.Level == 1 {
			return heading.Text
		}
	}
	return ""
}
