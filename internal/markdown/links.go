package markdown

import (
	"fmt"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// ExtractLinks walks the Markdown AST and returns every outbound reference in
// document order. Unresolvable reference-style links render as literal text
// and therefore do not appear.
func ExtractLinks(source []byte, opts interfaces.ParseOptions) ([]interfaces.Link, error) {
	engine := newEngine(opts)
	root := engine.Parser().Parse(text.NewReader(source), parser.WithContext(parser.NewContext()))

	var links []interfaces.Link
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			links = append(links, interfaces.Link{
				Kind:        interfaces.LinkInline,
				Destination: string(node.Destination),
				Title:       string(node.Title),
			})
		case *ast.Image:
			links = append(links, interfaces.Link{
				Kind:        interfaces.LinkImage,
				Destination: string(node.Destination),
				Title:       string(node.Title),
			})
		case *ast.AutoLink:
			links = append(links, interfaces.Link{
				Kind:        interfaces.LinkAuto,
				Destination: string(node.URL(source)),
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown links: %w", err)
	}
	return links, nil
}
