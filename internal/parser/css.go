package parser

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/IshaanNene/newsetl/internal/types"
)

// CSSEngine evaluates CSS selectors via goquery.
type CSSEngine struct{}

// Name implements Engine.
func (CSSEngine) Name() string { return "css" }

// Select implements Engine. The selector is compiled up front so a bad
// expression is reported instead of silently matching nothing.
func (CSSEngine) Select(doc *Document, expr string) ([]Node, error) {
	matcher, err := cascadia.Compile(expr)
	if err != nil {
		return nil, &types.ParseError{URL: doc.url, Selector: expr, Err: err}
	}

	var nodes []Node
	doc.doc.FindMatcher(matcher).Each(func(_ int, sel *goquery.Selection) {
		nodes = append(nodes, cssNode{sel: sel})
	})
	return nodes, nil
}

type cssNode struct {
	sel *goquery.Selection
}

func (n cssNode) Text() string { return n.sel.Text() }

func (n cssNode) Attr(name string) (string, bool) { return n.sel.Attr(name) }
