package parser

import (
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/newsetl/internal/types"
)

// XPathEngine evaluates XPath expressions via htmlquery over the same tree
// goquery parsed.
type XPathEngine struct{}

// Name implements Engine.
func (XPathEngine) Name() string { return "xpath" }

// Select implements Engine.
func (XPathEngine) Select(doc *Document, expr string) ([]Node, error) {
	found, err := htmlquery.QueryAll(doc.Root(), expr)
	if err != nil {
		return nil, &types.ParseError{URL: doc.url, Selector: expr, Err: err}
	}

	nodes := make([]Node, 0, len(found))
	for _, n := range found {
		nodes = append(nodes, xpathNode{n: n})
	}
	return nodes, nil
}

type xpathNode struct {
	n *html.Node
}

func (x xpathNode) Text() string { return htmlquery.InnerText(x.n) }

func (x xpathNode) Attr(name string) (string, bool) {
	for _, attr := range x.n.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}
