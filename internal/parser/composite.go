package parser

import "strings"

// Selector expression prefixes. An expression without a prefix is CSS.
const (
	CSSPrefix   = "css:"
	XPathPrefix = "xpath:"
)

var (
	cssEngine   Engine = CSSEngine{}
	xpathEngine Engine = XPathEngine{}
)

// engineFor splits expr into the engine that evaluates it and the bare query.
func engineFor(expr string) (Engine, string) {
	switch {
	case strings.HasPrefix(expr, XPathPrefix):
		return xpathEngine, strings.TrimSpace(strings.TrimPrefix(expr, XPathPrefix))
	case strings.HasPrefix(expr, CSSPrefix):
		return cssEngine, strings.TrimSpace(strings.TrimPrefix(expr, CSSPrefix))
	default:
		return cssEngine, strings.TrimSpace(expr)
	}
}

// Select evaluates a selector expression and returns the matching nodes.
// An invalid expression is logged and yields no nodes.
func (d *Document) Select(expr string) []Node {
	eng, query := engineFor(expr)
	if query == "" {
		return nil
	}

	nodes, err := eng.Select(d, query)
	if err != nil {
		d.logger.Warn("invalid selector",
			"engine", eng.Name(),
			"selector", query,
			"url", d.url,
			"error", err,
		)
		return nil
	}
	return nodes
}
