package parser

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/IshaanNene/newsetl/internal/types"
)

// Node is a single node matched by a selector expression.
type Node interface {
	// Text returns the concatenated text of the node and its descendants.
	Text() string

	// Attr returns the value of the named attribute and whether it is set.
	Attr(name string) (string, bool)
}

// Engine evaluates selector expressions of one syntax against a Document.
type Engine interface {
	// Name returns the engine's identifier.
	Name() string

	// Select returns every node matching expr, in document order.
	Select(doc *Document, expr string) ([]Node, error)
}

// Document is a parsed page. It is built once from the response body and
// never mutated afterwards.
type Document struct {
	url    string
	raw    []byte
	doc    *goquery.Document
	logger *slog.Logger
}

// Parse builds a Document from a fetched response.
func Parse(resp *types.Response, logger *slog.Logger) (*Document, error) {
	pageURL := resp.FinalURL
	if pageURL == "" && resp.Request != nil {
		pageURL = resp.Request.URLString()
	}
	return NewDocument(resp.Body, resp.ContentType, pageURL, logger)
}

// NewDocument parses raw markup. contentType may be empty; it is only used to
// pick the character set.
func NewDocument(body []byte, contentType, pageURL string, logger *slog.Logger) (*Document, error) {
	var r io.Reader = bytes.NewReader(body)
	if decoded, err := charset.NewReader(r, contentType); err == nil {
		r = decoded
	} else {
		r = bytes.NewReader(body)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &types.ParseError{URL: pageURL, Err: err}
	}

	return &Document{
		url:    pageURL,
		raw:    body,
		doc:    doc,
		logger: logger.With("component", "document"),
	}, nil
}

// URL returns the address the document was loaded from.
func (d *Document) URL() string {
	return d.url
}

// Raw returns the undecoded markup.
func (d *Document) Raw() []byte {
	return d.raw
}

// Root returns the root of the parsed tree.
func (d *Document) Root() *html.Node {
	return d.doc.Nodes[0]
}

// FirstText returns the trimmed text of the first node matching expr, or ""
// when nothing matches.
func (d *Document) FirstText(expr string) string {
	nodes := d.Select(expr)
	if len(nodes) == 0 {
		return ""
	}
	return strings.TrimSpace(nodes[0].Text())
}
