package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MainContentClass marks the article container on udi.no pages.
const MainContentClass = "main-content"

// junk elements are removed with their subtree.
var junk = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Form:     true,
	atom.Noscript: true,
	atom.Aside:    true,
}

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	title, text, err := Extract(raw.Content)
	if err != nil {
		return nil, err
	}

	return &driven.NormaliseResult{
		Document: normalisers.NewDocument(raw, title, text, "html"),
	}, nil
}

// Extract parses an HTML page and returns its title and main text.
// Text nodes are trimmed and joined with single spaces.
func Extract(page []byte) (title, text string, err error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}

	if t := find(root, func(n *html.Node) bool { return n.DataAtom == atom.Title }); t != nil {
		title = strings.TrimSpace(textOf(t))
	}

	container := find(root, isMainContent)
	if container == nil {
		container = find(root, func(n *html.Node) bool { return n.DataAtom == atom.Main })
	}
	if container == nil {
		container = find(root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	}
	if container == nil {
		return title, "", nil
	}

	var parts []string
	collect(container, &parts)
	return title, strings.Join(parts, " "), nil
}

func isMainContent(n *html.Node) bool {
	if n.DataAtom != atom.Div {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == MainContentClass {
					return true
				}
			}
		}
	}
	return false
}

// find returns the first element in document order satisfying match,
// skipping junk subtrees.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode {
		if junk[n.DataAtom] {
			return nil
		}
		if match(n) {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func collect(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.ElementNode:
		if junk[n.DataAtom] {
			return
		}
	case html.TextNode:
		if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
			*parts = append(*parts, s)
		}
		return
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, parts)
	}
}

func textOf(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			parts = append(parts, c.Data)
		}
	}
	return strings.Join(parts, "")
}
