// Package markdown extracts plain text from Markdown documents using goldmark.
package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{md: goldmark.New()}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a markdown document to a normalised document.
// Blocks are separated by blank lines so the chunker can break on them.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	title, text := n.Extract(raw.Content)

	return &driven.NormaliseResult{
		Document: normalisers.NewDocument(raw, title, text, "markdown"),
	}, nil
}

// Extract returns the first level-1 heading and the document text.
// Code blocks, raw HTML and images are dropped.
func (n *Normaliser) Extract(source []byte) (title, text string) {
	doc := n.md.Parser().Parse(gmtext.NewReader(source))

	var blocks []string
	var cur strings.Builder

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				cur.Write(v.Segment.Value(source))
				if v.SoftLineBreak() || v.HardLineBreak() {
					cur.WriteByte(' ')
				}
			}
		case *ast.Heading:
			if !entering && title == "" && v.Level == 1 {
				title = strings.TrimSpace(cur.String())
			}
		}

		if !entering && node.Type() == ast.TypeBlock && cur.Len() > 0 {
			if s := strings.TrimSpace(cur.String()); s != "" {
				blocks = append(blocks, s)
			}
			cur.Reset()
		}
		return ast.WalkContinue, nil
	})

	return title, strings.Join(blocks, "\n\n")
}
