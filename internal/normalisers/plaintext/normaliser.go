// Package plaintext normalises scraped text pages.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
	"github.com/custodia-labs/udirag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// SourcePrefix starts the provenance line of a scraped page.
const SourcePrefix = "Source:"

// Normaliser handles plain text documents.
// A first line of the form "Source: <url>" is taken as the document origin
// and removed from the content.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts a raw document to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	origin, body := SplitSource(string(raw.Content))

	meta := raw
	if origin != "" {
		copied := *raw
		copied.Metadata = make(map[string]any, len(raw.Metadata)+1)
		for k, v := range raw.Metadata {
			copied.Metadata[k] = v
		}
		copied.Metadata["origin"] = origin
		meta = &copied
	}

	return &driven.NormaliseResult{
		Document: normalisers.NewDocument(meta, "", strings.TrimSpace(body), "text"),
	}, nil
}

// SplitSource separates a leading "Source: <url>" line from the body.
// Text without such a line is returned unchanged with an empty origin.
func SplitSource(text string) (origin, body string) {
	trimmed := strings.TrimLeft(text, "\ufeff \t\r\n")
	if !strings.HasPrefix(trimmed, SourcePrefix) {
		return "", text
	}

	line, rest, _ := strings.Cut(trimmed, "\n")
	origin = strings.TrimSpace(strings.TrimPrefix(line, SourcePrefix))
	return origin, rest
}

// FormatPage renders a scraped page in the corpus file format.
func FormatPage(origin, text string) string {
	return SourcePrefix + " " + origin + "\n\n" + text
}
