package normalisers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// DocumentID returns the stable ID for a document with the given origin.
// Re-ingesting the same page yields the same ID.
func DocumentID(origin string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(origin)).String()
}

// NewDocument builds a document for raw with the extracted text.
// Origin is taken from raw.Metadata["origin"] when a loader found one,
// otherwise the URI is used.
func NewDocument(raw *domain.RawDocument, title, content, format string) domain.Document {
	origin := raw.URI
	if o, ok := raw.Metadata["origin"].(string); ok && o != "" {
		origin = o
	}
	if title == "" {
		title = TitleFromURI(raw.URI)
	}

	metadata := make(map[string]any, len(raw.Metadata)+3)
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = format
	metadata["path"] = raw.URI

	return domain.Document{
		ID:        DocumentID(origin),
		Origin:    origin,
		Title:     title,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// TitleFromURI extracts a human-readable title from a path or URL.
func TitleFromURI(uri string) string {
	filename := filepath.Base(strings.TrimRight(uri, "/"))

	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
