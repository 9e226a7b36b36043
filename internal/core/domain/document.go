package domain

import "time"

// Document represents a cleaned corpus page.
// It is the canonical representation after normalisation and is immutable
// once ingested.
type Document struct {
	// ID is a stable identifier derived from Origin.
	ID string

	// Origin is the provenance of the text (source URL or file path).
	Origin string

	// Title is the human-readable title, if one could be extracted.
	Title string

	// Content is the full body text before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Chunk is a bounded text window cut from a single document.
// Adjacent chunks of the same document share Overlap leading characters.
type Chunk struct {
	// ID is a stable identifier derived from DocumentID and Position.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Origin is copied from the parent document for provenance.
	Origin string

	// Content is the text window.
	Content string

	// Position is the sequence index within the document, starting at 0.
	Position int

	// Overlap is the number of leading characters shared with the previous
	// chunk. Zero for the first chunk of a document.
	Overlap int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// RetrievedChunk is a chunk returned by a similarity query.
type RetrievedChunk struct {
	Chunk Chunk

	// Score is the cosine similarity to the query; higher is closer.
	Score float64
}

// RawDocument is a corpus file's bytes before normalisation.
type RawDocument struct {
	// URI is the file path or URL the bytes were read from.
	URI string

	// MIMEType selects the normaliser (e.g. "text/plain", "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata carries loader-specific key-value pairs.
	Metadata map[string]any
}

// IngestStats summarises an ingestion run.
type IngestStats struct {
	Documents int `json:"documents"`
	Skipped   int `json:"skipped"`
	Chunks    int `json:"chunks"`
}
