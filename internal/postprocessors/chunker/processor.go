// Package chunker provides a separator-aware text chunking processor.
package chunker

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// separators are tried in order when looking for a natural break.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// Processor splits document content into overlapping chunks, preferring to
// break on paragraph, line, sentence and word boundaries.
// Sizes are measured in runes. It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Adjacent chunks share exactly the configured overlap.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	runes := []rune(doc.Content)
	n := len(runes)
	namespace := documentNamespace(doc.ID)

	chunks := make([]domain.Chunk, 0, n/(p.chunkSize-p.overlap)+1)

	start := 0
	for {
		end := start + p.chunkSize
		last := end >= n
		if last {
			end = n
		} else {
			end = p.breakPoint(runes, start, end)
		}

		overlap := 0
		if len(chunks) > 0 {
			overlap = p.overlap
		}

		position := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.NewSHA1(namespace, []byte(strconv.Itoa(position))).String(),
			DocumentID: doc.ID,
			Origin:     doc.Origin,
			Content:    string(runes[start:end]),
			Position:   position,
			Overlap:    overlap,
			Metadata:   make(map[string]any),
		})

		if last {
			break
		}
		start = end - p.overlap
	}

	return chunks, nil
}

// breakPoint returns the end of the window starting at start.
// A separator match must end in the second half of the window and after
// start+overlap, so the next window always advances.
func (p *Processor) breakPoint(runes []rune, start, end int) int {
	lowest := start + p.chunkSize/2
	if floor := start + p.overlap + 1; floor > lowest {
		lowest = floor
	}

	for _, sep := range separators {
		if idx := lastIndex(runes[start:end], sep); idx >= 0 {
			brk := start + idx + len(sep)
			if brk >= lowest {
				return brk
			}
		}
	}
	return end
}

// lastIndex returns the index of the last occurrence of sep in s, or -1.
func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j, r := range sep {
			if s[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// documentNamespace derives the UUID namespace for a document's chunk IDs.
func documentNamespace(id string) uuid.UUID {
	if u, err := uuid.Parse(id); err == nil {
		return u
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id))
}
