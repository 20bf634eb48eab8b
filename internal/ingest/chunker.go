// Package ingest extracts text from documents and splits it into
// overlapping chunks for indexing.
package ingest

import "strings"

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 700
	// DefaultChunkOverlap is how many characters consecutive chunks share.
	DefaultChunkOverlap = 120
)

// Chunk is one piece of a document ready for embedding.
type Chunk struct {
	Text   string
	Source string
	Index  int
}

// Chunker splits text into fixed-size overlapping windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Non-positive size falls back to the
// default; overlap is clamped below size so the window always advances.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts text into chunks tagged with source and position. Whitespace
// is trimmed per chunk and empty windows are skipped.
func (c *Chunker) Split(text, source string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []Chunk
	index := 0
	for start := 0; start < len(text); start += c.size - c.overlap {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, Chunk{Text: piece, Source: source, Index: index})
			index++
		}

		if end == len(text) {
			break
		}
	}
	return chunks
}
