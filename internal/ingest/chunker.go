// Package ingest implements the document ingestion pipeline: page
// extraction, chunking, embedding, persistence, audit, and best-effort
// event notification.
package ingest

import "strings"

// Default chunking parameters. 900 characters keeps every chunk inside the
// embedding input limit and well below full-text-index row limits; 150
// characters of overlap preserves context across window boundaries.
const (
	DefaultMaxChars = 900
	DefaultOverlap  = 150
)

// Chunker splits normalized text into overlapping fixed-size windows.
type Chunker struct {
	// maxChars is the maximum window length in characters.
	maxChars int

	// overlap is the number of characters shared between consecutive windows.
	overlap int
}

// NewChunker constructs a Chunker, applying defaults for non-positive
// maxChars and clamping a degenerate overlap (>= maxChars would stall the
// window) to a tenth of the window size.
func NewChunker(maxChars, overlap int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars / 10
	}
	return &Chunker{maxChars: maxChars, overlap: overlap}
}

// Split normalizes whitespace and slices the text into windows of at most
// maxChars characters, each starting overlap characters before the previous
// window's end. Windows are measured in runes, never bytes, so a boundary
// cannot land inside a multibyte sequence. Empty input yields no windows.
// Concatenating the non-overlapping portions of the result reconstructs the
// normalized text exactly.
func (c *Chunker) Split(text string) []string {
	t := []rune(normalizeWhitespace(text))
	if len(t) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(t) {
		end := start + c.maxChars
		if end > len(t) {
			end = len(t)
		}
		chunks = append(chunks, string(t[start:end]))
		if end == len(t) {
			break
		}
		start = end - c.overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

// normalizeWhitespace collapses every run of whitespace to a single space
// and trims both ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
