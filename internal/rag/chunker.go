package rag

import "strings"

// sentence delimiters searched in order when a window ends mid-sentence
var sentenceDelimiters = []rune{'。', '！', '？', '\n', '.', '!', '?'}

// Chunker splits long documents into overlapping bounded-length chunks,
// preferring sentence boundaries. Sizes are in characters (runes), so
// CJK text chunks the same way as ASCII.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker. An overlap >= size is clamped so window
// starts always advance.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split chunks text into sequential windows of at most chunkSize runes.
// When a window boundary falls mid-sentence, the cut moves back to the
// nearest sentence-ending delimiter past the window start. Each next
// window starts chunkOverlap runes before the previous end. Empty
// chunks are dropped.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0

	for start < len(runes) {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		} else {
			// Cut at the nearest sentence boundary inside the window
			for _, sep := range sentenceDelimiters {
				if idx := lastIndexRune(runes, sep, start, end); idx > start {
					end = idx + 1
					break
				}
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		next := end - c.chunkOverlap
		// Guard forward progress even with pathological overlap values
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// lastIndexRune returns the highest index of sep in runes[start:end), or -1.
func lastIndexRune(runes []rune, sep rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == sep {
			return i
		}
	}
	return -1
}
