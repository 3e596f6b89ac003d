package chunk

import (
	"context"
	"fmt"
	"strings"
)

// RecursiveChunker splits on an ordered separator hierarchy, recursing
// into oversize parts with the next separator, then merges adjacent
// small parts up to chunk_size with an overlap carried between emitted
// chunks. The terminal "" separator is a character-level split.
type RecursiveChunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

var _ Chunker = (*RecursiveChunker)(nil)

// NewRecursiveChunker creates the separator-hierarchy chunker.
func NewRecursiveChunker(chunkSize, overlap int, separators []string) (*RecursiveChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk_size), got %d", overlap)
	}
	if len(separators) == 0 {
		separators = []string{"\n\n\n", "\n\n", "\n", " ", ""}
	}
	return &RecursiveChunker{chunkSize: chunkSize, overlap: overlap, separators: separators}, nil
}

func (c *RecursiveChunker) Name() string { return "recursive" }

func (c *RecursiveChunker) Split(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	parts := c.splitParts(text, c.separators)
	return c.merge(parts), nil
}

// splitParts cuts text with the highest-priority separator, recursing
// into any part still exceeding chunk_size.
func (c *RecursiveChunker) splitParts(text string, seps []string) []string {
	if len([]rune(text)) <= c.chunkSize {
		return []string{text}
	}
	if len(seps) == 0 || seps[0] == "" {
		return charSplit(text, c.chunkSize)
	}

	pieces := strings.Split(text, seps[0])
	var parts []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if len([]rune(piece)) > c.chunkSize {
			parts = append(parts, c.splitParts(piece, seps[1:])...)
		} else {
			parts = append(parts, piece)
		}
	}
	return parts
}

// merge packs adjacent parts into chunks up to chunk_size, carrying
// overlap characters from each emitted chunk into the next.
func (c *RecursiveChunker) merge(parts []string) []string {
	var chunks []string
	var current strings.Builder

	emit := func() {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)
		if c.overlap > 0 {
			runes := []rune(chunk)
			if len(runes) > c.overlap {
				runes = runes[len(runes)-c.overlap:]
			}
			current.WriteString(string(runes))
		}
	}

	for _, part := range parts {
		partLen := len([]rune(part))
		if current.Len() > 0 && len([]rune(current.String()))+partLen+1 > c.chunkSize {
			emit()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(part)
	}
	if strings.TrimSpace(current.String()) != "" {
		chunk := strings.TrimSpace(current.String())
		// Skip a trailing buffer that is only the carried overlap.
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], chunk) {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func charSplit(text string, size int) []string {
	runes := []rune(text)
	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
