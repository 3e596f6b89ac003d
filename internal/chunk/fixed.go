package chunk

import (
	"context"
	"fmt"
)

// FixedChunker slides a window of chunk_size over the text, stepping
// chunk_size-overlap characters, so consecutive chunks share exactly
// overlap characters (except possibly the last pair).
type FixedChunker struct {
	chunkSize int
	overlap   int
}

var _ Chunker = (*FixedChunker)(nil)

// NewFixedChunker creates the sliding-window chunker.
func NewFixedChunker(chunkSize, overlap int) (*FixedChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk_size), got %d", overlap)
	}
	return &FixedChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

func (c *FixedChunker) Name() string { return "fixed" }

func (c *FixedChunker) Split(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := c.chunkSize - c.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
