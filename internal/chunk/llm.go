package chunk

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/providers"
)

// LLMGuidedChunker asks a chat model for topic boundaries. Documents
// above the single-call budget are first cut coarsely with the fixed
// strategy; each coarse piece gets its own boundary call. Invalid or
// empty replies fall back to the recursive strategy for that piece.
type LLMGuidedChunker struct {
	client   providers.LLMClient
	cfg      config.LLMChunkConfig
	coarse   *FixedChunker
	fallback *RecursiveChunker
	logger   *slog.Logger
}

var _ Chunker = (*LLMGuidedChunker)(nil)

// NewLLMGuidedChunker creates the boundary-analysis chunker.
func NewLLMGuidedChunker(client providers.LLMClient, cfg config.LLMChunkConfig, fallback *RecursiveChunker, logger *slog.Logger) (*LLMGuidedChunker, error) {
	budget := cfg.SingleCallBudget
	if budget <= 0 {
		return nil, fmt.Errorf("single_call_budget must be positive, got %d", budget)
	}
	if !strings.Contains(cfg.PromptTemplate, "{text}") {
		return nil, fmt.Errorf("prompt_template must contain the {text} placeholder")
	}
	coarse, err := NewFixedChunker(budget, 0)
	if err != nil {
		return nil, err
	}
	return &LLMGuidedChunker{
		client:   client,
		cfg:      cfg,
		coarse:   coarse,
		fallback: fallback,
		logger:   logger.With("component", "chunk"),
	}, nil
}

func (c *LLMGuidedChunker) Name() string { return "llm_guided" }

func (c *LLMGuidedChunker) Split(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	coarse, err := c.coarse.Split(ctx, text)
	if err != nil {
		return nil, err
	}

	var chunks []string
	for _, piece := range coarse {
		pieceChunks, err := c.splitPiece(ctx, piece)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, pieceChunks...)
	}
	return chunks, nil
}

func (c *LLMGuidedChunker) splitPiece(ctx context.Context, piece string) ([]string, error) {
	prompt := strings.ReplaceAll(c.cfg.PromptTemplate, "{text}", piece)

	reply, err := c.client.Complete(ctx, providers.CompletionRequest{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("boundary analysis call failed; %w", err)
	}

	boundaries, err := ParseBoundaries(reply)
	if err != nil || len(boundaries) == 0 {
		c.logger.Warn("unusable boundary reply, falling back to recursive chunking", "error", err)
		return c.fallback.Split(ctx, piece)
	}

	return cutAt(piece, boundaries), nil
}

// cutAt slices the piece at the given character offsets. Offsets
// outside (0, len) are discarded; the final cut at the end is
// implicit.
func cutAt(piece string, boundaries []int) []string {
	runes := []rune(piece)

	valid := boundaries[:0]
	for _, b := range boundaries {
		if b > 0 && b < len(runes) {
			valid = append(valid, b)
		}
	}
	sort.Ints(valid)

	var chunks []string
	start := 0
	for _, b := range valid {
		if b == start {
			continue
		}
		chunks = append(chunks, string(runes[start:b]))
		start = b
	}
	if start < len(runes) {
		chunks = append(chunks, string(runes[start:]))
	}
	return chunks
}
