package chunk

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/docpipe/docpipe/internal/providers"
)

var sentenceRe = regexp.MustCompile(`[.!?]+[\s"')\]]*\s+`)

// SemanticChunker groups consecutive sentences until either the chunk
// is full or the similarity between adjacent sentence embeddings drops
// below the threshold. Without a usable embedding client it falls back
// to the recursive strategy.
type SemanticChunker struct {
	client       providers.EmbeddingClient
	model        string
	threshold    float64
	minChunkSize int
	maxChunkSize int
	fallback     *RecursiveChunker
	logger       *slog.Logger
}

var _ Chunker = (*SemanticChunker)(nil)

// NewSemanticChunker creates the similarity-driven chunker. The
// embedding client and model come from the embedding stage's
// configuration so both stages share one source of truth.
func NewSemanticChunker(client providers.EmbeddingClient, model string, threshold float64, minSize, maxSize int, fallback *RecursiveChunker, logger *slog.Logger) *SemanticChunker {
	return &SemanticChunker{
		client:       client,
		model:        model,
		threshold:    threshold,
		minChunkSize: minSize,
		maxChunkSize: maxSize,
		fallback:     fallback,
		logger:       logger.With("component", "chunk"),
	}
}

func (c *SemanticChunker) Name() string { return "semantic" }

func (c *SemanticChunker) Split(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	if c.client == nil || !c.client.Available() {
		c.logger.Warn("embedding client unavailable, falling back to recursive chunking")
		return c.fallback.Split(ctx, text)
	}

	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return c.fallback.Split(ctx, text)
	}

	embeddings, err := c.client.Embed(ctx, c.model, sentences)
	if err != nil {
		c.logger.Warn("sentence embedding failed, falling back to recursive chunking", "error", err)
		return c.fallback.Split(ctx, text)
	}
	if len(embeddings) != len(sentences) {
		return nil, fmt.Errorf("expected %d sentence embeddings, got %d", len(sentences), len(embeddings))
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		currentLen = 0
	}

	for i, sentence := range sentences {
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		currentLen += len([]rune(sentence))

		if i == len(sentences)-1 {
			break
		}

		// maxChunkSize zero means no maximum, matching the stage's
		// bounds handling.
		switch {
		case c.maxChunkSize > 0 && currentLen >= c.maxChunkSize:
			flush()
		case currentLen >= c.minChunkSize && cosineSimilarity(embeddings[i], embeddings[i+1]) < c.threshold:
			flush()
		}
	}
	flush()
	return chunks, nil
}

// splitSentences cuts on sentence-ending punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	indices := sentenceRe.FindAllStringIndex(text, -1)

	var sentences []string
	start := 0
	for _, loc := range indices {
		sentence := strings.TrimSpace(text[start:loc[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
