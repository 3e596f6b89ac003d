package chunk

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

type scriptedEmbedder struct {
	vectors   map[string][]float32
	available bool
	err       error
	calls     int
}

func (s *scriptedEmbedder) Name() string    { return "scripted" }
func (s *scriptedEmbedder) Available() bool { return s.available }

func (s *scriptedEmbedder) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := s.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 0}
		}
	}
	return out, nil
}

func newSemanticUnderTest(t *testing.T, client *scriptedEmbedder) *SemanticChunker {
	t.Helper()
	fallback, err := NewRecursiveChunker(100, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewSemanticChunker(client, "m", 0.5, 5, 200, fallback, slog.Default())
}

func TestSemanticBreaksOnLowSimilarity(t *testing.T) {
	client := &scriptedEmbedder{
		available: true,
		vectors: map[string][]float32{
			"The cat sat on the mat.":  {1, 0},
			"The cat licked its paw.":  {0.9, 0.1},
			"Quarterly revenue grew.":  {0, 1},
			"Margins improved slowly.": {0.1, 0.9},
		},
	}
	c := newSemanticUnderTest(t, client)

	text := "The cat sat on the mat. The cat licked its paw. Quarterly revenue grew. Margins improved slowly."
	chunks, err := c.Split(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %v", len(chunks), chunks)
	}
}

func TestSemanticZeroMaxSizeNeverForcesFlush(t *testing.T) {
	// All sentences embed identically, so with no maximum the whole
	// document stays one chunk.
	client := &scriptedEmbedder{available: true}
	fallback, err := NewRecursiveChunker(100, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	c := NewSemanticChunker(client, "m", 0.5, 5, 0, fallback, slog.Default())

	chunks, err := c.Split(context.Background(), "First sentence here. Second sentence follows. Third closes it.")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %v", len(chunks), chunks)
	}
}

func TestSemanticFallsBackWithoutClient(t *testing.T) {
	c := newSemanticUnderTest(t, &scriptedEmbedder{available: false})

	chunks, err := c.Split(context.Background(), "Only one sentence here with no model available at all.")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Error("fallback should still produce at least one chunk")
	}
}

func TestSemanticFallsBackOnEmbedError(t *testing.T) {
	client := &scriptedEmbedder{available: true, err: errors.New("endpoint down")}
	c := newSemanticUnderTest(t, client)

	chunks, err := c.Split(context.Background(), "First sentence here. Second sentence follows. Third closes it.")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Error("fallback should still produce chunks")
	}
	if client.calls != 1 {
		t.Errorf("expected one embed attempt, got %d", client.calls)
	}
}

func TestSemanticSingleSentenceFallsBack(t *testing.T) {
	client := &scriptedEmbedder{available: true}
	c := newSemanticUnderTest(t, client)

	chunks, err := c.Split(context.Background(), "Just one sentence without a terminator")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if client.calls != 0 {
		t.Error("single sentence should not hit the embedding client")
	}
}
