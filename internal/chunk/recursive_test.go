package chunk

import (
	"context"
	"strings"
	"testing"
)

func TestRecursiveSplitsOnParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 30) // ~150 chars
	text := para + "\n\n" + para + "\n\n" + para

	c, err := NewRecursiveChunker(200, 0, []string{"\n\n", "\n", " ", ""})
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := c.Split(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len([]rune(chunk)) > 200 {
			t.Errorf("chunk %d exceeds chunk_size: %d chars", i, len(chunk))
		}
	}
}

func TestRecursiveMergesSmallParts(t *testing.T) {
	text := "one\ntwo\nthree\nfour"

	c, err := NewRecursiveChunker(100, 0, []string{"\n", " ", ""})
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := c.Split(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 1 {
		t.Fatalf("small parts should merge into one chunk, got %d: %v", len(chunks), chunks)
	}
	for _, word := range []string{"one", "two", "three", "four"} {
		if !strings.Contains(chunks[0], word) {
			t.Errorf("merged chunk lost %q", word)
		}
	}
}

func TestRecursiveCharacterTerminal(t *testing.T) {
	// No separator present in the text: the terminal "" splits by
	// characters.
	text := strings.Repeat("x", 250)

	c, err := NewRecursiveChunker(100, 0, []string{"\n", ""})
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := c.Split(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}

	total := 0
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunk %d exceeds chunk_size: %d", i, len(chunk))
		}
		total += len(chunk)
	}
	if total < 250 {
		t.Errorf("character split lost text: %d of 250 chars", total)
	}
}

func TestRecursiveEmptyText(t *testing.T) {
	c, _ := NewRecursiveChunker(100, 10, nil)
	chunks, err := c.Split(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("empty text should yield zero chunks, got %d", len(chunks))
	}
}

func TestSplitSentences(t *testing.T) {
	text := "First sentence. Second one! Is this third? Yes."
	sentences := splitSentences(text)

	if len(sentences) != 4 {
		t.Fatalf("got %d sentences, want 4: %v", len(sentences), sentences)
	}
	if sentences[0] != "First sentence." {
		t.Errorf("first sentence = %q", sentences[0])
	}
	if sentences[3] != "Yes." {
		t.Errorf("last sentence = %q", sentences[3])
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical vectors similarity = %f, want 1", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got > 0.001 {
		t.Errorf("orthogonal vectors similarity = %f, want 0", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero vector similarity = %f, want 0", got)
	}
}
