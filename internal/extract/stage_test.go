package extract

import (
	"context"
	"log/slog"
	"testing"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
)

func newTestStage(t *testing.T, cfg config.ExtractionConfig, extractors ...Extractor) *Stage {
	t.Helper()
	registry := NewRegistry()
	for _, e := range extractors {
		registry.Register(e)
	}
	fallback, err := NewFallbackManager(registry, cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return NewStage(cfg, "/input", fallback, nil, slog.Default())
}

func TestStagePromotesDocumentsInInputOrder(t *testing.T) {
	ok := &stubExtractor{
		name: "txt", available: true,
		exts:   newExtensionSet(".txt"),
		result: Result{Text: "extracted file content", Success: true, Confidence: 0.9},
	}
	cfg := customConfig("txt")
	cfg.MaxWorkers = 4
	stage := newTestStage(t, cfg, ok)

	board := pipeline.NewBlackboard([]string{"/input/b.txt", "/input/a.txt", "/input/c.txt"})
	if err := stage.Execute(context.Background(), board); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(board.ExtractedDocuments) != 3 {
		t.Fatalf("got %d documents, want 3", len(board.ExtractedDocuments))
	}
	want := []string{"/input/b.txt", "/input/a.txt", "/input/c.txt"}
	for i, doc := range board.ExtractedDocuments {
		if doc.SourcePath != want[i] {
			t.Errorf("document %d = %s, want %s", i, doc.SourcePath, want[i])
		}
	}
}

func TestStageMarksUnextractableFilesFailed(t *testing.T) {
	ok := &stubExtractor{
		name: "txt", available: true,
		exts:   newExtensionSet(".txt"),
		result: Result{Text: "extracted file content", Success: true, Confidence: 0.9},
	}
	stage := newTestStage(t, customConfig("txt"), ok)

	board := pipeline.NewBlackboard([]string{"/input/good.txt", "/input/bad.bin"})
	if err := stage.Execute(context.Background(), board); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(board.ExtractedDocuments) != 1 {
		t.Fatalf("got %d documents, want 1", len(board.ExtractedDocuments))
	}
	if _, failed := board.FailedSources["/input/bad.bin"]; !failed {
		t.Error("unhandled file should be marked failed")
	}
}

func TestStageEmptyInputWarns(t *testing.T) {
	ok := &stubExtractor{name: "txt", available: true, exts: newExtensionSet(".txt")}
	stage := newTestStage(t, customConfig("txt"), ok)

	board := pipeline.NewBlackboard(nil)
	if err := stage.Execute(context.Background(), board); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if board.ExtractedDocuments == nil {
		t.Error("output slot must be written even when empty")
	}
	if len(board.Warnings()) == 0 {
		t.Error("expected a warning for empty input")
	}
}

func TestStageRecordsRelativePaths(t *testing.T) {
	ok := &stubExtractor{
		name: "txt", available: true,
		exts:   newExtensionSet(".txt"),
		result: Result{Text: "extracted file content", Success: true, Confidence: 0.9},
	}
	stage := newTestStage(t, customConfig("txt"), ok)

	board := pipeline.NewBlackboard([]string{"/input/reports/2026/q1.txt"})
	if err := stage.Execute(context.Background(), board); err != nil {
		t.Fatal(err)
	}

	if got := board.ExtractedDocuments[0].RelPath; got != "reports/2026/q1.txt" {
		t.Errorf("rel path = %q, want reports/2026/q1.txt", got)
	}
}
