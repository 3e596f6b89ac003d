package vectorstore

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
)

type fakeStore struct {
	opened     int
	dimensions int
	deleted    []string
	batches    [][]pipeline.Chunk
	failBatch  int // 1-based index of the batch that fails; 0 = none
	closed     bool
}

func (f *fakeStore) Open(ctx context.Context, dimensions int) error {
	f.opened++
	f.dimensions = dimensions
	return nil
}

func (f *fakeStore) DeleteBySource(ctx context.Context, sources []string) (int, error) {
	f.deleted = append(f.deleted, sources...)
	return len(sources) * 2, nil
}

func (f *fakeStore) UpsertBatch(ctx context.Context, chunks []pipeline.Chunk) error {
	f.batches = append(f.batches, chunks)
	if f.failBatch > 0 && len(f.batches) == f.failBatch {
		return errors.New("backend unavailable")
	}
	return nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func storageConfig() config.StorageConfig {
	return config.StorageConfig{
		Backend:        "qdrant",
		Collection:     "documents",
		BatchSize:      2,
		DeleteBySource: true,
	}
}

func storedChunk(src, hash string) pipeline.Chunk {
	return pipeline.Chunk{
		Text:      "text of " + src,
		Embedding: []float32{0.6, 0.8},
		Metadata: map[string]any{
			"source_file":  src,
			"content_hash": hash,
		},
	}
}

func TestStorageUpsertBySource(t *testing.T) {
	store := &fakeStore{}
	stage := NewStage(storageConfig(), store, slog.Default())

	board := pipeline.NewBlackboard(nil)
	board.NormalizedChunks = []pipeline.Chunk{
		storedChunk("a.txt", "h1"),
		storedChunk("a.txt", "h2"),
		storedChunk("b.txt", "h3"),
	}

	if err := stage.Execute(context.Background(), board); err != nil {
		t.Fatal(err)
	}

	if store.opened != 1 || store.dimensions != 2 {
		t.Errorf("open called %d times with %d dimensions", store.opened, store.dimensions)
	}
	if len(store.deleted) != 2 {
		t.Errorf("deleted sources = %v, want [a.txt b.txt]", store.deleted)
	}
	if len(store.batches) != 2 {
		t.Errorf("got %d batches, want 2 at batch_size 2", len(store.batches))
	}
	if !store.closed {
		t.Error("store not closed")
	}

	report := board.StorageResult
	if report == nil {
		t.Fatal("no storage report")
	}
	if report.Stored != 3 || report.Failed != 0 {
		t.Errorf("stored/failed = %d/%d, want 3/0", report.Stored, report.Failed)
	}
	if report.Deleted != 4 {
		t.Errorf("deleted = %d, want 4", report.Deleted)
	}
}

func TestStorageContinuesAfterFailedBatch(t *testing.T) {
	store := &fakeStore{failBatch: 1}
	stage := NewStage(storageConfig(), store, slog.Default())

	board := pipeline.NewBlackboard(nil)
	board.NormalizedChunks = []pipeline.Chunk{
		storedChunk("a.txt", "h1"),
		storedChunk("a.txt", "h2"),
		storedChunk("b.txt", "h3"),
	}

	if err := stage.Execute(context.Background(), board); err != nil {
		t.Fatal(err)
	}

	report := board.StorageResult
	if report.Failed != 2 || report.Stored != 1 {
		t.Errorf("stored/failed = %d/%d, want 1/2", report.Stored, report.Failed)
	}
	if len(board.Warnings()) == 0 {
		t.Error("expected a warning about failed chunks")
	}
}

func TestStorageEmptyInput(t *testing.T) {
	store := &fakeStore{}
	stage := NewStage(storageConfig(), store, slog.Default())

	board := pipeline.NewBlackboard(nil)
	if err := stage.Execute(context.Background(), board); err != nil {
		t.Fatal(err)
	}
	if store.opened != 0 {
		t.Error("backend should not open for an empty run")
	}
	if board.StorageResult == nil {
		t.Error("report should be set even for an empty run")
	}
}

func TestPointIDStableAndCollisionSafe(t *testing.T) {
	seen := make(map[string]bool)
	a := PointID(storedChunk("a.txt", "samehash"), seen)
	b := PointID(storedChunk("a.txt", "samehash"), seen)
	if a == b {
		t.Error("in-run duplicate hash must get a distinct id")
	}

	again := PointID(storedChunk("a.txt", "samehash"), make(map[string]bool))
	if a != again {
		t.Error("same hash must derive the same id across runs")
	}

	noHash := PointID(pipeline.Chunk{Metadata: map[string]any{}}, seen)
	if noHash == "" || noHash == a {
		t.Error("missing hash should still produce a unique id")
	}
}

func TestCoerceScalar(t *testing.T) {
	if got := CoerceScalar([]string{"RGPD", "SOC2"}); got != "RGPD,SOC2" {
		t.Errorf("string slice = %v", got)
	}
	if got := CoerceScalar([]any{1, "x"}); got != "1,x" {
		t.Errorf("any slice = %v", got)
	}
	if got := CoerceScalar(42); got != 42 {
		t.Errorf("int = %v", got)
	}
	if got := CoerceScalar(nil); got != nil {
		t.Errorf("nil = %v", got)
	}
}

func TestUniqueSources(t *testing.T) {
	chunks := []pipeline.Chunk{
		storedChunk("b.txt", "1"),
		storedChunk("a.txt", "2"),
		storedChunk("b.txt", "3"),
	}
	sources := UniqueSources(chunks)
	if len(sources) != 2 || sources[0] != "b.txt" || sources[1] != "a.txt" {
		t.Errorf("sources = %v, want [b.txt a.txt] in input order", sources)
	}
}

func TestStorageValidateConfig(t *testing.T) {
	stage := NewStage(storageConfig(), nil, slog.Default())
	if err := stage.ValidateConfig(); err == nil {
		t.Error("missing backend should be rejected")
	}

	cfg := storageConfig()
	cfg.Collection = ""
	stage = NewStage(cfg, &fakeStore{}, slog.Default())
	if err := stage.ValidateConfig(); err == nil {
		t.Error("missing collection should be rejected")
	}
}

func TestNewStoreUnknownBackend(t *testing.T) {
	cfg := storageConfig()
	cfg.Backend = "postgres"
	if _, err := NewStore(cfg, slog.Default()); err == nil {
		t.Error("unknown backend should be rejected")
	}
	if _, err := NewStore(cfg, slog.Default()); err != nil && !strings.Contains(err.Error(), "postgres") {
		t.Errorf("error should name the backend: %v", err)
	}
}
