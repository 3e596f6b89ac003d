package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
)

// Stage is the vector storage pipeline stage.
type Stage struct {
	cfg    config.StorageConfig
	store  Store
	logger *slog.Logger
}

var _ pipeline.Stage = (*Stage)(nil)

// NewStage creates the storage stage around a built backend.
func NewStage(cfg config.StorageConfig, store Store, logger *slog.Logger) *Stage {
	return &Stage{
		cfg:    cfg,
		store:  store,
		logger: logger.With("component", "store"),
	}
}

func (s *Stage) Name() string { return "storage" }

func (s *Stage) ValidateConfig() error {
	if s.store == nil {
		return fmt.Errorf("no storage backend configured")
	}
	if s.cfg.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if s.cfg.BatchSize < 0 {
		return fmt.Errorf("batch_size must be >= 0")
	}
	return nil
}

// Execute replaces previously stored vectors for every source file in
// this run, then writes the new chunks in batches. A failed batch is
// logged and skipped; the run continues.
func (s *Stage) Execute(ctx context.Context, board *pipeline.Blackboard) error {
	start := time.Now()

	chunks := board.ActiveChunks()
	report := &pipeline.StorageReport{
		Backend:    s.cfg.Backend,
		Collection: s.cfg.Collection,
	}

	if len(chunks) == 0 {
		board.AddWarning("no chunks to store")
		report.Duration = time.Since(start)
		board.StorageResult = report
		return nil
	}

	dimensions := len(chunks[0].Embedding)
	if err := s.store.Open(ctx, dimensions); err != nil {
		return fmt.Errorf("failed to open storage backend; %w", err)
	}
	defer s.store.Close()

	report.Sources = UniqueSources(chunks)

	if s.cfg.DeleteBySource {
		deleted, err := s.store.DeleteBySource(ctx, report.Sources)
		if err != nil {
			return fmt.Errorf("failed to delete previous vectors; %w", err)
		}
		report.Deleted = deleted
		if deleted > 0 {
			s.logger.Info("previous vectors removed", "count", deleted, "sources", len(report.Sources))
		}
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultStoreBatchSize
	}

	for batchStart := 0; batchStart < len(chunks); batchStart += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := batchStart + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[batchStart:end]

		if err := s.store.UpsertBatch(ctx, batch); err != nil {
			s.logger.Error("batch upsert failed",
				"batch", batchStart/batchSize,
				"size", len(batch),
				"error", err,
			)
			report.Failed += len(batch)
			continue
		}
		report.Stored += len(batch)
	}

	report.Duration = time.Since(start)
	if report.Failed > 0 {
		board.AddWarning(fmt.Sprintf("storage failed for %d of %d chunks", report.Failed, len(chunks)))
	}

	s.logger.Info("chunks stored",
		"backend", report.Backend,
		"collection", report.Collection,
		"stored", report.Stored,
		"failed", report.Failed,
		"deleted", report.Deleted,
		"duration", report.Duration,
	)
	board.StorageResult = report
	return nil
}
