package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/providers"
)

// Stage is the embedding pipeline stage.
type Stage struct {
	cfg        config.EmbeddingConfig
	dispatcher *Dispatcher
	disk       *DiskCache
	logger     *slog.Logger
}

var _ pipeline.Stage = (*Stage)(nil)

// NewStage creates the embedding stage. The provider client is wrapped
// with the configured rate limiting; the redis tier may be nil.
func NewStage(cfg config.EmbeddingConfig, client providers.EmbeddingClient, redisTier *RedisCache, logger *slog.Logger) *Stage {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultEmbeddingBatchSize
	}

	if client != nil {
		client = providers.NewRateLimitedEmbedder(client, cfg.RateLimit, logger)
	}
	disk := NewDiskCache(cfg.Cache.Dir, cfg.Cache.TTLDays)

	return &Stage{
		cfg:        cfg,
		dispatcher: NewDispatcher(client, cfg.Provider, cfg.Model, batchSize, disk, redisTier, logger),
		disk:       disk,
		logger:     logger.With("component", "embed"),
	}
}

func (s *Stage) Name() string { return "embedding" }

func (s *Stage) ValidateConfig() error {
	if s.cfg.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if s.cfg.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.cfg.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	if s.cfg.MaxTextLength < 0 {
		return fmt.Errorf("max_text_length must be >= 0")
	}
	return nil
}

// Execute embeds every chunk. Texts are truncated to max_text_length
// before hashing so the cache key matches what the provider saw.
func (s *Stage) Execute(ctx context.Context, board *pipeline.Blackboard) error {
	if removed, err := s.disk.Sweep(); err != nil {
		s.logger.Warn("cache sweep failed", "error", err)
	} else if removed > 0 {
		s.logger.Info("stale cache entries removed", "count", removed)
	}

	chunks := board.ActiveChunks()
	if len(chunks) == 0 {
		board.AddWarning("no chunks to embed")
		board.EmbeddedChunks = []pipeline.Chunk{}
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = truncate(chunk.Text, s.cfg.MaxTextLength)
	}

	vectors, err := s.dispatcher.EmbedAll(ctx, texts)
	if err != nil {
		return err
	}

	dimensions := 0
	embedded := make([]pipeline.Chunk, 0, len(chunks))
	for i, chunk := range chunks {
		vector := vectors[i]
		if dimensions == 0 {
			dimensions = len(vector)
		} else if len(vector) != dimensions {
			return fmt.Errorf("inconsistent embedding dimensions: chunk %d has %d, expected %d", i, len(vector), dimensions)
		}

		meta := chunk.CloneMetadata()
		meta["embedding_provider"] = s.cfg.Provider
		meta["embedding_model"] = s.cfg.Model
		meta["embedding_dimensions"] = len(vector)

		embedded = append(embedded, pipeline.Chunk{
			Text:      chunk.Text,
			Metadata:  meta,
			Embedding: vector,
		})
	}

	if s.cfg.Dimensions > 0 && dimensions != s.cfg.Dimensions {
		s.logger.Warn("embedding dimensions differ from configuration",
			"configured", s.cfg.Dimensions,
			"actual", dimensions,
		)
	}

	s.logger.Info("chunks embedded", "count", len(embedded), "dimensions", dimensions)
	board.EmbeddedChunks = embedded
	return nil
}

func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
