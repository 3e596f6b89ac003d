package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docpipe/docpipe/internal/artifacts"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/fsutil"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/providers"
)

// Stage is the enrichment pipeline stage.
type Stage struct {
	cfg        config.EnrichmentConfig
	frameworks []string
	classify   *classifier
	saver      *artifacts.Writer
	logger     *slog.Logger
	now        func() time.Time
}

var _ pipeline.Stage = (*Stage)(nil)

// NewStage creates the enrichment stage. The LLM client may be nil;
// sensitivity classification then uses the keyword fallback.
func NewStage(cfg config.EnrichmentConfig, frameworks []string, llm providers.LLMClient, saver *artifacts.Writer, logger *slog.Logger) *Stage {
	if llm != nil {
		llm = providers.NewRateLimitedLLM(llm, cfg.RateLimit, logger)
	}
	return &Stage{
		cfg:        cfg,
		frameworks: frameworks,
		classify:   &classifier{cfg: cfg, llm: llm},
		saver:      saver,
		logger:     logger.With("component", "enrich"),
		now:        time.Now,
	}
}

func (s *Stage) Name() string { return "enrichment" }

func (s *Stage) ValidateConfig() error {
	if s.cfg.DefaultSensitivity != "" && !sensitivityLevels[s.cfg.DefaultSensitivity] {
		return fmt.Errorf("invalid default_sensitivity %q", s.cfg.DefaultSensitivity)
	}
	if s.cfg.UseLLM && s.cfg.LLM.Provider == "" {
		return fmt.Errorf("use_llm requires llm.provider")
	}
	return nil
}

// Execute annotates every chunk with governance metadata. The input
// chunks are not mutated; enriched copies land in the next slot.
func (s *Stage) Execute(ctx context.Context, board *pipeline.Blackboard) error {
	chunks := board.Chunks
	if len(chunks) == 0 {
		board.AddWarning("no chunks to enrich")
		board.EnrichedChunks = []pipeline.Chunk{}
		return nil
	}

	processedAt := s.now().UTC().Format(time.RFC3339)

	enriched := make([]pipeline.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		meta := chunk.CloneMetadata()
		meta["content_hash"] = fsutil.HashString(chunk.Text)
		meta["processed_at"] = processedAt
		meta["sensitivity"] = s.classify.sensitivity(ctx, chunk.Text)
		meta["regulatory_tags"] = regulatoryTags(chunk.Text, s.frameworks)

		if src, ok := meta["source_file"].(string); ok {
			meta["document_type"] = documentType(src)
		} else {
			meta["document_type"] = "other"
		}

		enriched = append(enriched, pipeline.Chunk{
			Text:      chunk.Text,
			Metadata:  meta,
			Embedding: chunk.Embedding,
		})
	}

	if s.cfg.SaveEnriched && s.saver != nil {
		if _, err := s.saver.SaveJSON("enriched", "chunks", enriched); err != nil {
			s.logger.Warn("failed to save enriched artifact", "error", err)
		}
	}

	s.logger.Info("chunks enriched", "count", len(enriched))
	board.EnrichedChunks = enriched
	return nil
}
