package chunk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docpipe/docpipe/internal/artifacts"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/providers"
)

// NewChunkerFromConfig builds the configured strategy. The semantic
// strategy reuses the embedding stage's client and model; llm_guided
// needs a chat client.
func NewChunkerFromConfig(cfg config.ChunkingConfig, embClient providers.EmbeddingClient, embModel string, llmClient providers.LLMClient, logger *slog.Logger) (Chunker, error) {
	recursive, err := NewRecursiveChunker(cfg.ChunkSize, cfg.Overlap, cfg.Separators)
	if err != nil {
		return nil, err
	}

	switch cfg.Strategy {
	case "fixed":
		return NewFixedChunker(cfg.ChunkSize, cfg.Overlap)
	case "recursive":
		return recursive, nil
	case "semantic":
		return NewSemanticChunker(embClient, embModel, cfg.Semantic.SimilarityThreshold,
			cfg.MinChunkSize, cfg.MaxChunkSize, recursive, logger), nil
	case "llm_guided":
		if llmClient == nil {
			return nil, fmt.Errorf("llm_guided strategy requires a configured llm provider")
		}
		return NewLLMGuidedChunker(llmClient, cfg.LLM, recursive, logger)
	default:
		return nil, fmt.Errorf("unknown chunking strategy %q", cfg.Strategy)
	}
}

// Stage is the chunking pipeline stage.
type Stage struct {
	cfg     config.ChunkingConfig
	chunker Chunker
	saver   *artifacts.Writer
	logger  *slog.Logger
}

var _ pipeline.Stage = (*Stage)(nil)

// NewStage creates the chunking stage around a built chunker.
func NewStage(cfg config.ChunkingConfig, chunker Chunker, saver *artifacts.Writer, logger *slog.Logger) *Stage {
	return &Stage{
		cfg:     cfg,
		chunker: chunker,
		saver:   saver,
		logger:  logger.With("component", "chunk"),
	}
}

func (s *Stage) Name() string { return "chunking" }

func (s *Stage) ValidateConfig() error {
	if s.chunker == nil {
		return fmt.Errorf("no chunker configured")
	}
	if s.cfg.MinChunkSize < 0 {
		return fmt.Errorf("min_chunk_size must be >= 0")
	}
	if s.cfg.MaxChunkSize > 0 && s.cfg.MaxChunkSize < s.cfg.MinChunkSize {
		return fmt.Errorf("max_chunk_size must be >= min_chunk_size")
	}
	return nil
}

// Execute splits every document into ordered chunks. Chunks outside
// the configured size bounds are dropped with a logged rejection
// count; chunk_index stays contiguous after dropping.
func (s *Stage) Execute(ctx context.Context, board *pipeline.Blackboard) error {
	docs := board.ExtractedDocuments
	if len(docs) == 0 {
		board.AddWarning("no documents to chunk")
		board.Chunks = []pipeline.Chunk{}
		return nil
	}

	var all []pipeline.Chunk
	rejected := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		fragments, err := s.chunker.Split(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("chunking %q failed; %w", doc.SourcePath, err)
		}

		kept := make([]string, 0, len(fragments))
		for _, fragment := range fragments {
			if !s.acceptable(fragment) {
				rejected++
				continue
			}
			kept = append(kept, fragment)
		}

		for i, fragment := range kept {
			all = append(all, pipeline.Chunk{
				Text: fragment,
				Metadata: map[string]any{
					"source_file":       doc.RelPath,
					"source_path":       doc.SourcePath,
					"chunk_index":       i,
					"total_chunks":      len(kept),
					"chunking_strategy": s.chunker.Name(),
				},
			})
		}

		if s.cfg.SaveChunks && s.saver != nil {
			if _, err := s.saver.SaveJSON("chunks", doc.RelPath, kept); err != nil {
				s.logger.Warn("failed to save chunk artifact", "path", doc.RelPath, "error", err)
			}
		}
	}

	if rejected > 0 {
		s.logger.Info("chunks rejected by size bounds",
			"rejected", rejected,
			"min_chunk_size", s.cfg.MinChunkSize,
			"max_chunk_size", s.cfg.MaxChunkSize,
		)
	}
	if len(all) == 0 {
		board.AddWarning("chunking produced no chunks")
	}
	board.Chunks = all
	return nil
}

func (s *Stage) acceptable(fragment string) bool {
	if fragment == "" && s.cfg.DropEmpty {
		return false
	}
	n := len([]rune(fragment))
	if n < s.cfg.MinChunkSize {
		return false
	}
	if s.cfg.MaxChunkSize > 0 && n > s.cfg.MaxChunkSize {
		return false
	}
	return true
}
