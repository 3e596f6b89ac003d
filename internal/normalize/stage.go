package normalize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
)

// Stage is the normalization pipeline stage: text normalization, L2
// vector scaling, validation, and metadata whitelisting.
type Stage struct {
	cfg    config.NormalizationConfig
	logger *slog.Logger
}

var _ pipeline.Stage = (*Stage)(nil)

// NewStage creates the normalization stage.
func NewStage(cfg config.NormalizationConfig, logger *slog.Logger) *Stage {
	return &Stage{cfg: cfg, logger: logger.With("component", "normalize")}
}

func (s *Stage) Name() string { return "normalization" }

func (s *Stage) ValidateConfig() error {
	if s.cfg.UnicodeForm != "" {
		if _, ok := unicodeForm(s.cfg.UnicodeForm); !ok {
			return fmt.Errorf("invalid unicode_form %q", s.cfg.UnicodeForm)
		}
	}
	switch s.cfg.OnInvalid {
	case "", "skip", "keep":
	default:
		return fmt.Errorf("on_invalid must be skip or keep, got %q", s.cfg.OnInvalid)
	}
	return nil
}

func (s *Stage) Execute(ctx context.Context, board *pipeline.Blackboard) error {
	chunks := board.ActiveChunks()
	if len(chunks) == 0 {
		board.AddWarning("no chunks to normalize")
		board.NormalizedChunks = []pipeline.Chunk{}
		return nil
	}

	keepInvalid := s.cfg.OnInvalid == "keep"

	normalized := make([]pipeline.Chunk, 0, len(chunks))
	skipped := 0
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk.Text = NormalizeText(chunk.Text, s.cfg)
		chunk.Embedding = L2Normalize(chunk.Embedding)
		chunk.Metadata = s.filterMetadata(chunk.Metadata)

		if err := s.validate(chunk); err != nil {
			if !keepInvalid {
				s.logger.Warn("dropping invalid chunk", "index", i, "error", err)
				skipped++
				continue
			}
			s.logger.Warn("keeping invalid chunk", "index", i, "error", err)
		}
		normalized = append(normalized, chunk)
	}

	if skipped > 0 {
		board.AddWarning(fmt.Sprintf("normalization dropped %d invalid chunks", skipped))
	}
	s.logger.Info("chunks normalized", "count", len(normalized), "dropped", skipped)
	board.NormalizedChunks = normalized
	return nil
}

// validate checks the storage contract for one chunk.
func (s *Stage) validate(chunk pipeline.Chunk) error {
	if chunk.Text == "" {
		return fmt.Errorf("empty text")
	}
	if src, ok := chunk.Metadata["source_file"].(string); !ok || src == "" {
		return fmt.Errorf("missing source_file")
	}
	return validateVector(chunk.Embedding)
}

// filterMetadata applies the whitelist and drops null values. An empty
// whitelist falls back to the default key set.
func (s *Stage) filterMetadata(meta map[string]any) map[string]any {
	whitelist := s.cfg.MetadataWhitelist
	if len(whitelist) == 0 {
		whitelist = config.DefaultMetadataWhitelist
	}
	allowed := make(map[string]bool, len(whitelist))
	for _, key := range whitelist {
		allowed[key] = true
	}

	out := make(map[string]any, len(meta))
	for key, value := range meta {
		if !allowed[key] {
			continue
		}
		if s.cfg.DropNulls && value == nil {
			continue
		}
		out[key] = value
	}
	return out
}
