// Package lifecycle routes processed input files to the processed
// directory and failures to the errors directory.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/fsutil"
	"github.com/docpipe/docpipe/internal/pipeline"
)

// Mover relocates input files after a run, preserving their path
// relative to the input directory.
type Mover struct {
	inputDir     string
	processedDir string
	errorsDir    string
	timestamp    bool
	now          func() time.Time
}

// NewMover creates a mover over the configured directory layout.
func NewMover(paths config.Paths, timestamp bool) *Mover {
	return &Mover{
		inputDir:     paths.InputDir,
		processedDir: paths.ProcessedDir,
		errorsDir:    paths.ErrorsDir,
		timestamp:    timestamp,
		now:          time.Now,
	}
}

// destination computes the target path under root, keeping the
// relative layout and optionally suffixing the stem with a timestamp.
// Collisions get a numeric suffix.
func (m *Mover) destination(root, sourcePath string) string {
	rel := fsutil.RelativeTo(m.inputDir, sourcePath)
	target := filepath.Join(root, rel)

	if m.timestamp {
		ext := filepath.Ext(target)
		stem := strings.TrimSuffix(target, ext)
		target = fmt.Sprintf("%s_%s%s", stem, m.now().UTC().Format("20060102_150405"), ext)
	}
	return fsutil.UniquePath(target)
}

// MoveProcessed moves a successfully ingested file and returns the new
// location.
func (m *Mover) MoveProcessed(sourcePath string) (string, error) {
	return m.move(m.processedDir, sourcePath)
}

// MoveFailed moves a failed file and writes a .error sidecar with the
// failure reason.
func (m *Mover) MoveFailed(sourcePath, reason string) (string, error) {
	target, err := m.move(m.errorsDir, sourcePath)
	if err != nil {
		return "", err
	}

	sidecar := fmt.Sprintf("%s\n\ntimestamp: %s\n", reason, m.now().UTC().Format(time.RFC3339))
	if err := fsutil.AtomicWriteFile(target+".error", []byte(sidecar), 0o644); err != nil {
		return target, fmt.Errorf("failed to write error sidecar; %w", err)
	}
	return target, nil
}

func (m *Mover) move(root, sourcePath string) (string, error) {
	target := m.destination(root, sourcePath)
	if err := fsutil.EnsureDir(filepath.Dir(target)); err != nil {
		return "", err
	}
	if err := os.Rename(sourcePath, target); err != nil {
		return "", fmt.Errorf("failed to move %q; %w", sourcePath, err)
	}
	return target, nil
}

// Stage is the lifecycle pipeline stage.
type Stage struct {
	cfg    config.LifecycleConfig
	mover  *Mover
	logger *slog.Logger
}

var _ pipeline.Stage = (*Stage)(nil)

// NewStage creates the lifecycle stage.
func NewStage(cfg config.LifecycleConfig, paths config.Paths, logger *slog.Logger) *Stage {
	return &Stage{
		cfg:    cfg,
		mover:  NewMover(paths, cfg.Timestamp),
		logger: logger.With("component", "lifecycle"),
	}
}

func (s *Stage) Name() string { return "lifecycle" }

func (s *Stage) ValidateConfig() error {
	if s.mover.processedDir == "" || s.mover.errorsDir == "" {
		return fmt.Errorf("processed_dir and errors_dir are required")
	}
	return nil
}

// Execute moves every failed source to the errors directory and every
// extracted document's source to the processed directory. A move
// failure is logged but never fails the run; the file simply stays in
// place for the next pass.
func (s *Stage) Execute(ctx context.Context, board *pipeline.Blackboard) error {
	moved, failed := 0, 0

	for sourcePath, reason := range board.FailedSources {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := s.mover.MoveFailed(sourcePath, reason)
		if err != nil {
			s.logger.Warn("failed to move errored file", "path", sourcePath, "error", err)
			continue
		}
		failed++
		s.logger.Info("file moved to errors", "from", sourcePath, "to", target)
	}

	for _, doc := range board.ExtractedDocuments {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := s.mover.MoveProcessed(doc.SourcePath)
		if err != nil {
			s.logger.Warn("failed to move processed file", "path", doc.SourcePath, "error", err)
			continue
		}
		moved++
		s.logger.Debug("file moved to processed", "from", doc.SourcePath, "to", target)
	}

	s.logger.Info("lifecycle complete", "processed", moved, "errors", failed)
	return nil
}
