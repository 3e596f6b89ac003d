package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/docpipe/docpipe/internal/artifacts"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/fsutil"
	"github.com/docpipe/docpipe/internal/pipeline"
)

// Stage is the extraction pipeline stage. It runs the fallback chain
// over every monitored file with a bounded worker pool and promotes
// validated results to documents on the blackboard.
type Stage struct {
	cfg      config.ExtractionConfig
	inputDir string
	fallback *FallbackManager
	metrics  *MetricsCollector
	saver    *artifacts.Writer
	logger   *slog.Logger
}

var _ pipeline.Stage = (*Stage)(nil)

// NewStage creates the extraction stage. The artifact writer may be
// nil when save_extracted is off.
func NewStage(cfg config.ExtractionConfig, inputDir string, fallback *FallbackManager, saver *artifacts.Writer, logger *slog.Logger) *Stage {
	return &Stage{
		cfg:      cfg,
		inputDir: inputDir,
		fallback: fallback,
		metrics:  NewMetricsCollector(),
		saver:    saver,
		logger:   logger.With("component", "extract"),
	}
}

func (s *Stage) Name() string { return "extraction" }

func (s *Stage) ValidateConfig() error {
	if s.cfg.MinTextLength < 0 {
		return fmt.Errorf("min_text_length must be >= 0")
	}
	if s.cfg.MinConfidence < 0 || s.cfg.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0, 1]")
	}
	if s.fallback == nil {
		return fmt.Errorf("no extraction chain configured")
	}
	return nil
}

// Metrics exposes the session collector so the caller can persist the
// summary at shutdown.
func (s *Stage) Metrics() *MetricsCollector { return s.metrics }

type extractJob struct {
	index int
	path  string
}

// Execute extracts every monitored file. A file failing all extractors
// is recoverable: it is marked failed and the run continues. Document
// order follows the input path order.
func (s *Stage) Execute(ctx context.Context, board *pipeline.Blackboard) error {
	paths := board.MonitoredFiles
	if len(paths) == 0 {
		board.AddWarning("no input files to extract")
		board.ExtractedDocuments = []pipeline.Document{}
		return nil
	}

	workers := s.cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan extractJob)
	results := make([]*pipeline.Document, len(paths))
	failures := make([]string, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					return
				}
				doc, err := s.extractOne(job.path)
				if err != nil {
					failures[job.index] = err.Error()
					continue
				}
				results[job.index] = doc
			}
		}()
	}

	for i, path := range paths {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- extractJob{index: i, path: path}:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	docs := make([]pipeline.Document, 0, len(paths))
	for i, path := range paths {
		if results[i] != nil {
			docs = append(docs, *results[i])
			continue
		}
		reason := failures[i]
		if reason == "" {
			reason = "extraction aborted"
		}
		s.logger.Warn("file extraction failed", "path", path, "reason", reason)
		board.MarkFailed(path, reason)
	}

	if len(docs) == 0 {
		board.AddWarning("extraction produced no documents")
	}
	board.ExtractedDocuments = docs

	if s.cfg.MetricsPath != "" {
		if err := s.metrics.WriteSummary(s.cfg.MetricsPath); err != nil {
			s.logger.Warn("failed to write metrics summary", "path", s.cfg.MetricsPath, "error", err)
		}
	}
	return nil
}

func (s *Stage) extractOne(path string) (*pipeline.Document, error) {
	var fileSize int64
	if info, err := os.Stat(path); err == nil {
		fileSize = info.Size()
	}

	result, err := s.fallback.ExtractFile(path)
	if err != nil {
		s.metrics.Record(DocumentMetric{Path: path, Success: false, FileSizeBytes: fileSize})
		return nil, err
	}

	originalLength := len(result.Text)
	cleaned := CleanText(result.Text, s.cfg.Cleaning)

	relPath := fsutil.RelativeTo(s.inputDir, path)
	doc := &pipeline.Document{
		SourcePath: path,
		RelPath:    relPath,
		Text:       cleaned,
		Extractor:  result.ExtractorName,
		Confidence: result.Confidence,
		Metadata:   result.Metadata,
	}
	doc.Metadata["original_length"] = originalLength
	doc.Metadata["cleaned_length"] = len(cleaned)
	doc.Metadata["file_size"] = fileSize

	if s.cfg.SaveExtracted && s.saver != nil {
		artifactPath, err := s.saver.SaveJSON("extracted", relPath, doc)
		if err != nil {
			s.logger.Warn("failed to save extracted artifact", "path", path, "error", err)
		} else {
			doc.Metadata["extracted_json_path"] = artifactPath
		}
	}

	duration, _ := result.Metadata["extraction_time_seconds"].(float64)
	s.metrics.Record(DocumentMetric{
		Path:            path,
		Extractor:       result.ExtractorName,
		Success:         true,
		DurationSeconds: duration,
		TextLength:      len(cleaned),
		FileSizeBytes:   fileSize,
	})
	return doc, nil
}
