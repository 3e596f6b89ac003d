package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/logging"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/providers"
)

// sensitivityRank orders labels from least to most restricted so a
// document reports its most sensitive chunk.
var sensitivityRank = map[string]int{
	"public":       0,
	"interne":      1,
	"confidentiel": 2,
	"secret":       3,
}

// Stage is the audit pipeline stage. It emits one trail record per
// run and optionally attaches an LLM narrative summary.
type Stage struct {
	cfg    config.AuditConfig
	trail  *Trail
	llm    providers.LLMClient
	logger *slog.Logger
	now    func() time.Time
}

var _ pipeline.Stage = (*Stage)(nil)

// NewStage creates the audit stage. The LLM client may be nil; the
// narrative summary is then skipped.
func NewStage(cfg config.AuditConfig, llm providers.LLMClient, logger *slog.Logger) *Stage {
	return &Stage{
		cfg:    cfg,
		trail:  NewTrail(cfg.TrailPath),
		llm:    llm,
		logger: logger.With("component", "audit"),
		now:    time.Now,
	}
}

func (s *Stage) Name() string { return "audit" }

func (s *Stage) ValidateConfig() error {
	if s.cfg.TrailPath == "" {
		return fmt.Errorf("trail_path is required")
	}
	if s.cfg.Summary.Enabled && s.cfg.Summary.LLM.Provider == "" {
		return fmt.Errorf("summary.enabled requires summary.llm.provider")
	}
	return nil
}

// Execute builds the run's audit record, scans for PII, and appends
// the record to the trail.
func (s *Stage) Execute(ctx context.Context, board *pipeline.Blackboard) error {
	chunks := board.ActiveChunks()
	record := s.buildRecord(chunks)

	if s.cfg.PII.Enabled {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		report := ScanChunks(texts)

		record.PII = &pipeline.PIISummary{
			TotalFound:    report.Total,
			ByCategory:    report.ByCategory,
			ChunksWithPII: report.ChunksWithPII,
		}
		record.Recommendations = report.Recommendations()
		s.attachFindings(record, chunks)

		if report.Critical() {
			alert := fmt.Sprintf("critical PII detected: %d payment card(s), %d social security number(s)",
				report.ByCategory[CategoryCard], report.ByCategory[CategoryNIR])
			record.Alerts = append(record.Alerts, alert)
			s.logger.Log(ctx, logging.LevelCritical, alert)
		}
	}

	if s.cfg.Summary.Enabled && s.llm != nil && s.llm.Available() {
		summary, err := Narrate(ctx, s.llm, s.cfg.Summary.LLM, record)
		if err != nil {
			s.logger.Warn("narrative summary failed", "error", err)
			board.AddWarning("audit summary generation failed")
		} else {
			record.Summary = summary
			if s.cfg.Summary.Persist {
				path, err := PersistSummary(s.cfg.Summary, record, s.now())
				if err != nil {
					s.logger.Warn("failed to persist summary", "error", err)
				} else {
					s.logger.Info("audit summary written", "path", path)
				}
			}
		}
	}

	if err := s.trail.Append(record); err != nil {
		return err
	}

	s.logger.Info("audit record appended",
		"path", s.trail.Path(),
		"documents", record.DocumentsProcessed,
		"chunks", record.ChunksCreated,
		"pii_found", record.PIITotal(),
	)
	board.AuditRecord = record
	return nil
}

// buildRecord groups chunks by source file.
func (s *Stage) buildRecord(chunks []pipeline.Chunk) *pipeline.AuditRecord {
	perSource := make(map[string]*pipeline.AuditDocument)
	var order []string

	for _, chunk := range chunks {
		src, _ := chunk.Metadata["source_file"].(string)
		doc, ok := perSource[src]
		if !ok {
			doc = &pipeline.AuditDocument{SourcePath: src}
			perSource[src] = doc
			order = append(order, src)
		}
		doc.Chunks++

		if hash, ok := chunk.Metadata["content_hash"].(string); ok && doc.ContentHash == "" {
			doc.ContentHash = hash
		}
		if label, ok := chunk.Metadata["sensitivity"].(string); ok {
			if sensitivityRank[label] >= sensitivityRank[doc.Sensitivity] {
				doc.Sensitivity = label
			}
		}
	}

	record := &pipeline.AuditRecord{
		Timestamp:          s.now().UTC().Format(time.RFC3339),
		Operation:          "ingestion",
		DocumentsProcessed: len(order),
		ChunksCreated:      len(chunks),
	}
	for _, src := range order {
		record.Documents = append(record.Documents, *perSource[src])
	}
	return record
}

// attachFindings distributes per-chunk scan counts onto the per-source
// document entries.
func (s *Stage) attachFindings(record *pipeline.AuditRecord, chunks []pipeline.Chunk) {
	perSource := make(map[string]map[string]int)
	for _, chunk := range chunks {
		counts := ScanText(chunk.Text)
		if len(counts) == 0 {
			continue
		}
		src, _ := chunk.Metadata["source_file"].(string)
		if perSource[src] == nil {
			perSource[src] = make(map[string]int)
		}
		for category, n := range counts {
			perSource[src][category] += n
		}
	}

	for i := range record.Documents {
		counts := perSource[record.Documents[i].SourcePath]
		for _, category := range scanOrder {
			if counts[category] > 0 {
				record.Documents[i].PIIFindings = append(record.Documents[i].PIIFindings, pipeline.PIIFinding{
					Category: category,
					Count:    counts[category],
				})
			}
		}
	}
}
