package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/fsutil"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/providers"
)

// fillSummaryPrompt substitutes audit record fields into the narrative
// template.
func fillSummaryPrompt(template string, record *pipeline.AuditRecord) string {
	replacer := strings.NewReplacer(
		"{timestamp}", record.Timestamp,
		"{operation}", record.Operation,
		"{documents_processed}", strconv.Itoa(record.DocumentsProcessed),
		"{chunks_created}", strconv.Itoa(record.ChunksCreated),
		"{pii_total}", strconv.Itoa(record.PIITotal()),
	)
	return replacer.Replace(template)
}

// Narrate asks the LLM for a narrative summary of the record.
func Narrate(ctx context.Context, llm providers.LLMClient, cfg config.LLMCallConfig, record *pipeline.AuditRecord) (string, error) {
	template := cfg.PromptTemplate
	if template == "" {
		template = config.DefaultSummaryPrompt
	}

	reply, err := llm.Complete(ctx, providers.CompletionRequest{
		Model:       cfg.Model,
		Prompt:      fillSummaryPrompt(template, record),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summary call failed; %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// summaryDocument is the JSON persistence shape.
type summaryDocument struct {
	GeneratedAt string                `json:"generated_at"`
	Summary     string                `json:"summary"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
	Record      *pipeline.AuditRecord `json:"record,omitempty"`
}

// PersistSummary writes the narrative summary in the configured format.
// The filename template accepts {timestamp} and {format}; collisions
// get a numeric suffix. Returns the written path.
func PersistSummary(cfg config.SummaryConfig, record *pipeline.AuditRecord, now time.Time) (string, error) {
	format := cfg.Format
	if format == "" {
		format = config.DefaultSummaryFormat
	}
	template := cfg.FilenameTemplate
	if template == "" {
		template = config.DefaultSummaryFilenameTemplate
	}
	dir := cfg.Dir
	if dir == "" {
		dir = config.DefaultSummaryDir
	}

	stamp := now.UTC().Format("20060102_150405")
	name := strings.NewReplacer("{timestamp}", stamp, "{format}", format).Replace(template)

	var payload []byte
	switch format {
	case "json":
		doc := summaryDocument{
			GeneratedAt: now.UTC().Format(time.RFC3339),
			Summary:     record.Summary,
		}
		if cfg.IncludeMetadata {
			doc.Metadata = map[string]any{
				"operation":           record.Operation,
				"documents_processed": record.DocumentsProcessed,
				"chunks_created":      record.ChunksCreated,
				"total_pii_found":     record.PIITotal(),
			}
		}
		if cfg.IncludeRecord {
			doc.Record = record
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal summary; %w", err)
		}
		payload = data
	case "txt":
		payload = []byte(record.Summary + "\n")
	case "md":
		var b strings.Builder
		b.WriteString("# Audit Summary\n\n")
		fmt.Fprintf(&b, "Generated: %s\n\n", now.UTC().Format(time.RFC3339))
		b.WriteString(record.Summary)
		b.WriteString("\n")
		if cfg.IncludeMetadata {
			b.WriteString("\n## Run\n\n")
			fmt.Fprintf(&b, "- Operation: %s\n", record.Operation)
			fmt.Fprintf(&b, "- Documents processed: %d\n", record.DocumentsProcessed)
			fmt.Fprintf(&b, "- Chunks created: %d\n", record.ChunksCreated)
			fmt.Fprintf(&b, "- PII found: %d\n", record.PIITotal())
		}
		payload = []byte(b.String())
	default:
		return "", fmt.Errorf("unknown summary format %q", format)
	}

	if err := fsutil.EnsureDir(dir); err != nil {
		return "", err
	}
	path := fsutil.UniquePath(filepath.Join(dir, name))
	if err := fsutil.AtomicWriteFile(path, payload, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
