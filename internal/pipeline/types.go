// Package pipeline defines the staged ingestion engine and the shared
// data model that flows between stages.
package pipeline

import "time"

// Document is the output of extraction: the full text of one source
// file plus extraction metadata.
type Document struct {
	// SourcePath is the absolute path of the ingested file.
	SourcePath string `json:"source_path"`

	// RelPath is the path relative to the input directory, preserved
	// through lifecycle moves and artifact snapshots.
	RelPath string `json:"rel_path"`

	// Text is the extracted plain text.
	Text string `json:"text"`

	// Extractor names the extractor that produced the text.
	Extractor string `json:"extractor"`

	// Confidence is the extractor's self-reported confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Metadata carries extractor-specific details such as page counts
	// and per-attempt timings.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Chunk is a slice of document text with accumulated metadata. The
// same type flows through chunking, enrichment, embedding, and
// normalization; each stage adds to Metadata or fills Embedding.
type Chunk struct {
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata"`
	Embedding []float32      `json:"embedding,omitempty"`
}

// CloneMetadata returns a shallow copy of the chunk's metadata map so
// a stage can modify it without aliasing upstream state.
func (c Chunk) CloneMetadata() map[string]any {
	meta := make(map[string]any, len(c.Metadata))
	for k, v := range c.Metadata {
		meta[k] = v
	}
	return meta
}

// PIIFinding aggregates occurrences of one PII category in one document.
type PIIFinding struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// AuditDocument summarizes one document inside an audit record.
type AuditDocument struct {
	SourcePath  string       `json:"source_path"`
	ContentHash string       `json:"content_hash,omitempty"`
	Chunks      int          `json:"chunks"`
	Sensitivity string       `json:"sensitivity,omitempty"`
	PIIFindings []PIIFinding `json:"pii_findings,omitempty"`
}

// PIISummary aggregates the PII scan across a whole run.
type PIISummary struct {
	TotalFound    int            `json:"total_pii_found"`
	ByCategory    map[string]int `json:"by_category,omitempty"`
	ChunksWithPII []int          `json:"chunks_with_pii,omitempty"`
}

// AuditRecord is one append-only entry in the audit trail describing a
// full ingestion run.
type AuditRecord struct {
	Timestamp          string          `json:"timestamp"`
	Operation          string          `json:"operation"`
	DocumentsProcessed int             `json:"documents_processed"`
	ChunksCreated      int             `json:"chunks_created"`
	Documents          []AuditDocument `json:"documents"`
	PII                *PIISummary     `json:"pii,omitempty"`
	Alerts             []string        `json:"alerts,omitempty"`
	Recommendations    []string        `json:"recommendations,omitempty"`
	Summary            string          `json:"summary,omitempty"`
}

// PIITotal returns the total number of PII occurrences across all
// documents in the record.
func (r *AuditRecord) PIITotal() int {
	total := 0
	for _, doc := range r.Documents {
		for _, f := range doc.PIIFindings {
			total += f.Count
		}
	}
	return total
}

// StorageReport summarizes the vector store write.
type StorageReport struct {
	Backend    string        `json:"backend"`
	Collection string        `json:"collection"`
	Stored     int           `json:"stored"`
	Failed     int           `json:"failed"`
	Deleted    int           `json:"deleted"`
	Sources    []string      `json:"sources"`
	Duration   time.Duration `json:"duration"`
}
