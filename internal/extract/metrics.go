package extract

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/docpipe/docpipe/internal/fsutil"
)

// DocumentMetric records one completed (or failed) document.
type DocumentMetric struct {
	Path            string  `json:"path"`
	Extractor       string  `json:"extractor,omitempty"`
	Success         bool    `json:"success"`
	DurationSeconds float64 `json:"duration_seconds"`
	TextLength      int     `json:"text_length"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
}

// ExtractorStats aggregates per-extractor counts and times.
type ExtractorStats struct {
	Documents    int     `json:"documents"`
	TotalSeconds float64 `json:"total_seconds"`
	Characters   int     `json:"characters"`
}

// SessionSummary is the JSON written at session end.
type SessionSummary struct {
	GeneratedAt     string                    `json:"generated_at"`
	SessionSeconds  float64                   `json:"session_seconds"`
	TotalDocuments  int                       `json:"total_documents"`
	Succeeded       int                       `json:"succeeded"`
	Failed          int                       `json:"failed"`
	TotalCharacters int                       `json:"total_characters"`
	PeakRSSKB       int64                     `json:"peak_rss_kb,omitempty"`
	PerExtractor    map[string]ExtractorStats `json:"per_extractor"`
}

// MetricsCollector accumulates per-document extraction metrics for one
// session.
type MetricsCollector struct {
	mu      sync.Mutex
	started time.Time
	docs    []DocumentMetric
}

// NewMetricsCollector creates a collector with the session clock
// started.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{started: time.Now()}
}

// Record adds one document metric.
func (c *MetricsCollector) Record(m DocumentMetric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, m)
}

// Summary builds the session summary from everything recorded so far.
func (c *MetricsCollector) Summary() SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := SessionSummary{
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		SessionSeconds: time.Since(c.started).Seconds(),
		TotalDocuments: len(c.docs),
		PeakRSSKB:      peakRSSKB(),
		PerExtractor:   make(map[string]ExtractorStats),
	}

	for _, m := range c.docs {
		if m.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.TotalCharacters += m.TextLength

		if m.Extractor == "" {
			continue
		}
		stats := summary.PerExtractor[m.Extractor]
		stats.Documents++
		stats.TotalSeconds += m.DurationSeconds
		stats.Characters += m.TextLength
		summary.PerExtractor[m.Extractor] = stats
	}
	return summary
}

// WriteSummary persists the session summary as JSON.
func (c *MetricsCollector) WriteSummary(path string) error {
	data, err := json.MarshalIndent(c.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics summary; %w", err)
	}
	if err := fsutil.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics summary; %w", err)
	}
	return nil
}

// peakRSSKB reads the process peak resident set size from
// /proc/self/status. Returns 0 where the platform does not expose it.
func peakRSSKB() int64 {
	file, err := os.Open("/proc/self/status")
	if err != nil {
		return 0
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmHWM:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb
	}
	return 0
}
