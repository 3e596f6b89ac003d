// Package artifacts persists optional JSON snapshots of intermediate
// pipeline outputs under the output directory.
package artifacts

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/fsutil"
)

// Writer persists JSON artifacts under <output_dir>/<category>/,
// preserving each source file's input-relative subpath.
type Writer struct {
	outputDir string
	timestamp bool
}

// NewWriter creates an artifact writer rooted at outputDir. With
// timestamp enabled, filenames carry the write time so re-ingests do
// not overwrite earlier snapshots.
func NewWriter(outputDir string, timestamp bool) *Writer {
	return &Writer{outputDir: outputDir, timestamp: timestamp}
}

// SaveJSON marshals v and writes it to
// <output_dir>/<category>/<relPath stem>[_timestamp].json, resolving
// name collisions with a numeric suffix. The written path is returned.
func (w *Writer) SaveJSON(category, relPath string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact; %w", err)
	}

	dir := filepath.Join(w.outputDir, category, filepath.Dir(relPath))
	stem := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	if w.timestamp {
		stem += "_" + time.Now().UTC().Format("20060102T150405Z")
	}

	path := fsutil.UniquePath(filepath.Join(dir, stem+".json"))
	if err := fsutil.AtomicWriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact; %w", err)
	}
	return path, nil
}
