package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/docpipe/docpipe/internal/pipeline"
)

// Trail appends audit records to a JSONL file, one record per line.
// Parent directories are created on first write.
type Trail struct {
	mu   sync.Mutex
	path string
}

// NewTrail creates a trail writer for the given path.
func NewTrail(path string) *Trail {
	return &Trail{path: path}
}

// Path returns the trail file location.
func (t *Trail) Path() string { return t.path }

// Append writes one record as a single JSON line.
func (t *Trail) Append(record *pipeline.AuditRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit trail directory; %w", err)
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record; %w", err)
	}

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit trail; %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append audit record; %w", err)
	}
	return nil
}
