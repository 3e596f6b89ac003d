package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveJSONPreservesSubpath(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	path, err := w.SaveJSON("extracted", filepath.Join("reports", "q1.pdf"), map[string]string{"text": "hello"})
	if err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	want := filepath.Join(dir, "extracted", "reports", "q1.json")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if decoded["text"] != "hello" {
		t.Errorf("unexpected content %v", decoded)
	}
}

func TestSaveJSONResolvesCollisions(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	first, err := w.SaveJSON("chunks", "doc.txt", []int{1})
	if err != nil {
		t.Fatal(err)
	}
	second, err := w.SaveJSON("chunks", "doc.txt", []int{2})
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Fatalf("collision not resolved: both wrote %s", first)
	}
	if !strings.HasSuffix(second, "doc_1.json") {
		t.Errorf("expected numeric suffix, got %s", second)
	}
}

func TestSaveJSONTimestamped(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, true)

	path, err := w.SaveJSON("extracted", "doc.txt", "x")
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "doc_") || !strings.HasSuffix(base, ".json") {
		t.Errorf("expected timestamped name, got %s", base)
	}
}
