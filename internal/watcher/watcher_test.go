package watcher

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanSkipsHidden(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.txt")
	write(filepath.Join("sub", "b.txt"))
	write(".hidden.txt")
	write(filepath.Join(".git", "config"))

	files, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %v", len(files), files)
	}
	for _, file := range files {
		base := filepath.Base(file)
		if base != "a.txt" && base != "b.txt" {
			t.Errorf("unexpected file %s", file)
		}
	}
}

func TestScanMissingDir(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}
