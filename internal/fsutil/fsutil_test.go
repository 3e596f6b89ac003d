package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashBytes(t *testing.T) {
	// Known SHA-256 of "hello"
	expected := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := HashBytes([]byte("hello")); got != expected {
		t.Errorf("HashBytes(hello) = %s, want %s", got, expected)
	}
}

func TestHashParts(t *testing.T) {
	joined := HashString("abc|prov|model")
	if got := HashParts("abc", "prov", "model"); got != joined {
		t.Errorf("HashParts mismatch: %s != %s", got, joined)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if got != HashBytes([]byte("hello")) {
		t.Errorf("HashFile disagrees with HashBytes")
	}
}

func TestAtomicWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "out.json")
	if err := AtomicWriteFile(path, []byte(`{"a":1}`), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("unexpected content %q", data)
	}

	// No temp files left behind
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, found %d", len(entries))
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")

	if got := UniquePath(path); got != path {
		t.Errorf("expected %s, got %s", path, got)
	}

	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got := UniquePath(path); got != filepath.Join(dir, "doc_1.pdf") {
		t.Errorf("expected doc_1.pdf, got %s", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "doc_1.pdf"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got := UniquePath(path); got != filepath.Join(dir, "doc_2.pdf") {
		t.Errorf("expected doc_2.pdf, got %s", got)
	}
}

func TestRelativeTo(t *testing.T) {
	if got := RelativeTo("/watch", "/watch/a/b.txt"); got != filepath.Join("a", "b.txt") {
		t.Errorf("unexpected rel path %s", got)
	}
	if got := RelativeTo("/watch", "/elsewhere/b.txt"); got != "b.txt" {
		t.Errorf("expected bare name, got %s", got)
	}
}
