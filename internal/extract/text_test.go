package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTextExtractorUTF8(t *testing.T) {
	path := writeTempFile(t, "note.txt", "héllo wörld, plain utf-8 content")
	e := NewTextExtractor()

	result := e.Extract(path)
	if !result.Success {
		t.Fatalf("extraction failed: %s", result.Error)
	}
	if result.Metadata["encoding"] != "utf-8" {
		t.Errorf("encoding = %v, want utf-8", result.Metadata["encoding"])
	}
	if result.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", result.Confidence)
	}
}

func TestTextExtractorLatin1(t *testing.T) {
	// "café" in Latin-1: 0xE9 is not valid UTF-8.
	data := []byte{'c', 'a', 'f', 0xE9}
	path := filepath.Join(t.TempDir(), "legacy.txt")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	result := NewTextExtractor().Extract(path)
	if !result.Success {
		t.Fatalf("extraction failed: %s", result.Error)
	}
	if result.Text != "café" {
		t.Errorf("text = %q, want café", result.Text)
	}
	if result.Metadata["encoding"] != "latin-1" {
		t.Errorf("encoding = %v, want latin-1", result.Metadata["encoding"])
	}
}

func TestTextExtractorUTF16(t *testing.T) {
	// "hi" in UTF-16LE with BOM.
	data := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	path := filepath.Join(t.TempDir(), "wide.txt")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	result := NewTextExtractor().Extract(path)
	if !result.Success {
		t.Fatalf("extraction failed: %s", result.Error)
	}
	if result.Text != "hi" {
		t.Errorf("text = %q, want hi", result.Text)
	}
	if result.Metadata["encoding"] != "utf-16" {
		t.Errorf("encoding = %v, want utf-16", result.Metadata["encoding"])
	}
}

func TestTextExtractorEmptyFileFails(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", " \n\t\n "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "empty.txt", tt.content)

			result := NewTextExtractor().Extract(path)
			if result.Success {
				t.Error("empty file should not extract successfully")
			}
			if result.Error == "" {
				t.Error("failure should carry a reason")
			}
		})
	}
}

func TestTextExtractorExtensions(t *testing.T) {
	e := NewTextExtractor()
	if !e.CanExtract("README.md") || !e.CanExtract("notes.TXT") {
		t.Error("expected text extensions to be handled")
	}
	if e.CanExtract("doc.pdf") {
		t.Error("pdf should not be handled by the text extractor")
	}
}
