package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// TextExtractor reads plain-text files, auto-detecting the encoding by
// trying an ordered ladder: UTF-8, BOM-marked UTF-16, Latin-1.
type TextExtractor struct {
	exts extensionSet
}

var _ Extractor = (*TextExtractor)(nil)

// NewTextExtractor creates the plain-text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{
		exts: newExtensionSet(".txt", ".text", ".md", ".markdown", ".rst", ".log"),
	}
}

func (e *TextExtractor) Name() string                { return "text" }
func (e *TextExtractor) Available() bool             { return true }
func (e *TextExtractor) CanExtract(path string) bool { return e.exts.contains(path) }

func (e *TextExtractor) Extract(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("read failed: %v", err))
	}

	text, encoding, confidence := decodeText(data)
	if strings.TrimSpace(text) == "" {
		return Failure(e.Name(), "file contains no text")
	}
	result := Result{
		Text:       text,
		Success:    true,
		Confidence: confidence,
	}
	result.SetMeta("encoding", encoding)
	result.SetMeta("file_size", len(data))
	return result
}

// decodeText tries each encoding in order and reports which one was
// used. Latin-1 decoding is total, so the ladder always terminates.
func decodeText(data []byte) (text, encoding string, confidence float64) {
	if utf8.Valid(data) {
		return string(data), "utf-8", 1.0
	}

	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if decoded, err := dec.Bytes(data); err == nil && utf8.Valid(decoded) {
			return string(decoded), "utf-16", 0.9
		}
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// Last resort: replace invalid sequences.
		return string(bytes.ToValidUTF8(data, []byte("�"))), "replacement", 0.5
	}
	return string(decoded), "latin-1", 0.7
}
