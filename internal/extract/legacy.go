package extract

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf16"
)

// LegacyOfficeExtractor scavenges readable text from pre-OOXML binary
// office formats (.doc, .xls, .ppt). It scans for printable runs in
// both single-byte and UTF-16LE encodings. Output quality is low, so
// it sits last in every chain.
type LegacyOfficeExtractor struct {
	exts extensionSet
}

var _ Extractor = (*LegacyOfficeExtractor)(nil)

// NewLegacyOfficeExtractor creates the legacy office extractor.
func NewLegacyOfficeExtractor() *LegacyOfficeExtractor {
	return &LegacyOfficeExtractor{exts: newExtensionSet(".doc", ".xls", ".ppt", ".rtf")}
}

func (e *LegacyOfficeExtractor) Name() string                { return "office_legacy" }
func (e *LegacyOfficeExtractor) Available() bool             { return true }
func (e *LegacyOfficeExtractor) CanExtract(path string) bool { return e.exts.contains(path) }

const minRunLength = 4

func (e *LegacyOfficeExtractor) Extract(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Failure(e.Name(), fmt.Sprintf("read failed: %v", err))
	}

	runs := printableRuns(data, minRunLength)
	runs = append(runs, utf16Runs(data, minRunLength)...)
	text := strings.Join(runs, "\n")
	if strings.TrimSpace(text) == "" {
		return Failure(e.Name(), "no readable text found")
	}

	result := Result{
		Text:       text,
		Success:    true,
		Confidence: 0.3,
	}
	result.SetMeta("file_size", len(data))
	result.SetMeta("run_count", len(runs))
	return result
}

// printableRuns collects maximal runs of printable Latin-1 bytes.
func printableRuns(data []byte, minLen int) []string {
	var runs []string
	var current []rune

	flush := func() {
		if len(current) >= minLen {
			runs = append(runs, strings.TrimSpace(string(current)))
		}
		current = current[:0]
	}

	for _, b := range data {
		r := rune(b)
		if r == '\t' || r == ' ' || (unicode.IsPrint(r) && r < 0x7F) || (r >= 0xC0 && r <= 0xFF) {
			current = append(current, r)
		} else {
			flush()
		}
	}
	flush()
	return runs
}

// utf16Runs collects runs of printable UTF-16LE code units, which is
// how newer .doc files store body text.
func utf16Runs(data []byte, minLen int) []string {
	var runs []string
	var current []uint16

	flush := func() {
		if len(current) >= minLen {
			runs = append(runs, strings.TrimSpace(string(utf16.Decode(current))))
		}
		current = current[:0]
	}

	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		r := rune(u)
		if u != 0 && u < 0xD800 && (unicode.IsPrint(r) || r == '\t' || r == ' ') {
			current = append(current, u)
		} else {
			flush()
		}
	}
	flush()
	return runs
}
