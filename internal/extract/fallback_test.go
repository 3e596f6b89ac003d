package extract

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/docpipe/docpipe/internal/config"
)

type stubExtractor struct {
	name      string
	exts      extensionSet
	result    Result
	available bool
	calls     int
}

func (s *stubExtractor) Name() string                { return s.name }
func (s *stubExtractor) Available() bool             { return s.available }
func (s *stubExtractor) CanExtract(path string) bool { return s.exts.contains(path) }

func (s *stubExtractor) Extract(path string) Result {
	s.calls++
	return s.result
}

func customConfig(names ...string) config.ExtractionConfig {
	return config.ExtractionConfig{
		Profile:          "custom",
		CustomExtractors: names,
		MinTextLength:    5,
		MinConfidence:    0.5,
	}
}

func TestFallbackFirstValidatedWins(t *testing.T) {
	weak := &stubExtractor{
		name: "weak", available: true,
		exts:   newExtensionSet(".pdf"),
		result: Result{Text: "short", Success: true, Confidence: 0.1},
	}
	strong := &stubExtractor{
		name: "strong", available: true,
		exts:   newExtensionSet(".pdf"),
		result: Result{Text: "plenty of extracted text", Success: true, Confidence: 0.9},
	}
	never := &stubExtractor{
		name: "never", available: true,
		exts:   newExtensionSet(".pdf"),
		result: Result{Text: "also fine text here", Success: true, Confidence: 0.9},
	}

	registry := NewRegistry()
	registry.Register(weak)
	registry.Register(strong)
	registry.Register(never)

	m, err := NewFallbackManager(registry, customConfig("weak", "strong", "never"), slog.Default())
	if err != nil {
		t.Fatalf("NewFallbackManager failed: %v", err)
	}

	result, err := m.ExtractFile("doc.pdf")
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if result.ExtractorName != "strong" {
		t.Errorf("winner = %s, want strong", result.ExtractorName)
	}
	if never.calls != 0 {
		t.Error("chain should stop at the first validated result")
	}
	if _, ok := result.Metadata["extraction_time_seconds"]; !ok {
		t.Error("attempt timing missing from metadata")
	}
}

func TestFallbackAllFailedListsReasons(t *testing.T) {
	a := &stubExtractor{
		name: "a", available: true,
		exts:   newExtensionSet(".pdf"),
		result: Failure("a", "corrupt header"),
	}
	b := &stubExtractor{
		name: "b", available: true,
		exts:   newExtensionSet(".pdf"),
		result: Failure("b", "no text layer"),
	}

	registry := NewRegistry()
	registry.Register(a)
	registry.Register(b)

	m, err := NewFallbackManager(registry, customConfig("a", "b"), slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.ExtractFile("doc.pdf")
	if err == nil {
		t.Fatal("expected error when every extractor fails")
	}
	msg := err.Error()
	if !strings.Contains(msg, "corrupt header") || !strings.Contains(msg, "no text layer") {
		t.Errorf("error should list per-attempt reasons: %v", err)
	}
}

func TestFallbackSkipsUnavailableExtractors(t *testing.T) {
	offline := &stubExtractor{name: "offline", exts: newExtensionSet(".pdf"), available: false}
	online := &stubExtractor{
		name: "online", available: true,
		exts:   newExtensionSet(".pdf"),
		result: Result{Text: "extracted document text", Success: true, Confidence: 0.9},
	}

	registry := NewRegistry()
	registry.Register(offline)
	registry.Register(online)

	m, err := NewFallbackManager(registry, customConfig("offline", "online"), slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	chain := m.Chain()
	if len(chain) != 1 || chain[0] != "online" {
		t.Errorf("chain = %v, want [online]", chain)
	}
}

func TestFallbackVLMFilter(t *testing.T) {
	vlm := &stubExtractor{name: "vlm", exts: newExtensionSet(".png"), available: true}
	ocr := &stubExtractor{name: "ocr", exts: newExtensionSet(".png"), available: true}

	registry := NewRegistry()
	registry.Register(vlm)
	registry.Register(ocr)

	cfg := customConfig("vlm", "ocr")
	cfg.UseVLM = false
	m, err := NewFallbackManager(registry, cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range m.Chain() {
		if name == "vlm" {
			t.Error("vlm should be filtered out when use_vlm is false")
		}
	}
}

func TestFallbackNoCandidate(t *testing.T) {
	pdfOnly := &stubExtractor{
		name: "pdf", available: true,
		exts:   newExtensionSet(".pdf"),
		result: Result{Text: "some pdf text here", Success: true, Confidence: 0.9},
	}
	registry := NewRegistry()
	registry.Register(pdfOnly)

	m, err := NewFallbackManager(registry, customConfig("pdf"), slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.ExtractFile("image.xyz"); err == nil {
		t.Error("expected error for a file no extractor handles")
	}
}

func TestValidationPolicy(t *testing.T) {
	policy := ValidationPolicy{MinTextLength: 10, MinConfidence: 0.5}

	tests := []struct {
		name   string
		result Result
		want   bool
	}{
		{"valid", Result{Text: "enough text to pass", Success: true, Confidence: 0.8}, true},
		{"failed", Result{Text: "", Success: false, Confidence: 0.8}, false},
		{"too short", Result{Text: "hi", Success: true, Confidence: 0.8}, false},
		{"whitespace only", Result{Text: "                    ", Success: true, Confidence: 0.8}, false},
		{"low confidence", Result{Text: "enough text to pass", Success: true, Confidence: 0.2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Validate(tt.result); got != tt.want {
				t.Errorf("Validate = %v, want %v", got, tt.want)
			}
		})
	}
}
