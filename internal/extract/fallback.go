package extract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/config"
)

// profileChains maps each extraction profile to its ordered extractor
// names. Extensions may appear in several extractors; the first
// validated result wins.
var profileChains = map[string][]string{
	"speed":      {"text", "tabular", "html", "docx", "pptx", "pdf", "office_legacy"},
	"memory":     {"text", "tabular", "html", "docx", "pptx", "pdf"},
	"compromise": {"text", "tabular", "html", "docx", "pptx", "pdf", "ocr", "office_legacy"},
	"quality":    {"text", "tabular", "html", "docx", "pptx", "pdf", "ocr", "vlm", "office_legacy"},
}

// visionExtractors are filtered out when use_vlm is false.
var visionExtractors = map[string]bool{"vlm": true}

// FallbackManager tries extractors in profile order until one produces
// a validated result.
type FallbackManager struct {
	chain  []Extractor
	policy ValidationPolicy
	logger *slog.Logger
}

// NewFallbackManager builds the chain for the configured profile from
// the registry. Unknown names in a custom chain are an error;
// unavailable extractors are dropped with a log line.
func NewFallbackManager(registry *Registry, cfg config.ExtractionConfig, logger *slog.Logger) (*FallbackManager, error) {
	names, ok := profileChains[cfg.Profile]
	if !ok {
		if cfg.Profile != "custom" {
			return nil, fmt.Errorf("unknown extraction profile %q", cfg.Profile)
		}
		names = cfg.CustomExtractors
	}

	logger = logger.With("component", "extract")

	var chain []Extractor
	for _, name := range names {
		if !cfg.UseVLM && visionExtractors[name] {
			continue
		}
		e, found := registry.Get(name)
		if !found {
			if cfg.Profile == "custom" {
				return nil, fmt.Errorf("unknown extractor %q in custom chain", name)
			}
			continue
		}
		if !e.Available() {
			logger.Info("extractor unavailable, dropped from chain", "extractor", name)
			continue
		}
		chain = append(chain, e)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("extraction chain for profile %q is empty", cfg.Profile)
	}

	return &FallbackManager{
		chain: chain,
		policy: ValidationPolicy{
			MinTextLength: cfg.MinTextLength,
			MinConfidence: cfg.MinConfidence,
		},
		logger: logger,
	}, nil
}

// Chain returns the names of the active extractors in order.
func (m *FallbackManager) Chain() []string {
	names := make([]string, len(m.chain))
	for i, e := range m.chain {
		names[i] = e.Name()
	}
	return names
}

// ExtractFile runs the fallback chain on one file. The first validated
// result is returned; if every candidate fails, the error lists each
// attempt's reason.
func (m *FallbackManager) ExtractFile(path string) (Result, error) {
	var attempts []string

	for _, e := range m.chain {
		if !e.CanExtract(path) {
			continue
		}

		start := time.Now()
		result := e.Extract(path)
		elapsed := time.Since(start)
		result.SetMeta("extraction_time_seconds", elapsed.Seconds())
		result.ExtractorName = e.Name()

		if m.policy.Validate(result) {
			m.logger.Debug("extraction succeeded",
				"path", path,
				"extractor", e.Name(),
				"chars", len(result.Text),
				"duration", elapsed,
			)
			return result, nil
		}

		reason := result.Error
		if reason == "" {
			reason = fmt.Sprintf("result rejected (chars=%d, confidence=%.2f)",
				len(strings.TrimSpace(result.Text)), result.Confidence)
		}
		attempts = append(attempts, fmt.Sprintf("%s: %s", e.Name(), reason))
		m.logger.Debug("extraction attempt failed",
			"path", path,
			"extractor", e.Name(),
			"reason", reason,
		)
	}

	if len(attempts) == 0 {
		return Result{}, fmt.Errorf("no extractor handles %q", path)
	}
	return Result{}, fmt.Errorf("all extractors failed for %q: [%s]", path, strings.Join(attempts, "; "))
}
