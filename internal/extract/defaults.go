package extract

import "github.com/docpipe/docpipe/internal/config"

// BuildRegistry registers every built-in extractor with its
// stage-level configuration. The vision client may be nil, which
// leaves the vlm extractor unavailable.
func BuildRegistry(cfg config.ExtractionConfig, vision VisionCompleter) *Registry {
	registry := NewRegistry()
	registry.Register(NewTextExtractor())
	registry.Register(NewTabularExtractor(cfg.Tabular))
	registry.Register(NewHTMLExtractor(cfg.HTML))
	registry.Register(NewDocxExtractor())
	registry.Register(NewPptxExtractor())
	registry.Register(NewPDFExtractor())
	registry.Register(NewOCRExtractor(cfg.OCR))
	registry.Register(NewVLMExtractor(cfg.VLM, vision))
	registry.Register(NewLegacyOfficeExtractor())
	return registry
}
