package config

import (
	"fmt"
	"strings"
)

var (
	validAccessMethods = map[AccessMethod]bool{
		AccessLocal:            true,
		AccessOpenAICompatible: true,
		AccessHuggingFace:      true,
	}
	validProfiles = map[string]bool{
		"speed":      true,
		"memory":     true,
		"compromise": true,
		"quality":    true,
		"custom":     true,
	}
	validStrategies = map[string]bool{
		"fixed":      true,
		"recursive":  true,
		"semantic":   true,
		"llm_guided": true,
	}
	validSensitivities = map[string]bool{
		"public":       true,
		"interne":      true,
		"confidentiel": true,
		"secret":       true,
	}
	validBackends = map[string]bool{
		"qdrant":   true,
		"pgvector": true,
		"chroma":   true,
		"weaviate": true,
		"milvus":   true,
	}
	validMetrics = map[string]bool{
		"cosine": true,
		"l2":     true,
		"ip":     true,
	}
	validTabularFormats = map[string]bool{
		"markdown": true,
		"csv":      true,
		"json":     true,
	}
	validUnicodeForms = map[string]bool{
		"NFC":  true,
		"NFKC": true,
		"NFD":  true,
		"NFKD": true,
	}
	validOnInvalid = map[string]bool{
		"skip": true,
		"keep": true,
	}
	validSummaryFormats = map[string]bool{
		"json": true,
		"txt":  true,
		"md":   true,
	}
)

// Validate checks the merged configuration for structural and enum
// errors before the pipeline is assembled.
func Validate(cfg *Config) error {
	var errs []string

	if len(cfg.Global.Providers) == 0 {
		errs = append(errs, "global: providers section is required")
	}
	for name, p := range cfg.Global.Providers {
		if !validAccessMethods[p.AccessMethod] {
			errs = append(errs, fmt.Sprintf("provider %q: invalid access_method %q", name, p.AccessMethod))
		}
		if p.AccessMethod != AccessLocal && p.Endpoint == "" {
			errs = append(errs, fmt.Sprintf("provider %q: endpoint is required for access_method %q", name, p.AccessMethod))
		}
	}

	if len(cfg.Global.Stages) == 0 {
		errs = append(errs, "global: stages section is required")
	}
	for name := range cfg.Global.Stages {
		if !knownStage(name) {
			errs = append(errs, fmt.Sprintf("global: unknown stage %q", name))
		}
	}

	if !validProfiles[cfg.Extraction.Profile] {
		errs = append(errs, fmt.Sprintf("extraction: invalid profile %q", cfg.Extraction.Profile))
	}
	if cfg.Extraction.Profile == "custom" && len(cfg.Extraction.CustomExtractors) == 0 {
		errs = append(errs, "extraction: custom profile requires custom_extractors")
	}
	if !validTabularFormats[cfg.Extraction.Tabular.Format] {
		errs = append(errs, fmt.Sprintf("extraction: invalid tabular format %q", cfg.Extraction.Tabular.Format))
	}

	if !validStrategies[cfg.Chunking.Strategy] {
		errs = append(errs, fmt.Sprintf("chunking: invalid strategy %q", cfg.Chunking.Strategy))
	}
	if cfg.Chunking.ChunkSize <= 0 {
		errs = append(errs, "chunking: chunk_size must be positive")
	}
	if cfg.Chunking.Overlap < 0 || cfg.Chunking.Overlap >= cfg.Chunking.ChunkSize {
		errs = append(errs, "chunking: overlap must be in [0, chunk_size)")
	}
	if cfg.Chunking.Strategy == "llm_guided" && cfg.Chunking.LLM.Provider == "" {
		errs = append(errs, "chunking: llm_guided strategy requires llm.provider")
	}

	if !validSensitivities[cfg.Enrichment.DefaultSensitivity] {
		errs = append(errs, fmt.Sprintf("enrichment: invalid default_sensitivity %q", cfg.Enrichment.DefaultSensitivity))
	}
	if cfg.Enrichment.UseLLM && cfg.Enrichment.LLM.Provider == "" {
		errs = append(errs, "enrichment: use_llm requires llm.provider")
	}

	if !validSummaryFormats[cfg.Audit.Summary.Format] {
		errs = append(errs, fmt.Sprintf("audit: invalid summary format %q", cfg.Audit.Summary.Format))
	}

	if cfg.Embedding.Provider == "" {
		errs = append(errs, "embedding: provider is required")
	}
	if cfg.Embedding.Dimensions <= 0 {
		errs = append(errs, "embedding: dimensions must be positive")
	}
	if cfg.Embedding.BatchSize <= 0 {
		errs = append(errs, "embedding: batch_size must be positive")
	}

	if !validUnicodeForms[cfg.Normalization.UnicodeForm] {
		errs = append(errs, fmt.Sprintf("normalization: invalid unicode_form %q", cfg.Normalization.UnicodeForm))
	}
	if !validOnInvalid[cfg.Normalization.OnInvalid] {
		errs = append(errs, fmt.Sprintf("normalization: invalid on_invalid %q", cfg.Normalization.OnInvalid))
	}

	if !validBackends[cfg.Storage.Backend] {
		errs = append(errs, fmt.Sprintf("storage: invalid backend %q", cfg.Storage.Backend))
	}
	if !validMetrics[cfg.Storage.DistanceMetric] {
		errs = append(errs, fmt.Sprintf("storage: invalid distance_metric %q", cfg.Storage.DistanceMetric))
	}
	if cfg.Storage.Backend == "pgvector" && cfg.Storage.Pgvector.DSN == "" {
		errs = append(errs, "storage: pgvector backend requires pgvector.dsn")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func knownStage(name string) bool {
	for _, s := range StageNames {
		if s == name {
			return true
		}
	}
	return false
}
