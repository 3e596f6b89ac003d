package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// stageFiles maps each optional per-stage config file (without
// extension) to the key its contents are merged under.
var stageFiles = []string{
	"extraction",
	"chunking",
	"enrichment",
	"audit",
	"embedding",
	"normalization",
	"storage",
	"lifecycle",
}

// Load reads the configuration directory. global.yaml is required;
// each per-stage file is optional and merges over built-in defaults.
// ${VAR} references are expanded from the environment before parsing.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	globalPath := filepath.Join(configDir, "global.yaml")
	globalDoc, err := readYAMLFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load required config %q; %w", globalPath, err)
	}
	if err := v.MergeConfigMap(map[string]any{"global": globalDoc}); err != nil {
		return nil, fmt.Errorf("failed to merge global config; %w", err)
	}

	for _, name := range stageFiles {
		path := filepath.Join(configDir, name+".yaml")
		doc, err := readYAMLFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to load config %q; %w", path, err)
		}
		if err := v.MergeConfigMap(map[string]any{name: doc}); err != nil {
			return nil, fmt.Errorf("failed to merge config %q; %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config; %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readYAMLFile reads a YAML file, expands ${VAR} references, and
// decodes it into a generic map for viper merging.
func readYAMLFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded, err := ExpandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("in %q; %w", path, err)
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(expanded, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML; %w", err)
	}
	return doc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("global.log_level", DefaultLogLevel)
	v.SetDefault("global.log_file", DefaultLogFile)
	v.SetDefault("global.paths.input_dir", DefaultInputDir)
	v.SetDefault("global.paths.processed_dir", DefaultProcessedDir)
	v.SetDefault("global.paths.errors_dir", DefaultErrorsDir)
	v.SetDefault("global.paths.output_dir", DefaultOutputDir)
	v.SetDefault("global.performance.max_workers", DefaultMaxWorkers)
	v.SetDefault("global.regulatory.frameworks", DefaultRegulatoryFrameworks)
	v.SetDefault("global.watch.interval_seconds", DefaultWatchIntervalSeconds)

	v.SetDefault("extraction.profile", DefaultExtractionProfile)
	v.SetDefault("extraction.min_text_length", DefaultMinTextLength)
	v.SetDefault("extraction.min_confidence", DefaultMinConfidence)
	v.SetDefault("extraction.max_workers", DefaultMaxWorkers)
	v.SetDefault("extraction.cleaning.normalize_whitespace", true)
	v.SetDefault("extraction.cleaning.remove_blank_lines", true)
	v.SetDefault("extraction.ocr.languages", []string{"fra", "eng"})
	v.SetDefault("extraction.ocr.page_seg_mode", DefaultOCRPageSegMode)
	v.SetDefault("extraction.ocr.dpi", DefaultOCRDPI)
	v.SetDefault("extraction.tabular.format", DefaultTabularFormat)

	v.SetDefault("chunking.strategy", DefaultChunkStrategy)
	v.SetDefault("chunking.chunk_size", DefaultChunkSize)
	v.SetDefault("chunking.overlap", DefaultChunkOverlap)
	v.SetDefault("chunking.separators", DefaultSeparators)
	v.SetDefault("chunking.min_chunk_size", DefaultMinChunkSize)
	v.SetDefault("chunking.max_chunk_size", DefaultMaxChunkSize)
	v.SetDefault("chunking.drop_empty", true)
	v.SetDefault("chunking.semantic.similarity_threshold", DefaultSimilarityThreshold)
	v.SetDefault("chunking.llm.temperature", 0.0)
	v.SetDefault("chunking.llm.max_tokens", 1024)
	v.SetDefault("chunking.llm.single_call_budget", DefaultSingleCallBudget)
	v.SetDefault("chunking.llm.prompt_template", DefaultBoundaryPrompt)

	v.SetDefault("enrichment.default_sensitivity", DefaultSensitivity)
	v.SetDefault("enrichment.sensitive_keywords", DefaultSensitiveKeywords)
	v.SetDefault("enrichment.llm.prompt_template", DefaultSensitivityPrompt)
	v.SetDefault("enrichment.llm.max_tokens", 8)
	v.SetDefault("enrichment.rate_limit.delay_between_requests", DefaultDelayBetweenRequests)
	v.SetDefault("enrichment.rate_limit.max_retries", DefaultMaxRetries)
	v.SetDefault("enrichment.rate_limit.retry_delay_base", DefaultRetryDelayBase)
	v.SetDefault("enrichment.rate_limit.exponential", true)

	v.SetDefault("audit.trail_path", DefaultAuditTrailPath)
	v.SetDefault("audit.pii.enabled", true)
	v.SetDefault("audit.summary.format", DefaultSummaryFormat)
	v.SetDefault("audit.summary.dir", DefaultSummaryDir)
	v.SetDefault("audit.summary.filename_template", DefaultSummaryFilenameTemplate)
	v.SetDefault("audit.summary.llm.prompt_template", DefaultSummaryPrompt)
	v.SetDefault("audit.summary.llm.max_tokens", 512)
	v.SetDefault("audit.summary.include_metadata", true)

	v.SetDefault("embedding.provider", DefaultEmbeddingProvider)
	v.SetDefault("embedding.model", DefaultEmbeddingModel)
	v.SetDefault("embedding.dimensions", DefaultEmbeddingDimensions)
	v.SetDefault("embedding.batch_size", DefaultEmbeddingBatchSize)
	v.SetDefault("embedding.max_text_length", DefaultMaxTextLength)
	v.SetDefault("embedding.cache.dir", DefaultCacheDir)
	v.SetDefault("embedding.cache.ttl_days", DefaultCacheTTLDays)
	v.SetDefault("embedding.rate_limit.delay_between_requests", DefaultDelayBetweenRequests)
	v.SetDefault("embedding.rate_limit.max_retries", DefaultMaxRetries)
	v.SetDefault("embedding.rate_limit.retry_delay_base", DefaultRetryDelayBase)
	v.SetDefault("embedding.rate_limit.exponential", true)

	v.SetDefault("normalization.unicode_form", "NFC")
	v.SetDefault("normalization.on_invalid", DefaultOnInvalid)
	v.SetDefault("normalization.metadata_whitelist", DefaultMetadataWhitelist)
	v.SetDefault("normalization.drop_nulls", true)

	v.SetDefault("storage.backend", DefaultStorageBackend)
	v.SetDefault("storage.collection", DefaultCollection)
	v.SetDefault("storage.distance_metric", DefaultDistanceMetric)
	v.SetDefault("storage.batch_size", DefaultStoreBatchSize)
	v.SetDefault("storage.delete_by_source", true)
	v.SetDefault("storage.qdrant.host", DefaultQdrantHost)
	v.SetDefault("storage.qdrant.port", DefaultQdrantPort)
	v.SetDefault("storage.pgvector.table", DefaultPgvectorTable)
	v.SetDefault("storage.pgvector.max_conns", 4)
}
