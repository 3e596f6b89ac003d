// Package config loads and validates the two-level pipeline
// configuration: a global file (providers, stage toggles, paths,
// performance and regulatory knobs) plus one optional file per stage.
package config

// Config aggregates the global configuration and every per-stage
// configuration, fully defaulted and validated.
type Config struct {
	Global        Global
	Extraction    ExtractionConfig
	Chunking      ChunkingConfig
	Enrichment    EnrichmentConfig
	Audit         AuditConfig
	Embedding     EmbeddingConfig
	Normalization NormalizationConfig
	Storage       StorageConfig
	Lifecycle     LifecycleConfig
}

// Global is the root configuration structure (global.yaml).
type Global struct {
	LogLevel    string                `yaml:"log_level" mapstructure:"log_level"`
	LogFile     string                `yaml:"log_file" mapstructure:"log_file"`
	Providers   map[string]Provider   `yaml:"providers" mapstructure:"providers"`
	Stages      map[string]StageFlags `yaml:"stages" mapstructure:"stages"`
	Paths       Paths                 `yaml:"paths" mapstructure:"paths"`
	Performance Performance           `yaml:"performance" mapstructure:"performance"`
	Regulatory  Regulatory            `yaml:"regulatory" mapstructure:"regulatory"`
	Watch       Watch                 `yaml:"watch" mapstructure:"watch"`
}

// AccessMethod describes how a provider endpoint is reached.
type AccessMethod string

const (
	AccessLocal            AccessMethod = "local"
	AccessOpenAICompatible AccessMethod = "openai_compatible"
	AccessHuggingFace      AccessMethod = "huggingface_inference_api"
)

// Provider is a named LLM/embedding endpoint from the infrastructure
// section of the global config.
type Provider struct {
	AccessMethod AccessMethod `yaml:"access_method" mapstructure:"access_method"`
	Endpoint     string       `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey       string       `yaml:"api_key" mapstructure:"api_key"`
}

// StageFlags holds per-stage toggles resolved at engine construction.
type StageFlags struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Paths holds the filesystem layout of the pipeline.
type Paths struct {
	InputDir     string `yaml:"input_dir" mapstructure:"input_dir"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
	ErrorsDir    string `yaml:"errors_dir" mapstructure:"errors_dir"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
}

// Performance holds global concurrency knobs.
type Performance struct {
	MaxWorkers int `yaml:"max_workers" mapstructure:"max_workers"`
}

// Regulatory holds the reference frameworks scanned for during
// enrichment.
type Regulatory struct {
	Frameworks []string `yaml:"frameworks,flow" mapstructure:"frameworks"`
}

// Watch holds continuous-mode settings.
type Watch struct {
	IntervalSeconds int `yaml:"interval_seconds" mapstructure:"interval_seconds"`
}

// ExtractionConfig configures the extraction stage (extraction.yaml).
type ExtractionConfig struct {
	Profile          string         `yaml:"profile" mapstructure:"profile"`
	CustomExtractors []string       `yaml:"custom_extractors,flow" mapstructure:"custom_extractors"`
	UseVLM           bool           `yaml:"use_vlm" mapstructure:"use_vlm"`
	VLM              VLMConfig      `yaml:"vlm" mapstructure:"vlm"`
	MinTextLength    int            `yaml:"min_text_length" mapstructure:"min_text_length"`
	MinConfidence    float64        `yaml:"min_confidence" mapstructure:"min_confidence"`
	MaxWorkers       int            `yaml:"max_workers" mapstructure:"max_workers"`
	Cleaning         CleaningConfig `yaml:"cleaning" mapstructure:"cleaning"`
	OCR              OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Tabular          TabularConfig  `yaml:"tabular" mapstructure:"tabular"`
	HTML             HTMLConfig     `yaml:"html" mapstructure:"html"`
	SaveExtracted    bool           `yaml:"save_extracted" mapstructure:"save_extracted"`
	Timestamp        bool           `yaml:"timestamp" mapstructure:"timestamp"`
	MetricsPath      string         `yaml:"metrics_path" mapstructure:"metrics_path"`
}

// VLMConfig configures the vision-model extractor used by the quality
// profile for image-heavy documents.
type VLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
	Prompt   string `yaml:"prompt" mapstructure:"prompt"`
}

// CleaningConfig lists the ordered post-extraction text cleaning steps.
type CleaningConfig struct {
	NormalizeWhitespace bool `yaml:"normalize_whitespace" mapstructure:"normalize_whitespace"`
	StripPageNumbers    bool `yaml:"strip_page_numbers" mapstructure:"strip_page_numbers"`
	RemoveBlankLines    bool `yaml:"remove_blank_lines" mapstructure:"remove_blank_lines"`
	MinLineLength       int  `yaml:"min_line_length" mapstructure:"min_line_length"`
	StripHTMLTags       bool `yaml:"strip_html_tags" mapstructure:"strip_html_tags"`
	Lowercase           bool `yaml:"lowercase" mapstructure:"lowercase"`
	StripSpecialChars   bool `yaml:"strip_special_chars" mapstructure:"strip_special_chars"`
}

// OCRConfig configures the tesseract-based OCR extractor.
type OCRConfig struct {
	Languages   []string         `yaml:"languages,flow" mapstructure:"languages"`
	PageSegMode int              `yaml:"page_seg_mode" mapstructure:"page_seg_mode"`
	DPI         int              `yaml:"dpi" mapstructure:"dpi"`
	Preprocess  PreprocessConfig `yaml:"preprocess" mapstructure:"preprocess"`
}

// PreprocessConfig configures OCR image preprocessing.
type PreprocessConfig struct {
	Grayscale     bool `yaml:"grayscale" mapstructure:"grayscale"`
	ContrastBoost bool `yaml:"contrast_boost" mapstructure:"contrast_boost"`
	Sharpen       bool `yaml:"sharpen" mapstructure:"sharpen"`
}

// TabularConfig configures spreadsheet/CSV rendering.
type TabularConfig struct {
	Format       string `yaml:"format" mapstructure:"format"` // markdown | csv | json
	IncludeStats bool   `yaml:"include_stats" mapstructure:"include_stats"`
}

// HTMLConfig configures HTML/XML extraction.
type HTMLConfig struct {
	StripTags         []string `yaml:"strip_tags,flow" mapstructure:"strip_tags"`
	PreserveStructure bool     `yaml:"preserve_structure" mapstructure:"preserve_structure"`
}

// ChunkingConfig configures the chunking stage (chunking.yaml).
type ChunkingConfig struct {
	Strategy     string              `yaml:"strategy" mapstructure:"strategy"` // fixed | recursive | semantic | llm_guided
	ChunkSize    int                 `yaml:"chunk_size" mapstructure:"chunk_size"`
	Overlap      int                 `yaml:"overlap" mapstructure:"overlap"`
	Separators   []string            `yaml:"separators,flow" mapstructure:"separators"`
	MinChunkSize int                 `yaml:"min_chunk_size" mapstructure:"min_chunk_size"`
	MaxChunkSize int                 `yaml:"max_chunk_size" mapstructure:"max_chunk_size"`
	DropEmpty    bool                `yaml:"drop_empty" mapstructure:"drop_empty"`
	Semantic     SemanticChunkConfig `yaml:"semantic" mapstructure:"semantic"`
	LLM          LLMChunkConfig      `yaml:"llm" mapstructure:"llm"`
	SaveChunks   bool                `yaml:"save_chunks" mapstructure:"save_chunks"`
}

// SemanticChunkConfig configures the similarity-based strategy.
type SemanticChunkConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// LLMChunkConfig configures the llm-guided strategy.
type LLMChunkConfig struct {
	Provider         string  `yaml:"provider" mapstructure:"provider"`
	Model            string  `yaml:"model" mapstructure:"model"`
	Temperature      float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens        int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	SingleCallBudget int     `yaml:"single_call_budget" mapstructure:"single_call_budget"`
	PromptTemplate   string  `yaml:"prompt_template" mapstructure:"prompt_template"`
}

// EnrichmentConfig configures the enrichment stage (enrichment.yaml).
type EnrichmentConfig struct {
	DefaultSensitivity string            `yaml:"default_sensitivity" mapstructure:"default_sensitivity"`
	UseLLM             bool              `yaml:"use_llm" mapstructure:"use_llm"`
	LLM                LLMCallConfig     `yaml:"llm" mapstructure:"llm"`
	SensitiveKeywords  []string          `yaml:"sensitive_keywords,flow" mapstructure:"sensitive_keywords"`
	SaveEnriched       bool              `yaml:"save_enriched" mapstructure:"save_enriched"`
	RateLimit          RateLimitSettings `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// LLMCallConfig names a provider/model pair plus call parameters for a
// stage-local LLM task.
type LLMCallConfig struct {
	Provider       string  `yaml:"provider" mapstructure:"provider"`
	Model          string  `yaml:"model" mapstructure:"model"`
	Temperature    float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens      int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	PromptTemplate string  `yaml:"prompt_template" mapstructure:"prompt_template"`
}

// AuditConfig configures the audit stage (audit.yaml).
type AuditConfig struct {
	TrailPath string        `yaml:"trail_path" mapstructure:"trail_path"`
	PII       PIIConfig     `yaml:"pii" mapstructure:"pii"`
	Summary   SummaryConfig `yaml:"summary" mapstructure:"summary"`
}

// PIIConfig toggles the PII regex scan.
type PIIConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SummaryConfig configures the optional LLM narrative summary.
type SummaryConfig struct {
	Enabled          bool          `yaml:"enabled" mapstructure:"enabled"`
	LLM              LLMCallConfig `yaml:"llm" mapstructure:"llm"`
	Persist          bool          `yaml:"persist" mapstructure:"persist"`
	Format           string        `yaml:"format" mapstructure:"format"` // json | txt | md
	Dir              string        `yaml:"dir" mapstructure:"dir"`
	FilenameTemplate string        `yaml:"filename_template" mapstructure:"filename_template"`
	IncludeMetadata  bool          `yaml:"include_metadata" mapstructure:"include_metadata"`
	IncludeRecord    bool          `yaml:"include_record" mapstructure:"include_record"`
}

// EmbeddingConfig configures the embedding stage (embedding.yaml).
type EmbeddingConfig struct {
	Provider      string            `yaml:"provider" mapstructure:"provider"`
	Model         string            `yaml:"model" mapstructure:"model"`
	Dimensions    int               `yaml:"dimensions" mapstructure:"dimensions"`
	BatchSize     int               `yaml:"batch_size" mapstructure:"batch_size"`
	MaxTextLength int               `yaml:"max_text_length" mapstructure:"max_text_length"`
	Cache         CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimit     RateLimitSettings `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// CacheConfig configures the embedding cache tiers.
type CacheConfig struct {
	Dir     string      `yaml:"dir" mapstructure:"dir"`
	TTLDays int         `yaml:"ttl_days" mapstructure:"ttl_days"`
	Redis   RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the optional Redis cache tier.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
	DB      int    `yaml:"db" mapstructure:"db"`
}

// RateLimitSettings configures the retry wrapper around provider calls.
type RateLimitSettings struct {
	DelayBetweenRequests float64 `yaml:"delay_between_requests" mapstructure:"delay_between_requests"` // seconds
	MaxRetries           int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelayBase       float64 `yaml:"retry_delay_base" mapstructure:"retry_delay_base"` // seconds
	Exponential          bool    `yaml:"exponential" mapstructure:"exponential"`
}

// NormalizationConfig configures the normalization stage
// (normalization.yaml).
type NormalizationConfig struct {
	UnicodeForm       string   `yaml:"unicode_form" mapstructure:"unicode_form"` // "", NFC, NFKC, NFD, NFKD
	StripAccents      bool     `yaml:"strip_accents" mapstructure:"strip_accents"`
	StandardizeQuotes bool     `yaml:"standardize_quotes" mapstructure:"standardize_quotes"`
	OnInvalid         string   `yaml:"on_invalid" mapstructure:"on_invalid"` // skip | keep
	MetadataWhitelist []string `yaml:"metadata_whitelist,flow" mapstructure:"metadata_whitelist"`
	DropNulls         bool     `yaml:"drop_nulls" mapstructure:"drop_nulls"`
}

// StorageConfig configures the vector storage stage (storage.yaml).
type StorageConfig struct {
	Backend        string         `yaml:"backend" mapstructure:"backend"` // qdrant | pgvector | chroma | weaviate | milvus
	Collection     string         `yaml:"collection" mapstructure:"collection"`
	DistanceMetric string         `yaml:"distance_metric" mapstructure:"distance_metric"` // cosine | l2 | ip
	BatchSize      int            `yaml:"batch_size" mapstructure:"batch_size"`
	DeleteBySource bool           `yaml:"delete_by_source" mapstructure:"delete_by_source"`
	Qdrant         QdrantConfig   `yaml:"qdrant" mapstructure:"qdrant"`
	Pgvector       PgvectorConfig `yaml:"pgvector" mapstructure:"pgvector"`
	HTTP           HTTPBackend    `yaml:"http" mapstructure:"http"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host   string `yaml:"host" mapstructure:"host"`
	Port   int    `yaml:"port" mapstructure:"port"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	UseTLS bool   `yaml:"use_tls" mapstructure:"use_tls"`
}

// PgvectorConfig holds Postgres/pgvector connection settings.
type PgvectorConfig struct {
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	Table    string `yaml:"table" mapstructure:"table"`
	MaxConns int    `yaml:"max_conns" mapstructure:"max_conns"`
}

// HTTPBackend holds settings for the REST-based backends
// (chroma, weaviate, milvus).
type HTTPBackend struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// LifecycleConfig configures the file lifecycle stage (lifecycle.yaml).
type LifecycleConfig struct {
	Timestamp bool `yaml:"timestamp" mapstructure:"timestamp"`
}

// StageNames lists the stages in execution order.
var StageNames = []string{
	"extraction",
	"chunking",
	"enrichment",
	"audit",
	"embedding",
	"normalization",
	"storage",
	"lifecycle",
}

// StageEnabled reports whether a stage is enabled in the global config.
// Stages default to enabled when not mentioned.
func (g *Global) StageEnabled(name string) bool {
	flags, ok := g.Stages[name]
	if !ok {
		return true
	}
	return flags.Enabled
}
