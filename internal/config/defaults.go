package config

// Default values registered with viper before any file is read.
// Stage files merge over these; a missing stage file means pure
// defaults.
const (
	DefaultLogLevel = "INFO"
	DefaultLogFile  = "logs/docpipe.log"

	DefaultInputDir     = "input"
	DefaultProcessedDir = "processed"
	DefaultErrorsDir    = "errors"
	DefaultOutputDir    = "output"

	DefaultMaxWorkers = 4

	DefaultWatchIntervalSeconds = 30

	DefaultExtractionProfile = "compromise"
	DefaultMinTextLength     = 20
	DefaultMinConfidence     = 0.3
	DefaultOCRDPI            = 300
	DefaultOCRPageSegMode    = 3
	DefaultTabularFormat     = "markdown"

	DefaultChunkStrategy       = "recursive"
	DefaultChunkSize           = 1000
	DefaultChunkOverlap        = 200
	DefaultMinChunkSize        = 50
	DefaultMaxChunkSize        = 4000
	DefaultSimilarityThreshold = 0.75
	DefaultSingleCallBudget    = 8000

	DefaultSensitivity = "interne"

	DefaultAuditTrailPath          = "logs/audit_trail.jsonl"
	DefaultSummaryFormat           = "json"
	DefaultSummaryDir              = "output/audit"
	DefaultSummaryFilenameTemplate = "audit_summary_{timestamp}.{format}"

	DefaultEmbeddingProvider   = "simulated"
	DefaultEmbeddingModel      = "simulated-768"
	DefaultEmbeddingDimensions = 768
	DefaultEmbeddingBatchSize  = 32
	DefaultMaxTextLength       = 8000
	DefaultCacheDir            = "cache/embeddings"
	DefaultCacheTTLDays        = 30

	DefaultDelayBetweenRequests = 0.5
	DefaultMaxRetries           = 3
	DefaultRetryDelayBase       = 2.0

	DefaultOnInvalid = "skip"

	DefaultStorageBackend = "qdrant"
	DefaultCollection     = "documents"
	DefaultDistanceMetric = "cosine"
	DefaultStoreBatchSize = 100
	DefaultQdrantHost     = "localhost"
	DefaultQdrantPort     = 6334
	DefaultPgvectorTable  = "document_chunks"
)

// DefaultSeparators is the recursive strategy's separator ladder, from
// the largest boundary down to character level.
var DefaultSeparators = []string{"\n\n\n", "\n\n", "\n", " ", ""}

// DefaultRegulatoryFrameworks are the frameworks scanned for when the
// global config carries none.
var DefaultRegulatoryFrameworks = []string{"RGPD", "ISO27001", "SOC2"}

// DefaultMetadataWhitelist lists the metadata keys kept by the
// normalization stage when no whitelist is configured.
var DefaultMetadataWhitelist = []string{
	"text",
	"source_file",
	"chunk_index",
	"total_chunks",
	"chunking_strategy",
	"content_hash",
	"processed_at",
	"sensitivity",
	"document_type",
	"regulatory_tags",
	"embedding_provider",
	"embedding_model",
}

// DefaultSensitiveKeywords drive the keyword fallback for sensitivity
// classification when no LLM is configured.
var DefaultSensitiveKeywords = []string{
	"confidentiel",
	"secret",
	"mot de passe",
	"password",
	"salaire",
	"iban",
	"carte bancaire",
	"numéro de sécurité sociale",
}

// DefaultBoundaryPrompt is the llm-guided chunking prompt; {text} is
// replaced with the coarse chunk under analysis.
const DefaultBoundaryPrompt = `Analyze the following document fragment and identify natural topic boundaries.
Reply with a JSON object of the form {"boundaries": [offset, ...]} where each
offset is a character position inside the fragment where a new chunk should start.

Fragment:
{text}`

// DefaultSummaryPrompt is the audit narrative template; placeholders
// are filled from the audit record.
const DefaultSummaryPrompt = `Summarize this ingestion run for a compliance officer.
Documents processed: {documents_processed}
Chunks created: {chunks_created}
Operation: {operation}
Timestamp: {timestamp}
PII findings: {pii_total}`

// DefaultSensitivityPrompt asks the LLM for exactly one label.
const DefaultSensitivityPrompt = `Classify the sensitivity of the following text.
Answer with exactly one word among: public, interne, confidentiel, secret.

Text:
{text}`
