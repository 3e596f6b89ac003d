package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Loads a config directory with every stage file present and checks the
// values land on the right structs.
func TestLoadFullConfigDir(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"global.yaml": `
log_level: WARNING
log_file: logs/pipeline.log
providers:
  local:
    access_method: local
    endpoint: http://localhost:11434/v1
paths:
  input_dir: in
  processed_dir: done
  errors_dir: failed
  output_dir: out
regulatory:
  frameworks: [RGPD, HDS]
watch:
  interval_seconds: 10
`,
		"extraction.yaml": `
profile: quality
use_vlm: true
vlm:
  provider: local
  model: llava
`,
		"chunking.yaml": `
strategy: semantic
semantic:
  similarity_threshold: 0.6
`,
		"enrichment.yaml": `
default_sensitivity: confidentiel
`,
		"audit.yaml": `
trail_path: audit/trail.jsonl
pii:
  enabled: true
`,
		"embedding.yaml": `
provider: local
model: nomic-embed-text
cache:
  dir: .cache/embeddings
  ttl_days: 7
`,
		"normalization.yaml": `
unicode_form: NFKC
strip_accents: true
`,
		"storage.yaml": `
backend: qdrant
collection: documents
qdrant:
  host: localhost
  port: 6334
`,
		"lifecycle.yaml": `
timestamp: true
`,
	})

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "WARNING", cfg.Global.LogLevel)
	require.Equal(t, "in", cfg.Global.Paths.InputDir)
	require.Equal(t, []string{"RGPD", "HDS"}, cfg.Global.Regulatory.Frameworks)
	require.Equal(t, 10, cfg.Global.Watch.IntervalSeconds)

	require.Equal(t, "quality", cfg.Extraction.Profile)
	require.True(t, cfg.Extraction.UseVLM)
	require.Equal(t, "local", cfg.Extraction.VLM.Provider)

	require.Equal(t, "semantic", cfg.Chunking.Strategy)
	require.Equal(t, 0.6, cfg.Chunking.Semantic.SimilarityThreshold)

	require.Equal(t, "confidentiel", cfg.Enrichment.DefaultSensitivity)

	require.Equal(t, "audit/trail.jsonl", cfg.Audit.TrailPath)
	require.True(t, cfg.Audit.PII.Enabled)

	require.Equal(t, "local", cfg.Embedding.Provider)
	require.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	require.Equal(t, 7, cfg.Embedding.Cache.TTLDays)

	require.Equal(t, "NFKC", cfg.Normalization.UnicodeForm)
	require.True(t, cfg.Normalization.StripAccents)

	require.Equal(t, "qdrant", cfg.Storage.Backend)
	require.Equal(t, "documents", cfg.Storage.Collection)
	require.Equal(t, 6334, cfg.Storage.Qdrant.Port)

	require.True(t, cfg.Lifecycle.Timestamp)
}
