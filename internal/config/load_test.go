package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalGlobal = `
log_level: DEBUG
providers:
  openai:
    access_method: openai_compatible
    endpoint: https://api.openai.com/v1
    api_key: ${OPENAI_API_KEY}
stages:
  extraction:
    enabled: true
  storage:
    enabled: false
`

func writeConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{"global.yaml": minimalGlobal})

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Global.LogLevel != "DEBUG" {
		t.Errorf("log_level = %q, want DEBUG", cfg.Global.LogLevel)
	}
	if cfg.Chunking.Strategy != DefaultChunkStrategy {
		t.Errorf("strategy = %q, want default %q", cfg.Chunking.Strategy, DefaultChunkStrategy)
	}
	if cfg.Chunking.ChunkSize != DefaultChunkSize {
		t.Errorf("chunk_size = %d, want %d", cfg.Chunking.ChunkSize, DefaultChunkSize)
	}
	if cfg.Storage.Backend != "qdrant" {
		t.Errorf("backend = %q, want qdrant", cfg.Storage.Backend)
	}
}

func TestLoadStageOverride(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"global.yaml": minimalGlobal,
		"chunking.yaml": `
strategy: fixed
chunk_size: 500
overlap: 100
`,
	})

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Chunking.Strategy != "fixed" {
		t.Errorf("strategy = %q, want fixed", cfg.Chunking.Strategy)
	}
	if cfg.Chunking.ChunkSize != 500 {
		t.Errorf("chunk_size = %d, want 500", cfg.Chunking.ChunkSize)
	}
	// Untouched keys keep their defaults.
	if cfg.Chunking.MinChunkSize != DefaultMinChunkSize {
		t.Errorf("min_chunk_size = %d, want default", cfg.Chunking.MinChunkSize)
	}
}

func TestLoadMissingGlobal(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for missing global.yaml")
	}
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")
	dir := writeConfigDir(t, map[string]string{"global.yaml": minimalGlobal})

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.Global.Providers["openai"].APIKey; got != "sk-test-123" {
		t.Errorf("api_key = %q, want sk-test-123", got)
	}
}

func TestUnresolvedSecretBecomesPlaceholder(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")
	dir := writeConfigDir(t, map[string]string{"global.yaml": minimalGlobal})

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	key := cfg.Global.Providers["openai"].APIKey
	if !IsPlaceholderKey(key) {
		t.Errorf("expected placeholder key, got %q", key)
	}
	if !strings.Contains(key, "OPENAI_API_KEY") {
		t.Errorf("placeholder should name the variable, got %q", key)
	}
}

func TestUnresolvedNonSecretFails(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"global.yaml": minimalGlobal,
		"storage.yaml": `
backend: pgvector
pgvector:
  dsn: ${MISSING_DB_DSN}
`,
	})

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for unresolved non-secret variable")
	}
	if !strings.Contains(err.Error(), "MISSING_DB_DSN") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestValidateRejectsBadEnums(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		body  string
		wants string
	}{
		{"bad strategy", "chunking.yaml", "strategy: sliding", "invalid strategy"},
		{"bad backend", "storage.yaml", "backend: pinecone", "invalid backend"},
		{"bad sensitivity", "enrichment.yaml", "default_sensitivity: topsecret", "invalid default_sensitivity"},
		{"bad unicode form", "normalization.yaml", "unicode_form: NFX", "invalid unicode_form"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfigDir(t, map[string]string{
				"global.yaml": minimalGlobal,
				tt.file:       tt.body,
			})
			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wants) {
				t.Errorf("error %q should contain %q", err, tt.wants)
			}
		})
	}
}

func TestStageEnabled(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{"global.yaml": minimalGlobal})

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Global.StageEnabled("extraction") {
		t.Error("extraction should be enabled")
	}
	if cfg.Global.StageEnabled("storage") {
		t.Error("storage should be disabled")
	}
	// Stages absent from the config default to enabled.
	if !cfg.Global.StageEnabled("chunking") {
		t.Error("chunking should default to enabled")
	}
}
