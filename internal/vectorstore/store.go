// Package vectorstore persists normalized chunks into a vector
// database, replacing prior vectors per source file.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
)

// Store is the backend contract. Open must be called before any write
// and ensures the target collection exists with the right dimension
// and distance metric.
type Store interface {
	// Open prepares the backend for writes of the given dimension.
	Open(ctx context.Context, dimensions int) error

	// DeleteBySource removes every point previously stored for the
	// given source files and returns how many were deleted.
	DeleteBySource(ctx context.Context, sources []string) (int, error)

	// UpsertBatch writes one batch of chunks.
	UpsertBatch(ctx context.Context, chunks []pipeline.Chunk) error

	// Close releases backend resources.
	Close() error
}

// NewStore builds the configured backend.
func NewStore(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "qdrant":
		return NewQdrantStore(cfg, logger)
	case "pgvector":
		return NewPgvectorStore(cfg, logger)
	case "chroma", "weaviate", "milvus":
		return NewHTTPStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// PointID derives a stable identifier for a chunk: a UUID derived
// deterministically from the content hash when enrichment ran, a
// random UUID otherwise. seen tracks IDs already used in this run so
// duplicate chunk text still gets a distinct point.
func PointID(chunk pipeline.Chunk, seen map[string]bool) string {
	if hash, ok := chunk.Metadata["content_hash"].(string); ok && hash != "" {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(hash)).String()
		if !seen[id] {
			seen[id] = true
			return id
		}
	}
	id := uuid.New().String()
	seen[id] = true
	return id
}

// CoerceScalar flattens a metadata value into something every backend
// can index: strings, bools and numbers pass through, string slices
// become comma-joined strings, everything else is formatted.
func CoerceScalar(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string, bool, int, int32, int64, float32, float64:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}

// Payload coerces a full metadata map.
func Payload(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for key, value := range meta {
		out[key] = CoerceScalar(value)
	}
	return out
}

// UniqueSources lists the distinct source_file values in input order.
func UniqueSources(chunks []pipeline.Chunk) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, chunk := range chunks {
		src, _ := chunk.Metadata["source_file"].(string)
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	return sources
}
