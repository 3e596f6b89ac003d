package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
)

// HTTPStore talks to the REST-based backends: Chroma, Weaviate and
// Milvus. Each dialect differs only in paths and payload shapes.
type HTTPStore struct {
	backend    string
	baseURL    string
	apiKey     string
	collection string
	metric     string
	client     *http.Client
	logger     *slog.Logger

	// chromaID is the server-assigned collection id, resolved in Open.
	chromaID string
}

var _ Store = (*HTTPStore)(nil)

// NewHTTPStore creates a REST store for the configured backend.
func NewHTTPStore(cfg config.StorageConfig, logger *slog.Logger) (*HTTPStore, error) {
	if cfg.HTTP.BaseURL == "" {
		return nil, fmt.Errorf("%s backend requires http.base_url", cfg.Backend)
	}
	return &HTTPStore{
		backend:    cfg.Backend,
		baseURL:    strings.TrimRight(cfg.HTTP.BaseURL, "/"),
		apiKey:     cfg.HTTP.APIKey,
		collection: cfg.Collection,
		metric:     cfg.DistanceMetric,
		client:     &http.Client{Timeout: 60 * time.Second},
		logger:     logger.With("component", "store", "backend", cfg.Backend),
	}, nil
}

func (s *HTTPStore) post(ctx context.Context, path string, payload any, out any) error {
	return s.do(ctx, http.MethodPost, path, payload, out)
}

func (s *HTTPStore) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request; %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response; %w", err)
		}
	}
	return nil
}

// Open ensures the collection/class exists.
func (s *HTTPStore) Open(ctx context.Context, dimensions int) error {
	switch s.backend {
	case "chroma":
		var created struct {
			ID string `json:"id"`
		}
		err := s.post(ctx, "/api/v1/collections", map[string]any{
			"name":          s.collection,
			"get_or_create": true,
			"metadata":      map[string]any{"hnsw:space": s.chromaSpace()},
		}, &created)
		if err != nil {
			return err
		}
		s.chromaID = created.ID
		return nil

	case "weaviate":
		err := s.post(ctx, "/v1/schema", map[string]any{
			"class":      s.weaviateClass(),
			"vectorizer": "none",
			"properties": []map[string]any{
				{"name": "text", "dataType": []string{"text"}},
				{"name": "source_file", "dataType": []string{"text"}},
			},
		}, nil)
		// An already-existing class is fine.
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return err
		}
		return nil

	case "milvus":
		return s.post(ctx, "/v2/vectordb/collections/create", map[string]any{
			"collectionName": s.collection,
			"dimension":      dimensions,
			"metricType":     s.milvusMetric(),
		}, nil)
	}
	return fmt.Errorf("unknown http backend %q", s.backend)
}

// DeleteBySource removes stored entries for the given sources. The
// REST backends report no per-request counts, so the return value is
// zero.
func (s *HTTPStore) DeleteBySource(ctx context.Context, sources []string) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	switch s.backend {
	case "chroma":
		return 0, s.post(ctx, "/api/v1/collections/"+s.chromaID+"/delete", map[string]any{
			"where": map[string]any{"source_file": map[string]any{"$in": sources}},
		}, nil)

	case "weaviate":
		return 0, s.post(ctx, "/v1/batch/delete", map[string]any{
			"match": map[string]any{
				"class": s.weaviateClass(),
				"where": map[string]any{
					"path":           []string{"source_file"},
					"operator":       "ContainsAny",
					"valueTextArray": sources,
				},
			},
		}, nil)

	case "milvus":
		quoted := make([]string, len(sources))
		for i, src := range sources {
			quoted[i] = fmt.Sprintf("%q", src)
		}
		return 0, s.post(ctx, "/v2/vectordb/entities/delete", map[string]any{
			"collectionName": s.collection,
			"filter":         fmt.Sprintf("source_file in [%s]", strings.Join(quoted, ", ")),
		}, nil)
	}
	return 0, fmt.Errorf("unknown http backend %q", s.backend)
}

// UpsertBatch writes one batch of chunks.
func (s *HTTPStore) UpsertBatch(ctx context.Context, chunks []pipeline.Chunk) error {
	seen := make(map[string]bool)

	switch s.backend {
	case "chroma":
		ids := make([]string, len(chunks))
		embeddings := make([][]float32, len(chunks))
		documents := make([]string, len(chunks))
		metadatas := make([]map[string]any, len(chunks))
		for i, chunk := range chunks {
			ids[i] = PointID(chunk, seen)
			embeddings[i] = chunk.Embedding
			documents[i] = chunk.Text
			metadatas[i] = Payload(chunk.Metadata)
		}
		return s.post(ctx, "/api/v1/collections/"+s.chromaID+"/upsert", map[string]any{
			"ids":        ids,
			"embeddings": embeddings,
			"documents":  documents,
			"metadatas":  metadatas,
		}, nil)

	case "weaviate":
		objects := make([]map[string]any, len(chunks))
		for i, chunk := range chunks {
			properties := Payload(chunk.Metadata)
			properties["text"] = chunk.Text
			objects[i] = map[string]any{
				"class":      s.weaviateClass(),
				"id":         PointID(chunk, seen),
				"vector":     chunk.Embedding,
				"properties": properties,
			}
		}
		return s.post(ctx, "/v1/batch/objects", map[string]any{"objects": objects}, nil)

	case "milvus":
		rows := make([]map[string]any, len(chunks))
		for i, chunk := range chunks {
			row := Payload(chunk.Metadata)
			row["id"] = PointID(chunk, seen)
			row["text"] = chunk.Text
			row["vector"] = chunk.Embedding
			rows[i] = row
		}
		return s.post(ctx, "/v2/vectordb/entities/upsert", map[string]any{
			"collectionName": s.collection,
			"data":           rows,
		}, nil)
	}
	return fmt.Errorf("unknown http backend %q", s.backend)
}

// Close is a no-op for the REST backends.
func (s *HTTPStore) Close() error { return nil }

func (s *HTTPStore) chromaSpace() string {
	switch s.metric {
	case "l2":
		return "l2"
	case "ip":
		return "ip"
	default:
		return "cosine"
	}
}

func (s *HTTPStore) milvusMetric() string {
	switch s.metric {
	case "l2":
		return "L2"
	case "ip":
		return "IP"
	default:
		return "COSINE"
	}
}

// weaviateClass upper-cases the first letter; Weaviate requires it.
func (s *HTTPStore) weaviateClass() string {
	if s.collection == "" {
		return "Document"
	}
	return strings.ToUpper(s.collection[:1]) + s.collection[1:]
}
