package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
)

// QdrantStore writes points over the Qdrant gRPC API.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	metric     string
	logger     *slog.Logger
}

var _ Store = (*QdrantStore)(nil)

// NewQdrantStore connects to the configured Qdrant instance.
func NewQdrantStore(cfg config.StorageConfig, logger *slog.Logger) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client; %w", err)
	}
	return &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		metric:     cfg.DistanceMetric,
		logger:     logger.With("component", "store", "backend", "qdrant"),
	}, nil
}

func (s *QdrantStore) distance() qdrant.Distance {
	switch s.metric {
	case "l2":
		return qdrant.Distance_Euclid
	case "ip":
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

// Open creates the collection if it does not exist.
func (s *QdrantStore) Open(ctx context.Context, dimensions int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection; %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: s.distance(),
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %q; %w", s.collection, err)
	}
	s.logger.Info("collection created", "collection", s.collection, "dimensions", dimensions)
	return nil
}

func sourceFilter(sources []string) *qdrant.Filter {
	conditions := make([]*qdrant.Condition, len(sources))
	for i, src := range sources {
		conditions[i] = qdrant.NewMatch("source_file", src)
	}
	return &qdrant.Filter{Should: conditions}
}

// DeleteBySource drops every point whose source_file payload matches.
func (s *QdrantStore) DeleteBySource(ctx context.Context, sources []string) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}
	filter := sourceFilter(sources)

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points for deletion; %w", err)
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete points; %w", err)
	}
	return int(count), nil
}

// UpsertBatch writes one batch of chunks as points.
func (s *QdrantStore) UpsertBatch(ctx context.Context, chunks []pipeline.Chunk) error {
	seen := make(map[string]bool)

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		payload := Payload(chunk.Metadata)
		payload["text"] = chunk.Text

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(chunk, seen)),
			Vectors: qdrant.NewVectors(chunk.Embedding...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points; %w", len(points), err)
	}
	return nil
}

// Close shuts the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
