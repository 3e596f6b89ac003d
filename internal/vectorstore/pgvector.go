package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/pipeline"
)

// PgvectorStore writes chunks into a Postgres table with a pgvector
// column.
type PgvectorStore struct {
	cfg    config.PgvectorConfig
	metric string
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Store = (*PgvectorStore)(nil)

// NewPgvectorStore validates the connection settings. The pool is
// opened lazily in Open so construction stays cheap.
func NewPgvectorStore(cfg config.StorageConfig, logger *slog.Logger) (*PgvectorStore, error) {
	if cfg.Pgvector.DSN == "" {
		return nil, fmt.Errorf("pgvector backend requires a dsn")
	}
	table := cfg.Pgvector.Table
	if table == "" {
		table = config.DefaultPgvectorTable
	}
	pg := cfg.Pgvector
	pg.Table = table
	return &PgvectorStore{
		cfg:    pg,
		metric: cfg.DistanceMetric,
		logger: logger.With("component", "store", "backend", "pgvector"),
	}, nil
}

// Open connects and ensures the extension, table and index exist.
func (s *PgvectorStore) Open(ctx context.Context, dimensions int) error {
	poolCfg, err := pgxpool.ParseConfig(s.cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse dsn; %w", err)
	}
	if s.cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(s.cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to connect; %w", err)
	}
	s.pool = pool

	ops := "vector_cosine_ops"
	switch s.metric {
	case "l2":
		ops = "vector_l2_ops"
	case "ip":
		ops = "vector_ip_ops"
	}

	schema := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS %[1]s (
	id TEXT PRIMARY KEY,
	source_file TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}',
	embedding vector(%[2]d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS %[1]s_source_idx ON %[1]s (source_file);

CREATE INDEX IF NOT EXISTS %[1]s_embedding_idx
	ON %[1]s USING hnsw (embedding %[3]s);
`, s.cfg.Table, dimensions, ops)

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		s.pool = nil
		return fmt.Errorf("failed to ensure schema; %w", err)
	}
	return nil
}

// DeleteBySource removes all rows for the given source files.
func (s *PgvectorStore) DeleteBySource(ctx context.Context, sources []string) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE source_file = ANY($1)`, s.cfg.Table), sources)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows; %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// UpsertBatch inserts one batch inside a transaction.
func (s *PgvectorStore) UpsertBatch(ctx context.Context, chunks []pipeline.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction; %w", err)
	}
	defer tx.Rollback(ctx)

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		src, _ := chunk.Metadata["source_file"].(string)

		metadata, err := json.Marshal(Payload(chunk.Metadata))
		if err != nil {
			return fmt.Errorf("failed to marshal metadata; %w", err)
		}

		_, err = tx.Exec(ctx, fmt.Sprintf(`
INSERT INTO %s (id, source_file, content, metadata, embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	source_file = EXCLUDED.source_file,
	content = EXCLUDED.content,
	metadata = EXCLUDED.metadata,
	embedding = EXCLUDED.embedding`, s.cfg.Table),
			PointID(chunk, seen),
			src,
			chunk.Text,
			metadata,
			pgvector.NewVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk; %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch; %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PgvectorStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
