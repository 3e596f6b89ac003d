package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docpipe/docpipe/internal/providers"
)

// Dispatcher resolves embeddings through the cache tiers and batches
// the remaining texts to the provider.
type Dispatcher struct {
	client    providers.EmbeddingClient
	provider  string
	model     string
	batchSize int
	disk      *DiskCache
	redis     *RedisCache
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. The redis tier may be nil.
func NewDispatcher(client providers.EmbeddingClient, provider, model string, batchSize int, disk *DiskCache, redisTier *RedisCache, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client:    client,
		provider:  provider,
		model:     model,
		batchSize: batchSize,
		disk:      disk,
		redis:     redisTier,
		logger:    logger.With("component", "embed"),
	}
}

// EmbedAll returns one vector per text, in input order. Cached vectors
// are reused; the rest are requested in batches and written back to
// the cache.
func (d *Dispatcher) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missing []int
	for i, text := range texts {
		key := Key(text, d.provider, d.model)

		if d.redis != nil {
			if vector, ok := d.redis.Get(ctx, key); ok {
				vectors[i] = vector
				continue
			}
		}
		if vector, ok := d.disk.Get(key); ok {
			vectors[i] = vector
			if d.redis != nil {
				d.redis.Put(ctx, key, vector)
			}
			continue
		}
		missing = append(missing, i)
	}

	hits := len(texts) - len(missing)
	if len(texts) > 0 {
		d.logger.Info(fmt.Sprintf("embedding cache: %d/%d hits (%.1f%%)",
			hits, len(texts), 100*float64(hits)/float64(len(texts))))
	}

	for start := 0; start < len(missing); start += d.batchSize {
		end := start + d.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		inputs := make([]string, len(batch))
		for j, idx := range batch {
			inputs[j] = texts[idx]
		}

		results, err := d.client.Embed(ctx, d.model, inputs)
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d failed; %w", start/d.batchSize, err)
		}
		if len(results) != len(batch) {
			return nil, fmt.Errorf("embedding batch %d returned %d vectors for %d inputs", start/d.batchSize, len(results), len(batch))
		}

		for j, idx := range batch {
			vectors[idx] = results[j]

			key := Key(texts[idx], d.provider, d.model)
			if err := d.disk.Put(key, results[j], d.provider, d.model); err != nil {
				d.logger.Warn("failed to cache embedding", "error", err)
			}
			if d.redis != nil {
				d.redis.Put(ctx, key, results[j])
			}
		}
	}

	return vectors, nil
}
