package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// SimulatedName is the reserved provider name that resolves to the
// deterministic offline embedder without any configuration.
const SimulatedName = "simulated"

// SimulatedEmbedder generates deterministic pseudo-embeddings seeded
// from the input text. Identical text always yields the identical
// vector, which keeps cache and storage behavior testable offline.
type SimulatedEmbedder struct {
	dimensions int
}

// NewSimulatedEmbedder creates a simulated embedder with the given
// output dimensionality.
func NewSimulatedEmbedder(dimensions int) *SimulatedEmbedder {
	return &SimulatedEmbedder{dimensions: dimensions}
}

func (s *SimulatedEmbedder) Name() string {
	return SimulatedName
}

func (s *SimulatedEmbedder) Available() bool {
	return true
}

// Embed returns one deterministic vector per input text.
func (s *SimulatedEmbedder) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sum := sha256.Sum256([]byte(text))
		seed := int64(binary.BigEndian.Uint64(sum[:8]))
		rng := rand.New(rand.NewSource(seed))

		vec := make([]float32, s.dimensions)
		for j := range vec {
			vec[j] = float32(rng.Float64()*2 - 1)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
