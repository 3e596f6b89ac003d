package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/docpipe/docpipe/internal/config"
)

func TestRegistryResolvesSimulated(t *testing.T) {
	reg := NewRegistry(nil, 8)

	client, err := reg.Embeddings(SimulatedName)
	if err != nil {
		t.Fatalf("Embeddings(simulated) failed: %v", err)
	}

	vectors, err := client.Embed(context.Background(), "any", []string{"hello"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != 8 {
		t.Fatalf("unexpected shape: %d vectors", len(vectors))
	}
}

func TestSimulatedIsDeterministic(t *testing.T) {
	emb := NewSimulatedEmbedder(16)

	a, err := emb.Embed(context.Background(), "m", []string{"same text"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := emb.Embed(context.Background(), "m", []string{"same text"})
	if err != nil {
		t.Fatal(err)
	}

	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vectors differ at index %d", i)
		}
	}

	c, _ := emb.Embed(context.Background(), "m", []string{"different text"})
	same := true
	for i := range a[0] {
		if a[0][i] != c[0][i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	reg := NewRegistry(map[string]config.Provider{}, 8)

	if _, err := reg.Embeddings("nope"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}
	if _, err := reg.LLM("nope"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestRegistryCachesClients(t *testing.T) {
	reg := NewRegistry(map[string]config.Provider{
		"local": {AccessMethod: config.AccessLocal, Endpoint: "http://localhost:11434/v1"},
	}, 8)

	a, err := reg.LLM("local")
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.LLM("local")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the same client instance on repeated lookup")
	}
}
