package providers

import (
	"fmt"
	"sync"

	"github.com/docpipe/docpipe/internal/config"
)

// Registry builds and caches provider clients from the global provider
// map. Clients are constructed lazily on first lookup.
type Registry struct {
	mu        sync.Mutex
	configs   map[string]config.Provider
	embedders map[string]EmbeddingClient
	llms      map[string]LLMClient

	// simulatedDims sets the dimensionality of the built-in simulated
	// embedder.
	simulatedDims int
}

// NewRegistry creates a registry over the configured providers.
func NewRegistry(configs map[string]config.Provider, simulatedDims int) *Registry {
	return &Registry{
		configs:       configs,
		embedders:     make(map[string]EmbeddingClient),
		llms:          make(map[string]LLMClient),
		simulatedDims: simulatedDims,
	}
}

// Embeddings returns the embedding client for a provider name. The
// reserved name "simulated" resolves without configuration.
func (r *Registry) Embeddings(name string) (EmbeddingClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.embedders[name]; ok {
		return client, nil
	}

	if name == SimulatedName {
		client := NewSimulatedEmbedder(r.simulatedDims)
		r.embedders[name] = client
		return client, nil
	}

	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("embedding provider %q; %w", name, ErrProviderNotFound)
	}

	var client EmbeddingClient
	switch cfg.AccessMethod {
	case config.AccessLocal, config.AccessOpenAICompatible:
		client = NewOpenAICompatibleClient(name, cfg)
	case config.AccessHuggingFace:
		client = NewHuggingFaceClient(name, cfg)
	default:
		return nil, fmt.Errorf("embedding provider %q: unknown access_method %q", name, cfg.AccessMethod)
	}

	r.embedders[name] = client
	return client, nil
}

// LLM returns the chat client for a provider name.
func (r *Registry) LLM(name string) (LLMClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.llms[name]; ok {
		return client, nil
	}

	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("llm provider %q; %w", name, ErrProviderNotFound)
	}

	var client LLMClient
	switch cfg.AccessMethod {
	case config.AccessLocal, config.AccessOpenAICompatible:
		client = NewOpenAICompatibleClient(name, cfg)
	case config.AccessHuggingFace:
		client = NewHuggingFaceClient(name, cfg)
	default:
		return nil, fmt.Errorf("llm provider %q: unknown access_method %q", name, cfg.AccessMethod)
	}

	r.llms[name] = client
	return client, nil
}
