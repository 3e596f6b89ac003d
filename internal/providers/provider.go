// Package providers resolves named LLM and embedding endpoints from
// configuration and wraps them with rate limiting and retry.
package providers

import (
	"context"
	"errors"
)

var (
	// ErrProviderNotFound is returned when a provider name is not configured.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderUnavailable is returned when a provider is configured but
	// its credentials are missing.
	ErrProviderUnavailable = errors.New("provider not available")

	// ErrUnsupportedOperation is returned when a provider cannot serve the
	// requested operation (e.g. chat on an embeddings-only endpoint).
	ErrUnsupportedOperation = errors.New("operation not supported by provider")
)

// Client is the base interface for all provider clients.
type Client interface {
	// Name returns the configured provider name.
	Name() string

	// Available returns true if the provider is configured and ready.
	Available() bool
}

// CompletionRequest describes a single-turn chat completion call.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// LLMClient performs chat completions.
type LLMClient interface {
	Client

	// Complete sends a single-turn prompt and returns the model's text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// EmbeddingClient generates vector embeddings.
type EmbeddingClient interface {
	Client

	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}
