package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/docpipe/docpipe/internal/config"
)

// OpenAICompatibleClient talks to any endpoint implementing the OpenAI
// chat and embeddings APIs (OpenAI itself, vLLM, Ollama, LM Studio).
type OpenAICompatibleClient struct {
	name        string
	apiKey      string
	requiresKey bool
	client      *openai.Client
}

// OpenAICompatibleOption configures the client.
type OpenAICompatibleOption func(*clientSettings)

type clientSettings struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) OpenAICompatibleOption {
	return func(s *clientSettings) {
		s.httpClient = c
	}
}

// NewOpenAICompatibleClient creates a client for a configured provider.
// Local providers run without credentials; remote ones require a
// resolved API key.
func NewOpenAICompatibleClient(name string, cfg config.Provider, opts ...OpenAICompatibleOption) *OpenAICompatibleClient {
	settings := &clientSettings{
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(settings)
	}

	apiKey := cfg.APIKey
	if config.IsPlaceholderKey(apiKey) {
		apiKey = ""
	}

	oaCfg := openai.DefaultConfig(apiKey)
	if cfg.Endpoint != "" {
		oaCfg.BaseURL = cfg.Endpoint
	}
	oaCfg.HTTPClient = settings.httpClient

	return &OpenAICompatibleClient{
		name:        name,
		apiKey:      apiKey,
		requiresKey: cfg.AccessMethod != config.AccessLocal,
		client:      openai.NewClientWithConfig(oaCfg),
	}
}

// Name returns the configured provider name.
func (c *OpenAICompatibleClient) Name() string {
	return c.name
}

// Available returns true when credentials are resolved. Local
// endpoints never require a key.
func (c *OpenAICompatibleClient) Available() bool {
	return !c.requiresKey || c.apiKey != ""
}

// Complete sends a single-turn prompt and returns the model's text.
func (c *OpenAICompatibleClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("provider %q; %w", c.name, ErrProviderUnavailable)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed; %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns one vector per input text, in input order.
func (c *OpenAICompatibleClient) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if !c.Available() {
		return nil, fmt.Errorf("provider %q; %w", c.name, ErrProviderUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed; %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// The API may return data out of order; honor the index field.
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
