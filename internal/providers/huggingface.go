package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/config"
)

// HuggingFaceClient calls the HuggingFace Inference API
// feature-extraction pipeline. It serves embeddings only.
type HuggingFaceClient struct {
	name       string
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHuggingFaceClient creates a client for a configured provider.
func NewHuggingFaceClient(name string, cfg config.Provider) *HuggingFaceClient {
	apiKey := cfg.APIKey
	if config.IsPlaceholderKey(apiKey) {
		apiKey = ""
	}

	return &HuggingFaceClient{
		name:       name,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Name returns the configured provider name.
func (c *HuggingFaceClient) Name() string {
	return c.name
}

// Available returns true if an API key is resolved.
func (c *HuggingFaceClient) Available() bool {
	return c.apiKey != ""
}

// Complete is not supported by the inference embeddings pipeline.
func (c *HuggingFaceClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return "", fmt.Errorf("provider %q; %w", c.name, ErrUnsupportedOperation)
}

// Embed returns one vector per input text, in input order.
func (c *HuggingFaceClient) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if !c.Available() {
		return nil, fmt.Errorf("provider %q; %w", c.name, ErrProviderUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{"inputs": texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request; %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", c.endpoint, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request; %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("inference request failed; %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response; %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var raw [][]float64
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response; %w", err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(raw))
	}

	vectors := make([][]float32, len(raw))
	for i, vec := range raw {
		vectors[i] = make([]float32, len(vec))
		for j, v := range vec {
			vectors[i][j] = float32(v)
		}
	}
	return vectors, nil
}

// HTTPStatusError carries a non-2xx status so callers can detect rate
// limiting.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}
