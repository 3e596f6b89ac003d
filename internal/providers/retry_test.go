package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/docpipe/docpipe/internal/config"
)

type flakyEmbedder struct {
	calls    int
	failures int
	err      error
}

func (f *flakyEmbedder) Name() string    { return "flaky" }
func (f *flakyEmbedder) Available() bool { return true }

func (f *flakyEmbedder) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return [][]float32{{1, 2, 3}}, nil
}

func fastSettings(maxRetries int) config.RateLimitSettings {
	return config.RateLimitSettings{
		DelayBetweenRequests: 0,
		MaxRetries:           maxRetries,
		RetryDelayBase:       0.001,
		Exponential:          true,
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, err: errors.New("API error 429: rate limit exceeded")}
	client := NewRateLimitedEmbedder(inner, fastSettings(3), slog.Default())

	vectors, err := client.Embed(context.Background(), "m", []string{"a"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vectors))
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls (2 failures + 1 success), got %d", inner.calls)
	}
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyEmbedder{failures: 100, err: &HTTPStatusError{StatusCode: 429, Body: "slow down"}}
	client := NewRateLimitedEmbedder(inner, fastSettings(2), slog.Default())

	_, err := client.Embed(context.Background(), "m", []string{"a"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// Initial attempt plus max_retries retries.
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}

func TestNonRateErrorFailsImmediately(t *testing.T) {
	inner := &flakyEmbedder{failures: 100, err: fmt.Errorf("invalid model name")}
	client := NewRateLimitedEmbedder(inner, fastSettings(5), slog.Default())

	_, err := client.Embed(context.Background(), "m", []string{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call for a permanent error, got %d", inner.calls)
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"http 429", &HTTPStatusError{StatusCode: 429, Body: "x"}, true},
		{"http 500", &HTTPStatusError{StatusCode: 500, Body: "x"}, false},
		{"rate substring", errors.New("upstream rate limit"), true},
		{"plain error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimited(tt.err); got != tt.want {
				t.Errorf("IsRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
