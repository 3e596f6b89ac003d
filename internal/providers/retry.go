package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/docpipe/docpipe/internal/config"
)

// IsRateLimited reports whether an error indicates API rate limiting,
// either an HTTP 429 or a message mentioning rates.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate")
}

// throttle applies the preventive delay and the retry schedule shared
// by the rate-limited client wrappers.
type throttle struct {
	limiter  *rate.Limiter
	settings config.RateLimitSettings
	logger   *slog.Logger
}

func newThrottle(settings config.RateLimitSettings, logger *slog.Logger) *throttle {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if settings.DelayBetweenRequests > 0 {
		interval := time.Duration(settings.DelayBetweenRequests * float64(time.Second))
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &throttle{limiter: limiter, settings: settings, logger: logger}
}

// run executes op under the preventive delay, retrying rate-limit
// errors with base*2^attempt (or constant base) delays up to
// max_retries. Other errors fail immediately.
func (t *throttle) run(ctx context.Context, op func() error) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	var policy backoff.BackOff
	base := time.Duration(t.settings.RetryDelayBase * float64(time.Second))
	if t.settings.Exponential {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = base
		exp.Multiplier = 2
		exp.RandomizationFactor = 0
		exp.MaxInterval = 10 * time.Minute
		exp.MaxElapsedTime = 0
		policy = exp
	} else {
		policy = backoff.NewConstantBackOff(base)
	}
	policy = backoff.WithContext(backoff.WithMaxRetries(policy, uint64(t.settings.MaxRetries)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !IsRateLimited(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, next time.Duration) {
		attempt++
		t.logger.Warn("rate limited, backing off",
			"attempt", attempt,
			"max_retries", t.settings.MaxRetries,
			"delay", next,
			"error", err,
		)
	})
}

// RateLimitedEmbedder wraps an EmbeddingClient with throttling.
type RateLimitedEmbedder struct {
	inner    EmbeddingClient
	throttle *throttle
}

var _ EmbeddingClient = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder wraps client with the given rate settings.
func NewRateLimitedEmbedder(client EmbeddingClient, settings config.RateLimitSettings, logger *slog.Logger) *RateLimitedEmbedder {
	return &RateLimitedEmbedder{
		inner:    client,
		throttle: newThrottle(settings, logger.With("provider", client.Name())),
	}
}

func (r *RateLimitedEmbedder) Name() string    { return r.inner.Name() }
func (r *RateLimitedEmbedder) Available() bool { return r.inner.Available() }

func (r *RateLimitedEmbedder) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := r.throttle.run(ctx, func() error {
		var opErr error
		vectors, opErr = r.inner.Embed(ctx, model, texts)
		return opErr
	})
	return vectors, err
}

// RateLimitedLLM wraps an LLMClient with throttling.
type RateLimitedLLM struct {
	inner    LLMClient
	throttle *throttle
}

var _ LLMClient = (*RateLimitedLLM)(nil)

// NewRateLimitedLLM wraps client with the given rate settings.
func NewRateLimitedLLM(client LLMClient, settings config.RateLimitSettings, logger *slog.Logger) *RateLimitedLLM {
	return &RateLimitedLLM{
		inner:    client,
		throttle: newThrottle(settings, logger.With("provider", client.Name())),
	}
}

func (r *RateLimitedLLM) Name() string    { return r.inner.Name() }
func (r *RateLimitedLLM) Available() bool { return r.inner.Available() }

func (r *RateLimitedLLM) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var text string
	err := r.throttle.run(ctx, func() error {
		var opErr error
		text, opErr = r.inner.Complete(ctx, req)
		return opErr
	})
	return text, err
}
