package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// RetryPolicy bounds how often a failed completion is re-attempted.
type RetryPolicy struct {
	Attempts   int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// DefaultRetryPolicy makes three attempts with exponential waits between 4s and 10s.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, MinBackoff: 4 * time.Second, MaxBackoff: 10 * time.Second}

// RetryingProvider re-issues completions that failed for transient reasons
// (rate limits, overload, 5xx).
type RetryingProvider struct {
	provider Provider
	policy   RetryPolicy
}

// NewRetryingProvider wraps provider with the given retry policy.
func NewRetryingProvider(provider Provider, policy RetryPolicy) Provider {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &RetryingProvider{provider: provider, policy: policy}
}

func (r *RetryingProvider) Name() string {
	return r.provider.Name()
}

func (r *RetryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	backoff := r.policy.MinBackoff
	var lastErr error
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		resp, err := r.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsTransient(err) || attempt == r.policy.Attempts {
			break
		}

		slog.Debug("retrying completion", "provider", r.provider.Name(), "attempt", attempt, "wait", backoff, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > r.policy.MaxBackoff {
			backoff = r.policy.MaxBackoff
		}
	}
	if IsTransient(lastErr) && r.policy.Attempts > 1 {
		return nil, fmt.Errorf("giving up after %d attempts: %w", r.policy.Attempts, lastErr)
	}
	return nil, lastErr
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "overloaded")
}
