package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// retryPolicy bounds how often a transient failure is retried.
type retryPolicy struct {
	attempts  int           // retries after the first try
	baseDelay time.Duration // backoff is baseDelay * attempt^2 plus jitter
}

var defaultRetry = retryPolicy{attempts: 3, baseDelay: time.Second}

// statusError is a non-2xx response from a backend.
type statusError struct {
	statusCode int
	body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.statusCode, e.body)
}

func (e *statusError) retryable() bool {
	return e.statusCode >= 500 || e.statusCode == http.StatusTooManyRequests
}

// doWithRetry executes a request, retrying network failures, 5xx and 429
// with quadratic backoff. The caller owns the returned body.
func doWithRetry(ctx context.Context, client *http.Client, policy retryPolicy, buildReq func() (*http.Request, error), logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= policy.attempts; attempt++ {
		if attempt > 0 {
			base := time.Duration(attempt*attempt) * policy.baseDelay
			backoff := base + time.Duration(rand.Int64N(int64(base/2+1)))
			logger.Warn("retrying request", "attempt", attempt+1, "backoff", backoff, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			se := &statusError{statusCode: resp.StatusCode, body: string(body)}
			if !se.retryable() {
				return nil, se
			}
			lastErr = se
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("giving up after %d retries: %w", policy.attempts, lastErr)
}
