package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/newsetl/internal/config"
	"github.com/IshaanNene/newsetl/internal/types"
)

// Retrier wraps a Fetcher with a bounded retry budget and linear backoff.
// Only FetchErrors marked retryable are retried.
type Retrier struct {
	next       Fetcher
	maxRetries int
	delay      time.Duration
	logger     *slog.Logger
}

// NewRetrier creates a Retrier around next.
func NewRetrier(next Fetcher, maxRetries int, delay time.Duration, logger *slog.Logger) *Retrier {
	return &Retrier{
		next:       next,
		maxRetries: maxRetries,
		delay:      delay,
		logger:     logger.With("component", "retrier"),
	}
}

// Fetch implements Fetcher.
func (r *Retrier) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	for {
		resp, err := r.next.Fetch(ctx, req)
		if err == nil {
			return resp, nil
		}

		var fetchErr *types.FetchError
		if !errors.As(err, &fetchErr) || !fetchErr.IsRetryable() {
			return nil, err
		}
		if req.RetryCount >= r.maxRetries {
			if r.maxRetries == 0 {
				return nil, err
			}
			return nil, &types.FetchError{
				URL:        fetchErr.URL,
				StatusCode: fetchErr.StatusCode,
				Err:        fmt.Errorf("%w after %d attempts: %w", types.ErrMaxRetries, req.RetryCount+1, fetchErr.Err),
			}
		}

		req.RetryCount++
		wait := r.delay * time.Duration(req.RetryCount)
		if fetchErr.RetryAfter > 0 {
			wait = fetchErr.RetryAfter
		}

		r.logger.Warn("retrying request",
			"url", req.URLString(),
			"retry", req.RetryCount,
			"max_retries", r.maxRetries,
			"wait", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &types.FetchError{URL: req.URLString(), Err: ctx.Err()}
		case <-timer.C:
		}
	}
}

// Close releases the wrapped fetcher.
func (r *Retrier) Close() error {
	return r.next.Close()
}

// Type returns the wrapped fetcher's type.
func (r *Retrier) Type() string {
	return r.next.Type()
}

// New builds the default fetcher stack: HTTP with bounded retries.
func New(cfg *config.FetcherConfig, logger *slog.Logger) (Fetcher, error) {
	httpFetcher, err := NewHTTPFetcher(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewRetrier(httpFetcher, cfg.MaxRetries, cfg.RetryDelay, logger), nil
}
