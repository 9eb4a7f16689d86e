package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

type sleepFunc func(ctx context.Context, d time.Duration) error

// retryHook observes a failed attempt right before waiting for the next one.
type retryHook func(attempt int, wait time.Duration, err error)

type statusError struct {
	StatusCode int
	// RetryAfter is the wait advertised by GitHub, zero when unknown.
	RetryAfter time.Duration
	Err        error
}

func (e *statusError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("http status %d: %v", e.StatusCode, e.Err)
}

func (e *statusError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// retryPolicy retries GitHub calls with exponential backoff. A server
// advertised wait longer than the backoff replaces it; one longer than
// maxWait ends the run instead of sleeping through a rate limit window.
type retryPolicy struct {
	maxRetries     int
	initialBackoff time.Duration
	maxWait        time.Duration
	sleep          sleepFunc
	onRetry        retryHook
}

func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	if p.maxRetries < 0 {
		return fmt.Errorf("invalid maxRetries %d", p.maxRetries)
	}
	if p.initialBackoff <= 0 {
		p.initialBackoff = DefaultInitialBackoff
	}

	var lastErr error
	backoff := p.initialBackoff
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry canceled: %w", err)
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == p.maxRetries || !isRetryableError(err) {
			break
		}

		wait := backoff
		if advertised, ok := retryAfter(err); ok && advertised > wait {
			wait = advertised
		}
		if p.maxWait > 0 && wait > p.maxWait {
			return fmt.Errorf("retry wait %s exceeds limit %s: %w", wait.Round(time.Second), p.maxWait, err)
		}

		if p.onRetry != nil {
			p.onRetry(attempt+1, wait, err)
		}
		if err := p.sleep(ctx, wait); err != nil {
			return fmt.Errorf("sleep before retry: %w", err)
		}
		backoff *= 2
	}

	return fmt.Errorf("retry exhausted: %w", lastErr)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var stErr *statusError
	if errors.As(err, &stErr) {
		if stErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if stErr.StatusCode == http.StatusForbidden && looksLikeRateLimitError(stErr.Err) {
			return true
		}
		return stErr.StatusCode >= 500 && stErr.StatusCode <= 599
	}

	var netErr net.Error
	if !errors.As(err, &netErr) {
		return false
	}

	if netErr.Timeout() {
		return true
	}

	type temporary interface {
		Temporary() bool
	}
	if temp, ok := any(netErr).(temporary); ok && temp.Temporary() {
		return true
	}

	return false
}

// retryAfter returns the wait GitHub asked for, if any.
func retryAfter(err error) (time.Duration, bool) {
	var stErr *statusError
	if errors.As(err, &stErr) && stErr.RetryAfter > 0 {
		return stErr.RetryAfter, true
	}
	return 0, false
}

// looksLikeRateLimitError matches primary and secondary rate limit messages
// from both APIs.
func looksLikeRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	text := strings.ToLower(err.Error())
	return strings.Contains(text, "rate limit") || strings.Contains(text, "rate_limited")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
