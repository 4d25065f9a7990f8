package http

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds how often a request is attempted and how long to wait
// between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// FetchError is returned once every attempt of a retried request failed.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Do calls fn until it succeeds or MaxAttempts is reached, sleeping Delay
// between attempts. A cancelled ctx stops the loop early.
//
// Example:
//
//	policy := RetryPolicy{MaxAttempts: 3, Delay: 500 * time.Millisecond}
//	err := policy.Do(ctx, url, func(ctx context.Context) error {
//	    data, err = client.DownloadBytes(ctx, url)
//	    return err
//	})
func (p RetryPolicy) Do(ctx context.Context, url string, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for try := 1; try <= attempts; try++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if try == attempts {
			break
		}
		if !p.wait(ctx) {
			return &FetchError{URL: url, Attempts: try, Err: ctx.Err()}
		}
	}

	return &FetchError{URL: url, Attempts: attempts, Err: err}
}

func (p RetryPolicy) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(p.Delay):
		return true
	}
}
