// Package resilience retries store operations that fail for transient
// reasons such as dropped connections or lock contention.
package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig is a capped, jittered doubling backoff policy.
type RetryConfig struct {
	Attempts  int           // total tries, first included; default 3
	BaseDelay time.Duration // delay before the first retry; default 200ms
	MaxDelay  time.Duration // default 5s
	Jitter    float64       // +/- fraction of each delay; negative disables

	// Retryable overrides IsTransient.
	Retryable func(error) bool
	OnRetry   func(attempt int, err error)
}

// DefaultRetryConfig is the policy used by the stores.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:  3,
		BaseDelay: 200 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Jitter:    0.25,
	}
}

// Do runs fn until it succeeds, returns a permanent error, runs out of
// attempts, or ctx ends. The last error from fn is returned.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions that return a value.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var (
		out T
		err error
	)
	for attempt := 1; ; attempt++ {
		out, err = fn(ctx)
		if err == nil {
			return out, nil
		}
		if attempt == cfg.Attempts || ctx.Err() != nil || !retryable(err) {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if !wait(ctx, cfg.delay(attempt)) {
			break
		}
	}

	var zero T
	return zero, err
}

func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.Attempts <= 0 {
		c.Attempts = def.Attempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = def.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = def.MaxDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	return c
}

// delay returns the pause after the given failed attempt (1-based).
func (c RetryConfig) delay(attempt int) time.Duration {
	d := c.MaxDelay
	if shift := attempt - 1; shift < 32 {
		if doubled := c.BaseDelay << shift; doubled > 0 && doubled < c.MaxDelay {
			d = doubled
		}
	}
	if c.Jitter > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * c.Jitter * float64(d))
	}
	return max(d, 0)
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RetryLogger returns an OnRetry callback that logs at Warn.
func RetryLogger(backend, op string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("resilience: retrying",
			zap.String("backend", backend),
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
