// Package ready probes whether a spawned blackhole is answering.
//
// Spawn never reports bind or serve errors to its caller, so anything that
// needs to know a blackhole is really up (the CLI, for one) polls it here.
package ready

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultInitialInterval is the starting poll interval.
	DefaultInitialInterval = 10 * time.Millisecond

	// DefaultMaxInterval is the maximum poll interval after backoff.
	DefaultMaxInterval = 1 * time.Second

	// DefaultTimeout is the default maximum wait for readiness.
	DefaultTimeout = 30 * time.Second
)

// Checker performs a single readiness probe against a host:port address.
type Checker interface {
	Check(ctx context.Context, addr string) error
}

// Options overrides the Poll defaults. Zero fields keep the default.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Poll repeatedly calls checker.Check with exponential backoff until
// the check succeeds or the context is cancelled/timed out.
//
// If onFailure is non-nil it is called after each failed probe with the
// check error.
func Poll(ctx context.Context, addr string, checker Checker, opts *Options, onFailure func(err error)) error {
	timeout := DefaultTimeout
	interval := DefaultInitialInterval

	if opts != nil {
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		if opts.Interval > 0 {
			interval = opts.Interval
		}
	}

	maxInterval := max(DefaultMaxInterval, interval)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error

	for {
		err := checker.Check(ctx, addr)
		if err == nil {
			return nil
		}
		lastErr = err
		if onFailure != nil {
			onFailure(err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not ready after %s (last error: %w)", addr, timeout, lastErr)
		case <-time.After(interval):
		}

		interval = min(interval*2, maxInterval)
	}
}
