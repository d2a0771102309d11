// Package retry waits out backing services that are still starting. It is
// used at startup only; request paths surface store errors directly.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

const (
	defaultAttempts = 5
	defaultDelay    = 200 * time.Millisecond
	maxDelay        = 5 * time.Second
	jitter          = 0.1
)

type permanent struct{ err error }

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth another attempt. Do returns the inner error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

type settings struct {
	attempts int
	delay    time.Duration
	onRetry  func(attempt int, err error, delay time.Duration)
}

// Option tunes Do.
type Option func(*settings)

// WithMaxAttempts counts the first call too.
func WithMaxAttempts(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithInitialDelay is the wait after the first failure. It doubles per
// attempt up to five seconds.
func WithInitialDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithOnRetry is called before each wait.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(s *settings) { s.onRetry = fn }
}

// Do calls op until it returns nil or a Permanent error, the attempts run
// out, or ctx ends. The last error from op wins over ctx.Err().
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	s := settings{attempts: defaultAttempts, delay: defaultDelay}
	for _, opt := range opts {
		opt(&s)
	}

	var last error
	wait := s.delay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return err
		}

		last = op(ctx)
		if last == nil {
			return nil
		}
		var p *permanent
		if errors.As(last, &p) {
			return p.err
		}
		if attempt >= s.attempts {
			return last
		}

		d := spread(wait)
		if s.onRetry != nil {
			s.onRetry(attempt, last, d)
		}

		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last
		case <-timer.C:
		}

		wait = min(wait*2, maxDelay)
	}
}

func spread(d time.Duration) time.Duration {
	return d + time.Duration(float64(d)*jitter*(rand.Float64()*2-1))
}
