package backoff

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Strategy returns the wait before retry number attempt, counting from zero
type Strategy func(attempt int, start time.Duration) time.Duration

func Exponential(attempt int, start time.Duration) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	return start << uint(attempt)
}

func Linear(attempt int, start time.Duration) time.Duration {
	return time.Duration(attempt+1) * start
}

// Backoff spaces out the retries of one operation, it is not safe for concurrent use
type Backoff struct {
	clock    clock.Clock
	strategy Strategy
	start    time.Duration
	limit    time.Duration
	attempt  int
}

type Option func(*Backoff)

// WithClock makes the waits run on c, a mock clock in tests
func WithClock(c clock.Clock) Option {
	return func(b *Backoff) {
		b.clock = c
	}
}

func New(strategy Strategy, start, limit time.Duration, opts ...Option) *Backoff {
	b := &Backoff{clock: clock.New(), strategy: strategy, start: start, limit: limit}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func NewExponential(start, limit time.Duration, opts ...Option) *Backoff {
	return New(Exponential, start, limit, opts...)
}

func NewLinear(start, limit time.Duration, opts ...Option) *Backoff {
	return New(Linear, start, limit, opts...)
}

// Next is the duration of the coming wait, capped by the limit
func (b *Backoff) Next() time.Duration {
	d := b.strategy(b.attempt, b.start)
	if b.limit > 0 && (d > b.limit || d <= 0) {
		d = b.limit
	}
	return d
}

// Attempts counts the completed waits
func (b *Backoff) Attempts() int {
	return b.attempt
}

func (b *Backoff) Reset() {
	b.attempt = 0
}

// Wait sleeps for Next, or returns the ctx error if ctx is done first
func (b *Backoff) Wait(ctx context.Context) error {
	t := b.clock.Timer(b.Next())
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		b.attempt++
		return nil
	}
}
