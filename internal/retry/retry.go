// Package retry provides exponential-backoff retrying for fallible remote
// calls. One policy instance serves every call site in the pipeline; what
// counts as retryable is the caller's decision via the Retryable predicate.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 2 * time.Second
)

// Policy retries an operation with exponential backoff. Attempt n (1-based)
// that fails retryably sleeps BaseDelay * 2^(n-1) before the next try:
// with the defaults that is 2s, 4s, 8s, 16s. There is no jitter. The final
// attempt's error, or any non-retryable error, propagates unchanged.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Retryable classifies errors. A nil predicate retries nothing.
	Retryable func(error) bool

	// OnRetry, if set, is invoked before each backoff sleep with the
	// 1-based attempt number that failed, the delay about to be taken,
	// and the error. Used for operator-visible progress reporting.
	OnRetry func(attempt int, delay time.Duration, err error)

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error

	Logger zerolog.Logger
}

// New returns a Policy with the default attempt count and base delay.
func New(retryable func(error) bool, logger zerolog.Logger) *Policy {
	return &Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Retryable:   retryable,
		Logger:      logger.With().Str("component", "retry").Logger(),
	}
}

// Do runs op until it succeeds, fails non-retryably, runs out of attempts,
// or ctx is cancelled.
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if attempt == maxAttempts || p.Retryable == nil || !p.Retryable(err) {
			return err
		}

		delay := p.BaseDelay << (attempt - 1)
		p.Logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("delay", delay).
			Err(err).
			Msg("transient failure, retrying")
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		if sleepErr := p.sleepFor(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

func (p *Policy) sleepFor(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
