package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var errTransient = errors.New("transient")

func testPolicy(slept *[]time.Duration) *Policy {
	p := New(func(err error) bool { return errors.Is(err, errTransient) }, zerolog.Nop())
	p.sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return p
}

func TestDoSucceedsFirstTry(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 || len(slept) != 0 {
		t.Errorf("calls = %d, sleeps = %d; want 1 call and no sleeps", calls, len(slept))
	}
}

func TestDoRetriesWithExponentialBackoff(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	// Fail retryably on attempts 1 and 2, succeed on attempt 3.
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	// Total sleep must be 2 + 4 = 6 seconds with the default base delay.
	var total time.Duration
	for _, d := range slept {
		total += d
	}
	if total != 6*time.Second {
		t.Errorf("total sleep = %v, want 6s (got %v)", total, slept)
	}
}

func TestDoNonRetryableErrorPropagatesUnchanged(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	fatal := errors.New("bad request")
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Errorf("Do() error = %v, want %v", err, fatal)
	}
	if calls != 1 || len(slept) != 0 {
		t.Errorf("non-retryable error must not retry: calls = %d, sleeps = %d", calls, len(slept))
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Errorf("Do() error = %v, want %v", err, errTransient)
	}
	if calls != DefaultMaxAttempts {
		t.Errorf("calls = %d, want %d", calls, DefaultMaxAttempts)
	}
	// Delays double each time: 2, 4, 8, 16.
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("sleeps = %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestDoReportsRetries(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	type report struct {
		attempt int
		delay   time.Duration
	}
	var reports []report
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		reports = append(reports, report{attempt, delay})
	}

	calls := 0
	_ = p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errTransient
		}
		return nil
	})

	if len(reports) != 1 || reports[0].attempt != 1 || reports[0].delay != 2*time.Second {
		t.Errorf("reports = %+v, want one report for attempt 1 with 2s delay", reports)
	}
}

func TestDoHonorsContextDuringSleep(t *testing.T) {
	p := New(func(error) bool { return true }, zerolog.Nop())
	p.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	err := p.Do(context.Background(), func(ctx context.Context) error {
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}
