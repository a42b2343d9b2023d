package services

import (
	"context"
	"time"
)

// RetryPolicy bounds a retry loop: at most Attempts tries, Delay apart.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Attempt describes one failed try, as reported to a RetryReporter.
type Attempt struct {
	N     int // 1-based
	Of    int
	Err   error
	Final bool // no tries remain
}

// RetryReporter observes failed attempts.
type RetryReporter func(Attempt)

// Retry calls fn until it succeeds, the policy is exhausted, or ctx ends.
// With silent set, only the final failure is reported; otherwise every
// failed attempt is. The last error is returned.
func Retry(ctx context.Context, p RetryPolicy, silent bool, report RetryReporter, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for n := 1; n <= attempts; n++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		final := n == attempts
		if report != nil && (!silent || final) {
			report(Attempt{N: n, Of: attempts, Err: err, Final: final})
		}
		if final {
			break
		}
		t := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}
