package submission

import (
	"context"
	"errors"
	"time"
)

// DefaultPollInterval is the wait between two status checks.
const DefaultPollInterval = time.Second

var ErrPollAttemptsExhausted = errors.New("poll attempts exhausted")

// Poller repeats a check until it reports done. MaxAttempts <= 0 means unbounded.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// PollUntil runs check every Interval until check reports done, check fails, ctx ends, or MaxAttempts checks have
// run. The interval is measured from the start of one check to the start of the next, so the time a check takes
// is part of the interval; a check slower than Interval is followed immediately by the next one. It returns the
// number of checks run.
func (p Poller) PollUntil(ctx context.Context, check func(ctx context.Context) (bool, error)) (int, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// armed before each check
	timer := time.NewTimer(interval)
	defer timer.Stop()

	attempts := 0
	for {
		attempts++
		done, err := check(ctx)
		if err != nil {
			return attempts, err
		}
		if done {
			return attempts, nil
		}

		if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
			return attempts, ErrPollAttemptsExhausted
		}

		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-timer.C:
		}
		timer.Reset(interval)
	}
}
