package lifecycle

import (
	"context"
	"sync/atomic"
	"time"
)

// PollPolicy bounds a confirmation loop. Every loop under a policy
// terminates: either the predicate holds, the context ends, or the attempt
// budget runs out.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int

	// Sleep is swapped out in tests.
	Sleep func(time.Duration)
}

// DefaultPollPolicy checks every 2 seconds, ten times.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    2 * time.Second,
		MaxAttempts: 10,
		Sleep:       time.Sleep,
	}
}

// Run invokes check until it reports done, returning ErrPollExhausted when
// the attempt budget runs out first. Errors from check end the loop
// immediately.
func (p PollPolicy) Run(ctx context.Context, check func(ctx context.Context) (bool, error)) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if attempt < p.MaxAttempts-1 {
			sleep(p.Interval)
		}
	}
	return ErrPollExhausted
}

// fetchEpoch orders responses within one fetch family. Beginning a fetch
// invalidates every response still in flight from earlier fetches of the
// same family.
type fetchEpoch struct {
	n atomic.Uint64
}

func (e *fetchEpoch) begin() uint64 {
	return e.n.Add(1)
}

func (e *fetchEpoch) stale(token uint64) bool {
	return e.n.Load() != token
}
