package retry

import (
	"context"
	"time"
)

// Policy is a bounded retry schedule. Waits[i] is slept before attempt i+2;
// the first attempt runs immediately. A schedule shorter than MaxAttempts-1
// reuses its last entry.
type Policy struct {
	MaxAttempts int
	Waits       []time.Duration
}

// UserLookupPolicy covers identity-provider propagation lag: the first wait
// is the longest because a user created milliseconds ago is the common case.
func UserLookupPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Waits: []time.Duration{
			2 * time.Second,
			time.Second,
			time.Second,
			time.Second,
		},
	}
}

// NoDelayPolicy keeps the attempt budget but sleeps nowhere. Tests use it.
func NoDelayPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts}
}

func (p Policy) wait(attempt int) time.Duration {
	if len(p.Waits) == 0 {
		return 0
	}
	if attempt >= len(p.Waits) {
		return p.Waits[len(p.Waits)-1]
	}
	return p.Waits[attempt]
}

// Do runs fn up to MaxAttempts times, sleeping per the schedule between
// attempts. fn reports (done, err); done=false with a nil err means "not yet
// visible, try again". The last error (or nil) is returned after exhaustion.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) (bool, error)) (bool, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			w := p.wait(i - 1)
			if w > 0 {
				select {
				case <-time.After(w):
				case <-ctx.Done():
					return false, ctx.Err()
				}
			}
		}
		done, err := fn(ctx)
		if done {
			return true, err
		}
		lastErr = err
	}
	return false, lastErr
}
