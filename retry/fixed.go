package retry

import (
	"context"
	"time"
)

// FixedPolicy waits the same interval before every retry.
type FixedPolicy struct {
	attempted int
	attempts  int
	jitter    float64
	interval  time.Duration
}

var _ Policy = (*FixedPolicy)(nil)

// Fixed returns a policy making at most attempts attempts, or unlimited ones if attempts is 0.
// Fixed(1, 0) never retries.
func Fixed(attempts int, interval time.Duration) *FixedPolicy {
	if attempts < 0 {
		panic("attempts can't be < 0")
	}
	if interval < 0 {
		panic("interval can't be < 0")
	}
	return &FixedPolicy{
		attempts: attempts,
		interval: interval,
		jitter:   0.1,
	}
}

// WithJitter sets the fraction of the interval by which waits vary randomly. Default is 0.1.
func (r *FixedPolicy) WithJitter(jitter float64) *FixedPolicy {
	checkJitter(jitter)
	r.jitter = jitter
	return r
}

func (r *FixedPolicy) Attempt(ctx context.Context) (ok bool) {
	defer func() {
		if ok {
			r.attempted++
		}
	}()

	if r.attempted == 0 {
		return true
	}
	if r.attempts != 0 && r.attempted >= r.attempts {
		return false
	}

	return wait(ctx, r.interval, r.jitter)
}

func (r *FixedPolicy) Derive() Policy {
	return Fixed(r.attempts, r.interval).WithJitter(r.jitter)
}
