package retry

import (
	"context"
	"math"
	"time"
)

// ExponentialPolicy multiplies the wait by a base after every retry, up to a maximum.
type ExponentialPolicy struct {
	attempted   int
	attempts    int
	jitter      float64
	base        float64
	minInterval time.Duration
	maxInterval time.Duration
}

var _ Policy = (*ExponentialPolicy)(nil)

// Exponential returns a policy making at most attempts attempts, or unlimited ones if attempts
// is 0. The first retry waits minInterval.
func Exponential(attempts int, minInterval, maxInterval time.Duration) *ExponentialPolicy {
	if attempts < 0 {
		panic("attempts can't be < 0")
	}
	if minInterval <= 0 {
		panic("minInterval can't be <= 0")
	}
	if minInterval >= maxInterval {
		panic("minInterval can't be >= maxInterval")
	}
	return &ExponentialPolicy{
		attempts:    attempts,
		minInterval: minInterval,
		maxInterval: maxInterval,
		base:        2,
		jitter:      0.1,
	}
}

// WithBase sets the multiplier of the interval. Default is 2.
func (r *ExponentialPolicy) WithBase(base float64) *ExponentialPolicy {
	if base <= 1 {
		panic("base can't be <= 1")
	}
	r.base = base
	return r
}

// WithJitter sets the fraction of the interval by which waits vary randomly. Default is 0.1.
func (r *ExponentialPolicy) WithJitter(jitter float64) *ExponentialPolicy {
	checkJitter(jitter)
	r.jitter = jitter
	return r
}

func (r *ExponentialPolicy) Attempt(ctx context.Context) (ok bool) {
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

	return wait(ctx, r.interval(), r.jitter)
}

func (r *ExponentialPolicy) interval() time.Duration {
	f := float64(r.minInterval) * math.Pow(r.base, float64(r.attempted-1))
	if f >= float64(r.maxInterval) {
		return r.maxInterval
	}
	return time.Duration(f)
}

func (r *ExponentialPolicy) Derive() Policy {
	return Exponential(r.attempts, r.minInterval, r.maxInterval).
		WithBase(r.base).
		WithJitter(r.jitter)
}
