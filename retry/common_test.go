package retry_test

import (
	"testing"
	"testing/synctest"
	"time"
)

// Amount of time allowed for measurement error.
const epsilon = time.Microsecond * 10

func run(t *testing.T, name string, fn func(t *testing.T)) {
	t.Run(name, func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, fn)
	})
}

// within fails the test unless fn takes delay, give or take jitter.
func within(t *testing.T, delay time.Duration, jitter float64, fn func()) {
	t.Helper()

	delta := time.Duration(float64(delay) * jitter)
	minDelay := (delay - delta).Truncate(epsilon)
	maxDelay := (delay + delta + epsilon).Truncate(epsilon)

	start := time.Now()
	fn()
	took := time.Since(start).Truncate(epsilon)

	if took < minDelay {
		t.Fatalf("delay %s < min delay %s", took, minDelay)
	}
	if took > maxDelay {
		t.Fatalf("delay %s > max delay %s", took, maxDelay)
	}
}
