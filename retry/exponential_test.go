package retry_test

import (
	"testing"
	"time"

	"github.com/teenjuna/idxsparse/internal/testing/require"
	"github.com/teenjuna/idxsparse/retry"
)

func TestExponential(t *testing.T) {
	run(t, "With invalid attempts", func(t *testing.T) {
		require.PanicWithError(t, "attempts can't be < 0", func() {
			_ = retry.Exponential(-1, time.Second, time.Minute)
		})
	})

	run(t, "With invalid intervals", func(t *testing.T) {
		require.PanicWithError(t, "minInterval can't be <= 0", func() {
			_ = retry.Exponential(0, 0, time.Minute)
		})
		require.PanicWithError(t, "minInterval can't be >= maxInterval", func() {
			_ = retry.Exponential(0, time.Minute, time.Minute)
		})
	})

	run(t, "With invalid base", func(t *testing.T) {
		require.PanicWithError(t, "base can't be <= 1", func() {
			_ = retry.Exponential(0, time.Second, time.Minute).WithBase(1)
		})
	})

	run(t, "Intervals grow up to the maximum", func(t *testing.T) {
		const jitter = 0.1
		p := retry.Exponential(6, time.Second, 5*time.Second).WithJitter(jitter)

		require.True(t, p.Attempt(t.Context()))
		for _, delay := range []time.Duration{
			time.Second,
			2 * time.Second,
			4 * time.Second,
			5 * time.Second,
			5 * time.Second,
		} {
			within(t, delay, jitter, func() {
				require.True(t, p.Attempt(t.Context()))
			})
		}
		require.Equal(t, p.Attempt(t.Context()), false)
	})

	run(t, "Custom base", func(t *testing.T) {
		p := retry.Exponential(0, time.Second, time.Hour).WithBase(3).WithJitter(0)

		require.True(t, p.Attempt(t.Context()))
		for _, delay := range []time.Duration{time.Second, 3 * time.Second, 9 * time.Second} {
			within(t, delay, 0, func() {
				require.True(t, p.Attempt(t.Context()))
			})
		}
	})
}
