package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/teenjuna/idxsparse/internal/testing/require"
	"github.com/teenjuna/idxsparse/retry"
)

func TestFixed(t *testing.T) {
	run(t, "With invalid attempts", func(t *testing.T) {
		require.PanicWithError(t, "attempts can't be < 0", func() {
			_ = retry.Fixed(-1, time.Second)
		})
	})

	run(t, "With invalid interval", func(t *testing.T) {
		require.PanicWithError(t, "interval can't be < 0", func() {
			_ = retry.Fixed(0, -1)
		})
	})

	run(t, "With invalid jitter", func(t *testing.T) {
		require.PanicWithError(t, "jitter can't be < 0", func() {
			_ = retry.Fixed(0, time.Second).WithJitter(-0.1)
		})
		require.PanicWithError(t, "jitter can't be >= 1", func() {
			_ = retry.Fixed(0, time.Second).WithJitter(1)
		})
	})

	run(t, "Single attempt", func(t *testing.T) {
		p := retry.Fixed(1, time.Second)
		require.True(t, p.Attempt(t.Context()))
		require.Equal(t, p.Attempt(t.Context()), false)
	})

	run(t, "Finite attempts wait the interval", func(t *testing.T) {
		const jitter = 0.2
		p := retry.Fixed(3, time.Second).WithJitter(jitter)

		within(t, 0, 0, func() {
			require.True(t, p.Attempt(t.Context()))
		})
		for range 2 {
			within(t, time.Second, jitter, func() {
				require.True(t, p.Attempt(t.Context()))
			})
		}
		within(t, 0, 0, func() {
			require.Equal(t, p.Attempt(t.Context()), false)
		})
	})

	run(t, "Infinite attempts", func(t *testing.T) {
		p := retry.Fixed(0, time.Millisecond)
		for range 100 {
			require.True(t, p.Attempt(t.Context()))
		}
	})

	run(t, "Canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		p := retry.Fixed(0, time.Hour)
		require.True(t, p.Attempt(ctx))

		time.AfterFunc(time.Minute, cancel)
		within(t, time.Minute, 0, func() {
			require.Equal(t, p.Attempt(ctx), false)
		})
	})

	run(t, "Derive starts over", func(t *testing.T) {
		p := retry.Fixed(1, time.Second)
		require.True(t, p.Attempt(t.Context()))
		require.Equal(t, p.Attempt(t.Context()), false)

		d := p.Derive()
		require.True(t, d.Attempt(t.Context()))
		require.Equal(t, d.Attempt(t.Context()), false)
	})
}
