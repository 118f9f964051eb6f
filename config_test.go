package idxsparse_test

import (
	"testing"

	"github.com/teenjuna/idxsparse"
	"github.com/teenjuna/idxsparse/internal/testing/require"
)

func TestConfigValidation(t *testing.T) {
	c := &idxsparse.Config{}

	require.PanicWithError(t, "codec can't be nil", func() {
		c.Codec(nil)
	})

	require.PanicWithError(t, "batch size can't be < 1", func() {
		c.BatchSize(0)
	})

	require.PanicWithError(t, "logger can't be nil", func() {
		c.Logger(nil)
	})

	require.PanicWithError(t, "prometheus can't be nil", func() {
		c.Prometheus(nil)
	})

	require.PanicWithError(t, "retry policy can't be nil", func() {
		c.WriteRetry(nil)
	})
}
