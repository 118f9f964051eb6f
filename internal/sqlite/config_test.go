package sqlite_test

import (
	"testing"

	"github.com/teenjuna/idxsparse/internal/sqlite"
	"github.com/teenjuna/idxsparse/internal/testing/require"
)

func TestOptionValidation(t *testing.T) {
	cfg := &sqlite.Config{}

	require.PanicWithError(t, "file can't be blank", func() {
		cfg.File(" ")
	})

	require.PanicWithError(t, "file can't contain ?", func() {
		cfg.File("file?mode=ro")
	})

	require.PanicWithError(t, "workers can't be < 1", func() {
		cfg.Workers(0)
	})
}
