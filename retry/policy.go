// Package retry contains the [Policy] deciding whether a failed sink write is attempted again,
// and its implementations.
package retry

import (
	"context"
)

// Policy defines how many times a write is attempted and how long to wait between attempts.
//
// Implementations are not thread-safe. Every conversion uses its own instance made by Derive.
type Policy interface {
	// Attempt reports whether another attempt should be made.
	//
	// The first call always returns true. Later calls block for the policy's interval and
	// return false if no attempts remain or ctx is done first.
	Attempt(ctx context.Context) bool
	// Derive returns a new Policy with the same parameters and no attempts made.
	Derive() Policy
}

// Do calls fn until it succeeds or p stops allowing attempts, and returns the last error of fn.
func Do(ctx context.Context, p Policy, fn func() error) error {
	var err error
	for p.Attempt(ctx) {
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
