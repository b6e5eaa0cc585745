package bridge

import (
	"context"
	"fmt"

	"github.com/simforge/simbridge/internal/station"
)

// withMastership runs fn under an exclusive lease on c. The lease is released
// on every exit path. Acquisition blocks until the host grants the lease or
// ctx is canceled; callers that need a bounded wait must pass a ctx with a
// deadline.
func withMastership(ctx context.Context, c station.Controller, fn func() error) error {
	release, err := c.AcquireMastership(ctx)
	if err != nil {
		return fmt.Errorf("request mastership on %s: %w", c.Name(), err)
	}
	defer release()
	return fn()
}
