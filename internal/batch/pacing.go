package batch

import (
	"context"
	"time"
)

// DefaultPacing is the delay inserted after every item.
const DefaultPacing = 500 * time.Millisecond

// Pacer decides how long to wait between items. The pipeline's sequencing
// does not depend on the policy.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer waits a flat interval after every item.
type FixedPacer struct {
	Interval time.Duration
}

// Wait blocks for the interval or until ctx is done.
func (p FixedPacer) Wait(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
