// Package activity tracks when each job (the value of the job label in a
// push's URL path) was last pushed, whether the push was merged locally or
// forwarded to its owning peer. The /-/status endpoint does not report
// these times. It holds operational bookkeeping only — never the
// aggregated metric state itself, which this gateway never persists
// across restarts (spec.md Non-goals).
package activity

import (
	"context"
	"time"
)

// Tracker records and recalls the last time a key was touched.
type Tracker interface {
	// Touch records that key was active at t.
	Touch(ctx context.Context, key string, t time.Time) error
	// LastSeen returns the last time key was touched, or the zero time if
	// it has never been seen.
	LastSeen(ctx context.Context, key string) (time.Time, error)
	// Close releases any resources held by the tracker.
	Close() error
}
