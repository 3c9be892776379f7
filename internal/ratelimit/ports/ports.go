// Package ports defines the store interface for the creation rate limiter.
package ports

import (
	"context"
	"time"
)

// WindowStore tracks creation events per key for rolling-window counting.
type WindowStore interface {
	// CountSince returns the number of events for key recorded at or after
	// the cutoff.
	CountSince(ctx context.Context, key string, cutoff time.Time) (int, error)

	// RecordEvent appends one event for key at the given time.
	RecordEvent(ctx context.Context, key string, at time.Time) error
}
