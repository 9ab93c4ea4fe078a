package presence

import (
	"context"
	"time"
)

// DefaultTTL is how long a reported location stays associated with a sender.
const DefaultTTL = 10 * time.Minute

// Location is a sender's last reported coordinates.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Store keeps a short-lived keyed association from sender identifier to the
// sender's last-known location, awaiting a follow-up note. Every entry
// expires after the store's TTL; an expired entry reads as absent, never as
// stale data, so the association table stays bounded.
type Store interface {
	// Put records or refreshes the sender's location.
	Put(ctx context.Context, userID string, loc Location) error

	// Get returns the sender's location, or (nil, nil) when absent or expired.
	Get(ctx context.Context, userID string) (*Location, error)

	// Close releases the store's resources.
	Close() error
}
