package store

import (
	"context"
	"time"
)

// IdempotencyStore keeps short-lived checkout claims so a client retry after
// a timeout resumes the existing pending order instead of creating a second
// one. Entries expire on their own; a completed checkout releases its claim.
type IdempotencyStore interface {
	// Claim records key -> orderRef if no claim exists. It returns the ref
	// now stored under the key and whether this call created it.
	Claim(ctx context.Context, key, orderRef string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key string) error
}
