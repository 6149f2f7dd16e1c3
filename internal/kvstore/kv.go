// Package kvstore is the shared-cache abstraction behind token revocation and
// OTP attempt counting. All backends honour per-key TTLs.
package kvstore

import (
	"context"
	"time"
)

type Store interface {
	// SetWithTTL stores value under key. A ttl <= 0 stores nothing.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value and whether the key exists and is unexpired.
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	// Incr increments an integer counter, starting the ttl when the key is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
