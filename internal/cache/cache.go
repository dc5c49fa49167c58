// Package cache provides the short-lived key-value store used for OAuth2
// state. Two backends are available: Redis for shared deployments and an
// in-process store for development and tests.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or has expired.
var ErrNotFound = errors.New("cache: key not found")

// Store is a string key-value store with per-key TTL.
type Store interface {
	// Set stores value under key for ttl. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// GetDel atomically returns the value and removes the key, so at most
	// one caller observes a given entry.
	GetDel(ctx context.Context, key string) (string, error)

	Ping(ctx context.Context) error
	Close() error
}
