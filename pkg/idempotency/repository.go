package idempotency

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKeyLocked is returned when another request holds the key's lock
	ErrKeyLocked = errors.New("idempotency key is locked by another request")

	// ErrKeyNotFound is returned when the key does not exist
	ErrKeyNotFound = errors.New("idempotency key not found")
)

// KeyRepository persists idempotency keys
type KeyRepository interface {
	// AcquireLock atomically creates the key or returns the existing one.
	// The boolean is true when this caller created the key and now holds
	// the processing lock.
	AcquireLock(ctx context.Context, key *Key) (*Key, bool, error)

	// ReleaseLock clears the lock without storing a response, allowing retry
	ReleaseLock(ctx context.Context, key, serviceID string) error

	// StoreResponse records the final response and marks the key completed
	StoreResponse(ctx context.Context, key, serviceID string, code int, body []byte) error

	// Get fetches a key by value
	Get(ctx context.Context, key, serviceID string) (*Key, error)

	// EnsureIndexes creates the unique and TTL indexes
	EnsureIndexes(ctx context.Context) error
}

// Config controls middleware behavior
type Config struct {
	ServiceID     string
	KeyTTL        time.Duration
	LockTimeout   time.Duration
	MaxBodyBytes  int64
	HeaderName    string
	RequireHeader bool
}

// DefaultConfig returns sensible defaults for mutating endpoints
func DefaultConfig(serviceID string) Config {
	return Config{
		ServiceID:    serviceID,
		KeyTTL:       24 * time.Hour,
		LockTimeout:  30 * time.Second,
		MaxBodyBytes: 1 << 20,
		HeaderName:   "Idempotency-Key",
	}
}
