package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key represents a stored idempotency key. It records the request
// fingerprint and the final response so retried requests replay the original
// outcome instead of posting twice.
type Key struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Key                string             `bson:"key"`
	ServiceID          string             `bson:"serviceId"`
	RequestPath        string             `bson:"requestPath"`
	RequestMethod      string             `bson:"requestMethod"`
	RequestFingerprint string             `bson:"requestFingerprint"`

	// Locking to prevent concurrent processing of the same key
	LockedAt *time.Time `bson:"lockedAt,omitempty"`

	// Cached response
	ResponseCode int    `bson:"responseCode,omitempty"`
	ResponseBody []byte `bson:"responseBody,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	ExpiresAt   time.Time  `bson:"expiresAt"` // TTL index
}

// IsCompleted returns true if the request has been completed
func (k *Key) IsCompleted() bool {
	return k.CompletedAt != nil
}

// IsLocked returns true if the request is currently being processed
func (k *Key) IsLocked() bool {
	return k.LockedAt != nil && k.CompletedAt == nil
}

// NormalizeKey trims whitespace from a client-supplied key
func NormalizeKey(key string) string {
	return strings.TrimSpace(key)
}

// ComputeFingerprint hashes the request body for parameter-mismatch detection
func ComputeFingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
