// Package cache stores computed pruning masks keyed by the scores that
// produced them, so repeated decodes of the same batch skip the matrix-tree
// pass. Backends cover the deployment spectrum: memory for single-process
// use and tests, files for CLI runs, Redis for multi-instance services, and
// a null cache to disable caching outright.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is the interface all backends implement. A miss is reported via the
// boolean, not an error; errors mean the backend itself failed.
type Cache interface {
	// Get retrieves a value. The boolean reports whether the key was found
	// and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Key builds a cache key by hashing the components under a namespace
// prefix. The full SHA-256 hash (64 hex chars) is kept to rule out
// collisions between score vectors that agree on a truncated prefix.
func Key(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes the SHA-256 hash of data as a 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
