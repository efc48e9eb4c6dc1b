// Package store defines the key-value store the token manager mirrors its state into.
package store

import "context"

// Keys used by the token manager.
const (
	KeyToken        = "localSessionToken"
	KeyTokenExpires = "localSessionTokenExpires"
	KeyTokenRaw     = "localSessionTokenRaw"
)

// Store is a session-scoped key-value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Destroyer is implemented by stores that can drop a whole session.
type Destroyer interface {
	Destroy(ctx context.Context) error
}
