package domain

import "context"

// Backend is the durable key-value store every collection is persisted in.
// Keys are shared by all collections; naming discipline alone prevents collisions.
type Backend interface {
	// Get returns the value stored under key, or ok=false if the key is absent
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the given keys; absent keys are ignored
	Remove(ctx context.Context, keys ...string) error

	// Keys enumerates every stored key
	Keys(ctx context.Context) ([]string, error)
}
