// Package kv defines the key-value persistence capability the cart aggregate
// is built against: a serialized blob per slot, with read, write, and erase.
// Failures are non-fatal by contract; callers log and carry on with their
// in-memory state.
package kv

import "context"

// Store is the minimal slot-per-key persistence surface.
type Store interface {
	// Read returns the serialized value at key. The boolean reports presence:
	// an absent slot is ("", false, nil), not an error.
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string) error
	Erase(ctx context.Context, key string) error
}
