// Package kv is a minimal string-keyed value store. It backs the saved chat
// history, which is persisted as a single serialized document per key.
package kv

import "context"

type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
