package repository

import "context"

// KeyValueStore is the persistence port for the local recipe collection.
// Values are opaque byte slices; the whole collection is stored under one key.
type KeyValueStore interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
