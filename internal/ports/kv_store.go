package ports

import "context"

// KVStore is the local key-value storage the persisted collections live in.
// Values are whole JSON documents; there are no partial or conditional writes.
type KVStore interface {
	// Get returns the raw document under key. found is false when the key was never written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set replaces the document under key
	Set(ctx context.Context, key string, value []byte) error

	// Close releases the backend connection
	Close(ctx context.Context) error
}
