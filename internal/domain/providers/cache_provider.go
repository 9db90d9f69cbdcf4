package providers

import (
	"context"
)

// CacheProvider defines the interface for caching geocoding results
type CacheProvider interface {
	// Get retrieves a cached value; returns an error when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an expiration in seconds
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a cached value
	Delete(ctx context.Context, key string) error
}
