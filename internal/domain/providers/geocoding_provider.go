package providers

import (
	"context"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
)

// GeocodingProvider defines the interface for address resolution services
type GeocodingProvider interface {
	// Resolve converts a free-text address to a coordinate, trying query
	// variants and fallback endpoints before giving up
	Resolve(ctx context.Context, address string) (*ResolvedAddress, error)

	// ReverseGeocode converts a coordinate to a formatted address
	ReverseGeocode(ctx context.Context, point entities.GeoPoint) (*ResolvedAddress, error)
}

// ResolvedAddress is a geocoding result
type ResolvedAddress struct {
	Point            entities.GeoPoint `json:"point"`
	FormattedAddress string            `json:"formatted_address"`
}
