package providers

import (
	"context"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
)

// VenueProvider defines the interface for nearby-venue lookups. Implementations
// own their wire format and normalization; callers only ever see canonical
// Venue records with DistanceMeters already computed against center.
type VenueProvider interface {
	// Nearby returns venues of the requested categories within radiusMeters
	// of center. The result is normalized but not yet filtered or deduplicated.
	Nearby(ctx context.Context, center entities.GeoPoint, radiusMeters float64, categories []entities.VenueCategory) ([]entities.Venue, error)

	// Name identifies the provider in logs and failure reports
	Name() string
}
