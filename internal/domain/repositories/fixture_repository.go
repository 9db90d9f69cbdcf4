package repositories

import (
	"context"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
)

// FixtureRepository defines the interface for the opt-in offline venue
// fixtures used when every live provider is unavailable.
type FixtureRepository interface {
	// NearbyFixtures returns fixture venues within radiusMeters of center,
	// with DistanceMeters computed against center.
	NearbyFixtures(ctx context.Context, center entities.GeoPoint, radiusMeters float64) ([]entities.Venue, error)
}
