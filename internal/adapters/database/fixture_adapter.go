package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/internal/domain/repositories"
	"github.com/lunchwheel/venue-roulette/internal/infrastructure/clients/postgres"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

// FixtureAdapter serves the opt-in offline venue fixtures from Postgres.
// It only runs when every live provider endpoint has failed and the fixture
// mode is explicitly enabled.
type FixtureAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFixtureAdapter creates a new fixture adapter
func NewFixtureAdapter(client *postgres.Client) repositories.FixtureRepository {
	return &FixtureAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

type fixtureRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Category     string         `db:"category"`
	Cuisine      sql.NullString `db:"cuisine"`
	Lat          float64        `db:"lat"`
	Lng          float64        `db:"lng"`
	Address      sql.NullString `db:"address"`
	Phone        sql.NullString `db:"phone"`
	Website      sql.NullString `db:"website"`
	OpeningHours sql.NullString `db:"opening_hours"`
}

// NearbyFixtures returns fixture venues within radiusMeters of center. The
// query prefilters on the bounding box; the exact haversine cutoff happens
// in memory because the fixture table is small.
func (a *FixtureAdapter) NearbyFixtures(ctx context.Context, center entities.GeoPoint, radiusMeters float64) ([]entities.Venue, error) {
	box := entities.BoxAround(center, radiusMeters)

	query, args, err := a.db.From("venue_fixtures").
		Select("id", "name", "category", "cuisine", "lat", "lng", "address", "phone", "website", "opening_hours").
		Where(
			goqu.C("lat").Between(goqu.Range(box.South, box.North)),
			goqu.C("lng").Between(goqu.Range(box.West, box.East)),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build fixture query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query venue fixtures", err)
	}
	defer rows.Close()

	venues := []entities.Venue{}
	for rows.Next() {
		var row fixtureRow
		if err := rows.Scan(
			&row.ID, &row.Name, &row.Category, &row.Cuisine,
			&row.Lat, &row.Lng, &row.Address, &row.Phone,
			&row.Website, &row.OpeningHours,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan venue fixture", err)
		}

		location := entities.GeoPoint{Lat: row.Lat, Lng: row.Lng}
		distance := entities.Distance(center, location)
		if distance > radiusMeters {
			continue
		}

		venues = append(venues, entities.Venue{
			ID:               row.ID,
			Name:             row.Name,
			Category:         entities.VenueCategory(row.Category),
			Cuisine:          row.Cuisine.String,
			Location:         location,
			DistanceMeters:   distance,
			Address:          row.Address.String,
			Phone:            row.Phone.String,
			Website:          row.Website.String,
			OpeningHoursText: row.OpeningHours.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read venue fixtures", err)
	}

	return venues, nil
}
