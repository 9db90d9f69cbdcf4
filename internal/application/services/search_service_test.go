package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/pkg/config"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

type stubVenueProvider struct {
	venues         []entities.Venue
	err            error
	calls          int
	lastRadius     float64
	lastCategories []entities.VenueCategory
}

func (p *stubVenueProvider) Nearby(ctx context.Context, center entities.GeoPoint, radiusMeters float64, categories []entities.VenueCategory) ([]entities.Venue, error) {
	p.calls++
	p.lastRadius = radiusMeters
	p.lastCategories = categories
	if p.err != nil {
		return nil, p.err
	}
	return p.venues, nil
}

func (p *stubVenueProvider) Name() string { return "stub" }

type stubFixtureRepo struct {
	venues []entities.Venue
	calls  int
}

func (r *stubFixtureRepo) NearbyFixtures(ctx context.Context, center entities.GeoPoint, radiusMeters float64) ([]entities.Venue, error) {
	r.calls++
	return r.venues, nil
}

func searchConfig() *config.SearchConfig {
	return &config.SearchConfig{
		RadiusMeters: 2000,
		NightRadius:  1200,
		PlaceTypes: []entities.VenueCategory{
			entities.CategoryRestaurant, entities.CategoryCafe,
		},
		BeerTypes: []entities.VenueCategory{
			entities.CategoryBar, entities.CategoryPub, entities.CategoryBrewery,
		},
		ExcludedKeywords: []string{"手搖"},
		Buckets:          config.DefaultBucketTable(),
	}
}

func center() entities.SearchCenter {
	return entities.SearchCenter{Point: entities.GeoPoint{Lat: 25.0478, Lng: 121.5168}}
}

func TestSearch_ReturnsFilteredCandidates(t *testing.T) {
	provider := &stubVenueProvider{venues: []entities.Venue{
		venue("in range", entities.CategoryRestaurant, 500),
		venue("out of range", entities.CategoryRestaurant, 2500),
		venue("in range", entities.CategoryRestaurant, 600),
	}}
	svc := NewSearchService(provider, NewFilterService(), nil, searchConfig(), nil)

	out, err := svc.Search(context.Background(), SearchRequest{Center: center(), HourOfDay: -1})

	require.NoError(t, err)
	require.Len(t, out, 1)
	for _, v := range out {
		assert.LessOrEqual(t, v.DistanceMeters, 2000.0)
	}
}

func TestSearch_BeerModeDefaults(t *testing.T) {
	provider := &stubVenueProvider{venues: []entities.Venue{
		venue("bar", entities.CategoryBar, 300),
	}}
	svc := NewSearchService(provider, NewFilterService(), nil, searchConfig(), nil)

	_, err := svc.Search(context.Background(), SearchRequest{Center: center(), Mode: ModeBeer, HourOfDay: -1})

	require.NoError(t, err)
	assert.Equal(t, 1200.0, provider.lastRadius)
	assert.Equal(t, []entities.VenueCategory{
		entities.CategoryBar, entities.CategoryPub, entities.CategoryBrewery,
	}, provider.lastCategories)
}

func TestSearch_ProviderUnavailablePropagates(t *testing.T) {
	provider := &stubVenueProvider{
		err: apperrors.NewProviderUnavailableError("overpass", []apperrors.AttemptFailure{
			{Endpoint: "a", Reason: "503"},
		}),
	}
	svc := NewSearchService(provider, NewFilterService(), nil, searchConfig(), nil)

	_, err := svc.Search(context.Background(), SearchRequest{Center: center(), HourOfDay: -1})

	var unavailable *apperrors.ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestSearch_FixtureFallbackWhenProvidersDown(t *testing.T) {
	provider := &stubVenueProvider{
		err: apperrors.NewProviderUnavailableError("overpass", nil),
	}
	fixtures := &stubFixtureRepo{venues: []entities.Venue{
		venue("offline pick", entities.CategoryRestaurant, 400),
	}}
	svc := NewSearchService(provider, NewFilterService(), fixtures, searchConfig(), nil)

	out, err := svc.Search(context.Background(), SearchRequest{Center: center(), HourOfDay: -1})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "offline pick", out[0].Name)
	assert.Equal(t, 1, fixtures.calls)
}

func TestSearch_NoCandidatesAfterFilter(t *testing.T) {
	provider := &stubVenueProvider{venues: []entities.Venue{
		venue("everything too far", entities.CategoryRestaurant, 9000),
	}}
	svc := NewSearchService(provider, NewFilterService(), nil, searchConfig(), nil)

	_, err := svc.Search(context.Background(), SearchRequest{Center: center(), HourOfDay: -1})

	var noCandidates *apperrors.NoCandidatesError
	require.ErrorAs(t, err, &noCandidates)
	assert.Equal(t, 1, noCandidates.Found)
}

func TestSearch_PeopleCountBiasesCategories(t *testing.T) {
	provider := &stubVenueProvider{venues: []entities.Venue{
		venue("cafe", entities.CategoryCafe, 100),
		venue("restaurant", entities.CategoryRestaurant, 200),
	}}
	svc := NewSearchService(provider, NewFilterService(), nil, searchConfig(), nil)

	// nine people land in the large bucket, which prefers restaurants
	out, err := svc.Search(context.Background(), SearchRequest{
		Center: center(), HourOfDay: -1, PeopleCount: 9,
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "restaurant", out[0].Name)
}
