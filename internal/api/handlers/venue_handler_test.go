package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunchwheel/venue-roulette/internal/application/services"
	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/internal/domain/providers"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

func newVenueHandler(provider *stubVenueProvider, geocoder *stubGeocoder) *VenueHandler {
	cfg := testSearchConfig()
	search := services.NewSearchService(provider, services.NewFilterService(), nil, cfg, nil)
	return NewVenueHandler(search, geocoder, cfg)
}

func TestSearchVenues_ByCoordinate(t *testing.T) {
	handler := newVenueHandler(&stubVenueProvider{venues: testVenues()}, &stubGeocoder{})

	lat, lng := 25.0478, 121.5168
	hour := -1
	rec := postJSON(t, handler.SearchVenues, "/api/venues/search",
		searchBody{Lat: &lat, Lng: &lng, HourOfDay: &hour}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Count  int              `json:"count"`
		Venues []entities.Venue `json:"venues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 3, response.Count)
	for _, v := range response.Venues {
		assert.LessOrEqual(t, v.DistanceMeters, 2000.0)
	}
}

func TestSearchVenues_ProviderUnavailableMapsTo502(t *testing.T) {
	provider := &stubVenueProvider{err: apperrors.NewProviderUnavailableError("overpass", nil)}
	handler := newVenueHandler(provider, &stubGeocoder{})

	lat, lng := 25.0478, 121.5168
	rec := postJSON(t, handler.SearchVenues, "/api/venues/search",
		searchBody{Lat: &lat, Lng: &lng}, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSearchVenues_NoCandidatesMapsTo404(t *testing.T) {
	provider := &stubVenueProvider{venues: []entities.Venue{
		{ID: "1", Name: "far away", Category: entities.CategoryRestaurant, DistanceMeters: 99999},
	}}
	handler := newVenueHandler(provider, &stubGeocoder{})

	lat, lng := 25.0478, 121.5168
	rec := postJSON(t, handler.SearchVenues, "/api/venues/search",
		searchBody{Lat: &lat, Lng: &lng}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchVenues_InvalidBody(t *testing.T) {
	handler := newVenueHandler(&stubVenueProvider{venues: testVenues()}, &stubGeocoder{})

	req := httptest.NewRequest(http.MethodPost, "/api/venues/search", nil)
	rec := httptest.NewRecorder()
	handler.SearchVenues(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeocodeHandler(t *testing.T) {
	geocoder := &stubGeocoder{resolved: &providers.ResolvedAddress{
		Point:            entities.GeoPoint{Lat: 25.0478, Lng: 121.5168},
		FormattedAddress: "台北車站, 臺北市",
	}}
	handler := NewGeocodeHandler(geocoder)

	req := httptest.NewRequest(http.MethodGet, "/api/geocode?address=台北車站", nil)
	rec := httptest.NewRecorder()
	handler.Geocode(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resolved providers.ResolvedAddress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.InDelta(t, 25.0478, resolved.Point.Lat, 0.001)
}

func TestGeocodeHandler_MissingAddress(t *testing.T) {
	handler := NewGeocodeHandler(&stubGeocoder{})

	req := httptest.NewRequest(http.MethodGet, "/api/geocode", nil)
	rec := httptest.NewRecorder()
	handler.Geocode(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReverseGeocodeHandler_InvalidParams(t *testing.T) {
	handler := NewGeocodeHandler(&stubGeocoder{})

	req := httptest.NewRequest(http.MethodGet, "/api/geocode/reverse?lat=abc&lng=121.5", nil)
	rec := httptest.NewRecorder()
	handler.ReverseGeocode(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
