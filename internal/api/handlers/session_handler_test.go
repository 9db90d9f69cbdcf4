package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunchwheel/venue-roulette/internal/application/services"
	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/internal/domain/providers"
	"github.com/lunchwheel/venue-roulette/pkg/config"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

type stubGeocoder struct {
	resolved *providers.ResolvedAddress
	err      error
	calls    int
}

func (g *stubGeocoder) Resolve(ctx context.Context, address string) (*providers.ResolvedAddress, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.resolved, nil
}

func (g *stubGeocoder) ReverseGeocode(ctx context.Context, point entities.GeoPoint) (*providers.ResolvedAddress, error) {
	return g.resolved, g.err
}

type stubVenueProvider struct {
	venues []entities.Venue
	err    error
	calls  int
}

func (p *stubVenueProvider) Nearby(ctx context.Context, center entities.GeoPoint, radiusMeters float64, categories []entities.VenueCategory) ([]entities.Venue, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.venues, nil
}

func (p *stubVenueProvider) Name() string { return "stub" }

func testSearchConfig() *config.SearchConfig {
	return &config.SearchConfig{
		RadiusMeters: 2000,
		NightRadius:  1200,
		PlaceTypes:   []entities.VenueCategory{entities.CategoryRestaurant, entities.CategoryCafe},
		BeerTypes:    []entities.VenueCategory{entities.CategoryBar, entities.CategoryPub},
		FixedCenter: entities.SearchCenter{
			Point: entities.GeoPoint{Lat: 25.0465, Lng: 121.5155},
			Label: "the office",
			Fixed: true,
		},
		Buckets: config.DefaultBucketTable(),
	}
}

func testVenues() []entities.Venue {
	return []entities.Venue{
		{ID: "1", Name: "a", Category: entities.CategoryRestaurant, DistanceMeters: 100},
		{ID: "2", Name: "b", Category: entities.CategoryRestaurant, DistanceMeters: 200},
		{ID: "3", Name: "c", Category: entities.CategoryCafe, DistanceMeters: 300},
	}
}

func newSessionHandler(provider *stubVenueProvider, geocoder *stubGeocoder) (*SessionHandler, *services.SelectionService) {
	cfg := testSearchConfig()
	search := services.NewSearchService(provider, services.NewFilterService(), nil, cfg, nil)
	selection := services.NewSelectionServiceWithRand(search, nil, nil, rand.New(rand.NewSource(1)))
	return NewSessionHandler(selection, geocoder, cfg), selection
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body interface{}, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCreateSession_FixedCenter(t *testing.T) {
	provider := &stubVenueProvider{venues: testVenues()}
	handler, _ := newSessionHandler(provider, &stubGeocoder{})

	hour := 12
	rec := postJSON(t, handler.CreateSession, "/api/sessions",
		searchBody{UseFixedCenter: true, HourOfDay: &hour}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var session services.RouletteSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, entities.PhasePresenting, session.State.Phase)
	assert.Len(t, session.State.Candidates, 3)
	assert.Equal(t, "the office", session.Center.Label)
}

func TestCreateSession_GeocodesAddress(t *testing.T) {
	geocoder := &stubGeocoder{resolved: &providers.ResolvedAddress{
		Point:            entities.GeoPoint{Lat: 25.0478, Lng: 121.5168},
		FormattedAddress: "台北車站, 臺北市",
	}}
	provider := &stubVenueProvider{venues: testVenues()}
	handler, _ := newSessionHandler(provider, geocoder)

	rec := postJSON(t, handler.CreateSession, "/api/sessions",
		searchBody{Address: "台北車站"}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, geocoder.calls)
}

func TestCreateSession_AddressNotFound(t *testing.T) {
	geocoder := &stubGeocoder{err: apperrors.NewAddressNotFoundError("亂打的地址")}
	handler, _ := newSessionHandler(&stubVenueProvider{venues: testVenues()}, geocoder)

	rec := postJSON(t, handler.CreateSession, "/api/sessions",
		searchBody{Address: "亂打的地址"}, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "亂打的地址", body["address"])
}

func TestCreateSession_MissingCenter(t *testing.T) {
	handler, _ := newSessionHandler(&stubVenueProvider{venues: testVenues()}, &stubGeocoder{})

	rec := postJSON(t, handler.CreateSession, "/api/sessions", searchBody{}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpinAndRerollFlow(t *testing.T) {
	provider := &stubVenueProvider{venues: testVenues()}
	handler, selection := newSessionHandler(provider, &stubGeocoder{})

	session, err := selection.CreateSession(context.Background(),
		services.SearchRequest{Center: testSearchConfig().FixedCenter, HourOfDay: -1})
	require.NoError(t, err)
	callsAfterSearch := provider.calls

	rec := postJSON(t, handler.Spin, "/api/sessions/"+session.ID+"/spin",
		spinBody{PreviewCount: 3}, map[string]string{"id": session.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	var spinResponse struct {
		Final   *entities.Venue           `json:"final"`
		Session *services.RouletteSession `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spinResponse))
	require.NotNil(t, spinResponse.Final)
	assert.Equal(t, entities.PhaseSelected, spinResponse.Session.State.Phase)

	// reroll draws again from the same candidates without another fetch
	rec = postJSON(t, handler.Reroll, "/api/sessions/"+session.ID+"/reroll",
		spinBody{PreviewCount: 3}, map[string]string{"id": session.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, callsAfterSearch, provider.calls)

	// restart clears back to idle
	rec = postJSON(t, handler.Restart, "/api/sessions/"+session.ID+"/restart",
		nil, map[string]string{"id": session.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	var restarted services.RouletteSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &restarted))
	assert.Equal(t, entities.PhaseIdle, restarted.State.Phase)
}

func TestSpin_UnknownSession(t *testing.T) {
	handler, _ := newSessionHandler(&stubVenueProvider{venues: testVenues()}, &stubGeocoder{})

	rec := postJSON(t, handler.Spin, "/api/sessions/missing/spin",
		spinBody{}, map[string]string{"id": "missing"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSpin_BeforeSearchConflicts(t *testing.T) {
	provider := &stubVenueProvider{err: apperrors.NewProviderUnavailableError("stub", nil)}
	handler, selection := newSessionHandler(provider, &stubGeocoder{})

	session, err := selection.CreateSession(context.Background(),
		services.SearchRequest{Center: testSearchConfig().FixedCenter, HourOfDay: -1})
	require.Error(t, err)

	rec := postJSON(t, handler.Spin, "/api/sessions/"+session.ID+"/spin",
		spinBody{}, map[string]string{"id": session.ID})

	assert.Equal(t, http.StatusConflict, rec.Code)
}
