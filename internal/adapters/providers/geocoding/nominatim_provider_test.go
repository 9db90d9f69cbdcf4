package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/pkg/config"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

func testConfig(endpoints ...string) *config.GeocodingConfig {
	return &config.GeocodingConfig{
		Endpoints:      endpoints,
		CountryName:    "Taiwan",
		CountryMarkers: []string{"Taiwan", "臺灣", "台灣"},
		AdminSuffixes:  []string{"縣", "市", "區", "鄉", "鎮"},
		Timeout:        2 * time.Second,
	}
}

func taipeiStationResponse() string {
	return `[{"lat":"25.0478","lon":"121.5168","display_name":"台北車站, 中正區, 臺北市, 臺灣"}]`
}

func TestResolve_ReturnsFirstResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "台北車站", r.URL.Query().Get("q"))
		fmt.Fprint(w, taipeiStationResponse())
	}))
	defer server.Close()

	provider := NewNominatimProvider(testConfig(server.URL), nil)
	resolved, err := provider.Resolve(context.Background(), "台北車站")

	require.NoError(t, err)
	assert.InDelta(t, 25.0478, resolved.Point.Lat, 0.01)
	assert.InDelta(t, 121.5168, resolved.Point.Lng, 0.01)
	assert.Contains(t, resolved.FormattedAddress, "台北車站")
}

func TestResolve_EmptyAddressIsValidationError(t *testing.T) {
	provider := NewNominatimProvider(testConfig("http://unused"), nil)

	_, err := provider.Resolve(context.Background(), "   ")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestResolve_CountrySuffixVariantTried(t *testing.T) {
	queries := []string{}
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		if q == "信義夜市, Taiwan" {
			fmt.Fprint(w, `[{"lat":"25.03","lon":"121.57","display_name":"信義夜市, 臺灣"}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	provider := NewNominatimProvider(testConfig(server.URL), nil)
	resolved, err := provider.Resolve(context.Background(), "信義夜市")

	require.NoError(t, err)
	assert.InDelta(t, 25.03, resolved.Point.Lat, 0.001)
	assert.Equal(t, []string{"信義夜市", "信義夜市, Taiwan"}, queries)
}

func TestResolve_AdminSuffixStrippedVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "苗栗頭份" {
			fmt.Fprint(w, `[{"lat":"24.68","lon":"120.90","display_name":"頭份, 苗栗縣, 臺灣"}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	provider := NewNominatimProvider(testConfig(server.URL), nil)
	resolved, err := provider.Resolve(context.Background(), "苗栗縣頭份市")

	require.NoError(t, err)
	assert.InDelta(t, 24.68, resolved.Point.Lat, 0.001)
}

func TestResolve_FallsBackToSecondEndpoint(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, taipeiStationResponse())
	}))
	defer working.Close()

	provider := NewNominatimProvider(testConfig(broken.URL, working.URL), nil)
	resolved, err := provider.Resolve(context.Background(), "台北車站")

	require.NoError(t, err)
	assert.InDelta(t, 25.0478, resolved.Point.Lat, 0.01)
}

func TestResolve_BroadFallbackPrefersCountryMarker(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// the first pass over all variants finds nothing; the broad retry of
		// the raw query returns mixed-country results
		if calls <= 3 {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[
			{"lat":"35.68","lon":"139.76","display_name":"Chiyoda, Tokyo, Japan"},
			{"lat":"25.0478","lon":"121.5168","display_name":"中正區, 臺北市, 臺灣"}
		]`)
	}))
	defer server.Close()

	provider := NewNominatimProvider(testConfig(server.URL), nil)
	resolved, err := provider.Resolve(context.Background(), "中正區")

	require.NoError(t, err)
	assert.InDelta(t, 25.0478, resolved.Point.Lat, 0.001)
	assert.Contains(t, resolved.FormattedAddress, "臺灣")
}

func TestResolve_ExhaustedYieldsAddressNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	provider := NewNominatimProvider(testConfig(server.URL), nil)
	_, err := provider.Resolve(context.Background(), "nowhere at all")

	var notFound *apperrors.AddressNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nowhere at all", notFound.Address)
}

type memoryCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.store[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("key not found: %s", key)
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func TestResolve_SecondLookupServedFromCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, taipeiStationResponse())
	}))
	defer server.Close()

	provider := NewNominatimProvider(testConfig(server.URL), newMemoryCache())

	first, err := provider.Resolve(context.Background(), "台北車站")
	require.NoError(t, err)

	second, err := provider.Resolve(context.Background(), "台北車站")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, requests)
}

func TestReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		json.NewEncoder(w).Encode(nominatimResult{
			Lat: "25.0478", Lon: "121.5168",
			DisplayName: "台北車站, 中正區, 臺北市, 臺灣",
		})
	}))
	defer server.Close()

	provider := NewNominatimProvider(testConfig(server.URL), nil)
	resolved, err := provider.ReverseGeocode(context.Background(), entities.GeoPoint{Lat: 25.0478, Lng: 121.5168})

	require.NoError(t, err)
	assert.Contains(t, resolved.FormattedAddress, "中正區")
}
