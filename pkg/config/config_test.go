package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_OverpassConfig(t *testing.T) {
	os.Setenv("OVERPASS_ENDPOINTS", "https://a.example/api,https://b.example/api")
	os.Setenv("OVERPASS_TIMEOUT", "5s")
	defer func() {
		os.Unsetenv("OVERPASS_ENDPOINTS")
		os.Unsetenv("OVERPASS_TIMEOUT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, []string{"https://a.example/api", "https://b.example/api"}, cfg.Overpass.Endpoints)
	assert.Equal(t, 5*time.Second, cfg.Overpass.Timeout)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("OVERPASS_ENDPOINTS")
	os.Unsetenv("SEARCH_RADIUS")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 2000.0, cfg.Search.RadiusMeters)
	assert.Equal(t, 25*time.Second, cfg.Overpass.Timeout)
	assert.Len(t, cfg.Overpass.Endpoints, 3)
	assert.False(t, cfg.Fixtures.Enabled)
	assert.Equal(t, "Taiwan", cfg.Geocoding.CountryName)
	assert.InDelta(t, 25.0465, cfg.Search.FixedCenter.Point.Lat, 1e-9)
}

func TestDefaultBucketTable_Order(t *testing.T) {
	table := DefaultBucketTable()

	assert.Equal(t, "small", table.BucketFor(2).Name)
	assert.Equal(t, "medium", table.BucketFor(6).Name)
	assert.Equal(t, "large", table.BucketFor(20).Name)
	// out-of-range counts fall back to the default bucket
	assert.Equal(t, "medium", table.BucketFor(0).Name)
	assert.Equal(t, "medium", table.BucketFor(-3).Name)
}
