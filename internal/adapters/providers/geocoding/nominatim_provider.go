package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lunchwheel/venue-roulette/internal/adapters/providers/failover"
	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/internal/domain/providers"
	"github.com/lunchwheel/venue-roulette/internal/infrastructure/observability"
	"github.com/lunchwheel/venue-roulette/pkg/config"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

const (
	geocodeCacheKeyPrefix = "geocode:"
	geocodeCacheTTL       = 24 * 60 * 60
	maxResults            = 10
)

// NominatimProvider resolves free-text addresses against a list of
// Nominatim-compatible endpoints tried in order.
type NominatimProvider struct {
	cfg        *config.GeocodingConfig
	httpClient *http.Client
	cache      providers.CacheProvider
}

// NewNominatimProvider creates a new Nominatim geocoding provider. cache is
// optional; when nil every resolution hits the upstream endpoints.
func NewNominatimProvider(cfg *config.GeocodingConfig, cache providers.CacheProvider) providers.GeocodingProvider {
	return &NominatimProvider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: cache,
	}
}

// nominatimResult is the raw record shape of a Nominatim search response.
// Coordinates arrive as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve converts a free-text address to a coordinate. Query variants are
// tried in order against each endpoint; when every variant on every endpoint
// comes back empty, one broader query runs and results matching a country
// marker are preferred. Exhaustion yields AddressNotFound with the input
// echoed back.
func (p *NominatimProvider) Resolve(ctx context.Context, address string) (*providers.ResolvedAddress, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address must not be empty")
	}

	logger := observability.LoggerFromContext(ctx)

	if cached := p.cacheGet(ctx, address); cached != nil {
		logger.Debug().Str("address", address).Msg("geocode cache hit")
		return cached, nil
	}

	variants := p.queryVariants(address)

	resolved, _, err := failover.Do(ctx,
		failover.Config{Provider: "nominatim", Timeout: p.cfg.Timeout},
		p.cfg.Endpoints,
		func(ctx context.Context, endpoint string) (*providers.ResolvedAddress, error) {
			for _, variant := range variants {
				results, err := p.search(ctx, endpoint, variant)
				if err != nil {
					return nil, err
				}
				if len(results) > 0 {
					return toResolved(results[0])
				}
			}
			return nil, failover.ErrEmptyResult
		})
	if err == nil {
		p.cacheSet(ctx, address, resolved)
		return resolved, nil
	}

	// Broad fallback: re-run the raw query and prefer results whose display
	// name carries a marker for the target country.
	resolved, _, err = failover.Do(ctx,
		failover.Config{Provider: "nominatim", Timeout: p.cfg.Timeout},
		p.cfg.Endpoints,
		func(ctx context.Context, endpoint string) (*providers.ResolvedAddress, error) {
			results, err := p.search(ctx, endpoint, address)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return nil, failover.ErrEmptyResult
			}
			return toResolved(p.preferCountry(results))
		})
	if err != nil {
		logger.Info().Str("address", address).Msg("geocoding exhausted all endpoints and variants")
		return nil, apperrors.NewAddressNotFoundError(address)
	}

	p.cacheSet(ctx, address, resolved)
	return resolved, nil
}

// ReverseGeocode converts a coordinate to a formatted address
func (p *NominatimProvider) ReverseGeocode(ctx context.Context, point entities.GeoPoint) (*providers.ResolvedAddress, error) {
	resolved, _, err := failover.Do(ctx,
		failover.Config{Provider: "nominatim", Timeout: p.cfg.Timeout},
		p.cfg.Endpoints,
		func(ctx context.Context, endpoint string) (*providers.ResolvedAddress, error) {
			params := url.Values{}
			params.Set("format", "json")
			params.Set("lat", strconv.FormatFloat(point.Lat, 'f', -1, 64))
			params.Set("lon", strconv.FormatFloat(point.Lng, 'f', -1, 64))

			body, err := p.get(ctx, endpoint+"/reverse?"+params.Encode())
			if err != nil {
				return nil, err
			}

			var result nominatimResult
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("failed to parse reverse geocoding response: %w", err)
			}
			if result.DisplayName == "" {
				return nil, failover.ErrEmptyResult
			}
			return &providers.ResolvedAddress{
				Point:            point,
				FormattedAddress: result.DisplayName,
			}, nil
		})
	return resolved, err
}

// queryVariants generates the ordered set of query strings tried for an
// address: the raw text, the text with the country name appended, and the
// text with trailing administrative particles stripped.
func (p *NominatimProvider) queryVariants(address string) []string {
	variants := []string{address}

	if p.cfg.CountryName != "" && !strings.Contains(address, p.cfg.CountryName) {
		variants = append(variants, address+", "+p.cfg.CountryName)
	}

	if stripped := p.stripAdminSuffixes(address); stripped != address && stripped != "" {
		variants = append(variants, stripped)
	}

	return variants
}

// stripAdminSuffixes removes configured trailing administrative particles so
// that inputs like "台北市信義區" still match when the upstream index only
// carries the bare place name.
func (p *NominatimProvider) stripAdminSuffixes(address string) string {
	stripped := address
	for _, suffix := range p.cfg.AdminSuffixes {
		stripped = strings.ReplaceAll(stripped, suffix, "")
	}
	return strings.TrimSpace(stripped)
}

// preferCountry picks the first result whose display name contains a country
// marker, falling back to the first result.
func (p *NominatimProvider) preferCountry(results []nominatimResult) nominatimResult {
	for _, r := range results {
		for _, marker := range p.cfg.CountryMarkers {
			if strings.Contains(r.DisplayName, marker) {
				return r
			}
		}
	}
	return results[0]
}

func (p *NominatimProvider) search(ctx context.Context, endpoint, query string) ([]nominatimResult, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(maxResults))

	body, err := p.get(ctx, endpoint+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	return results, nil
}

func (p *NominatimProvider) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func toResolved(r nominatimResult) (*providers.ResolvedAddress, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse latitude %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse longitude %q: %w", r.Lon, err)
	}

	return &providers.ResolvedAddress{
		Point:            entities.GeoPoint{Lat: lat, Lng: lng},
		FormattedAddress: r.DisplayName,
	}, nil
}

func (p *NominatimProvider) cacheGet(ctx context.Context, address string) *providers.ResolvedAddress {
	if p.cache == nil {
		return nil
	}
	data, err := p.cache.Get(ctx, geocodeCacheKeyPrefix+address)
	if err != nil {
		return nil
	}
	var resolved providers.ResolvedAddress
	if err := json.Unmarshal(data, &resolved); err != nil {
		return nil
	}
	return &resolved
}

func (p *NominatimProvider) cacheSet(ctx context.Context, address string, resolved *providers.ResolvedAddress) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(resolved)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, geocodeCacheKeyPrefix+address, data, geocodeCacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to cache geocode result")
	}
}
