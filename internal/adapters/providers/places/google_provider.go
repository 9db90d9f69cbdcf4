package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/lunchwheel/venue-roulette/internal/adapters/providers/failover"
	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/pkg/config"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

// GoogleProvider queries the Google Places nearby-search API. It is the
// commercial counterpart of the Overpass provider; one request is issued per
// requested category because the API takes a single type at a time.
type GoogleProvider struct {
	cfg        *config.GoogleConfig
	httpClient *http.Client
}

// NewGoogleProvider creates a new Google Places venue provider
func NewGoogleProvider(cfg *config.GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name identifies the provider in logs and failure reports
func (p *GoogleProvider) Name() string {
	return "google_places"
}

// googlePlace is the raw record shape of a nearby-search result, with the
// coordinate nested inside a geometry object.
type googlePlace struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Vicinity string   `json:"vicinity"`
	Types    []string `json:"types"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	OpeningHours *struct {
		OpenNow bool `json:"open_now"`
	} `json:"opening_hours,omitempty"`
}

type googleResponse struct {
	Status  string        `json:"status"`
	Results []googlePlace `json:"results"`
}

// Nearby returns venues of the requested categories within radiusMeters of
// center. Categories map onto Google place types; results from the per-type
// requests are concatenated without deduplication, which the filter pipeline
// handles downstream.
func (p *GoogleProvider) Nearby(ctx context.Context, center entities.GeoPoint, radiusMeters float64, categories []entities.VenueCategory) ([]entities.Venue, error) {
	if radiusMeters <= 0 {
		return nil, apperrors.NewValidationError("radius must be positive")
	}
	if len(categories) == 0 {
		return nil, apperrors.NewValidationError("at least one venue category is required")
	}

	venues := []entities.Venue{}
	var failures []apperrors.AttemptFailure

	for _, category := range categories {
		raw, _, err := failover.Do(ctx,
			failover.Config{Provider: p.Name(), Timeout: p.cfg.Timeout},
			[]string{p.cfg.Endpoint},
			func(ctx context.Context, endpoint string) (*googleResponse, error) {
				return p.fetch(ctx, endpoint, center, radiusMeters, category)
			})
		if err != nil {
			var unavailable *apperrors.ProviderUnavailableError
			if errors.As(err, &unavailable) {
				failures = append(failures, unavailable.Attempts...)
				continue
			}
			return nil, err
		}

		venues = append(venues, p.normalize(raw.Results, center, category)...)
	}

	if len(venues) == 0 {
		return nil, apperrors.NewProviderUnavailableError(p.Name(), failures)
	}
	return venues, nil
}

func (p *GoogleProvider) fetch(ctx context.Context, endpoint string, center entities.GeoPoint, radiusMeters float64, category entities.VenueCategory) (*googleResponse, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	params.Set("radius", strconv.Itoa(int(radiusMeters)))
	params.Set("type", googleType(category))
	params.Set("key", p.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Status != "OK" && parsed.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places api status: %s", parsed.Status)
	}
	if len(parsed.Results) == 0 {
		return nil, failover.ErrEmptyResult
	}
	return &parsed, nil
}

// normalize maps raw places into canonical venues. Records whose geometry is
// missing resolve to coordinate (0,0) and are dropped silently.
func (p *GoogleProvider) normalize(results []googlePlace, center entities.GeoPoint, requested entities.VenueCategory) []entities.Venue {
	venues := make([]entities.Venue, 0, len(results))

	for _, place := range results {
		if place.Geometry.Location.Lat == 0 && place.Geometry.Location.Lng == 0 {
			continue
		}

		location := entities.GeoPoint{
			Lat: place.Geometry.Location.Lat,
			Lng: place.Geometry.Location.Lng,
		}

		id := place.PlaceID
		if id == "" {
			id = uuid.New().String()
		}

		name := place.Name
		if name == "" {
			name = namePlaceholder
		}

		hoursText := ""
		if place.OpeningHours != nil {
			if place.OpeningHours.OpenNow {
				hoursText = "open now"
			} else {
				hoursText = "closed"
			}
		}

		venues = append(venues, entities.Venue{
			ID:               id,
			Name:             name,
			Category:         categoryFromTypes(place.Types, requested),
			Location:         location,
			DistanceMeters:   entities.Distance(center, location),
			Address:          place.Vicinity,
			OpeningHoursText: hoursText,
		})
	}

	return venues
}

// categoryFromTypes resolves the venue category from the place's own type
// list, falling back to the requested category. A bar search for example can
// return places Google itself tags night_club.
func categoryFromTypes(types []string, requested entities.VenueCategory) entities.VenueCategory {
	for _, t := range types {
		switch t {
		case "restaurant":
			return entities.CategoryRestaurant
		case "meal_takeaway":
			return entities.CategoryFastFood
		case "cafe":
			return entities.CategoryCafe
		case "bar":
			return entities.CategoryBar
		case "night_club":
			return entities.CategoryNightclub
		case "convenience_store":
			return entities.CategoryConvenienceStore
		}
	}
	return requested
}

// googleType maps a venue category to the closest Google place type
func googleType(category entities.VenueCategory) string {
	switch category {
	case entities.CategoryFastFood:
		return "meal_takeaway"
	case entities.CategoryFoodCourt:
		return "restaurant"
	case entities.CategoryPub, entities.CategoryBrewery:
		return "bar"
	case entities.CategoryNightclub:
		return "night_club"
	case entities.CategoryConvenienceStore:
		return "convenience_store"
	case entities.CategoryCafe:
		return "cafe"
	case entities.CategoryBar:
		return "bar"
	default:
		return "restaurant"
	}
}
