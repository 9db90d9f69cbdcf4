package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lunchwheel/venue-roulette/internal/application/services"
	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/internal/domain/providers"
	"github.com/lunchwheel/venue-roulette/pkg/config"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

// searchBody is the request payload shared by the venue search and session
// endpoints. Either a coordinate, a free-text address, or the fixed center
// must identify where to search.
type searchBody struct {
	Lat            *float64 `json:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty"`
	Address        string   `json:"address,omitempty"`
	UseFixedCenter bool     `json:"use_fixed_center,omitempty"`
	RadiusMeters   float64  `json:"radius_meters,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	Mode           string   `json:"mode,omitempty"`
	HourOfDay      *int     `json:"hour_of_day,omitempty"`
	PeopleCount    int      `json:"people_count,omitempty"`
}

// VenueHandler handles stateless venue search requests
type VenueHandler struct {
	search   *services.SearchService
	geocoder providers.GeocodingProvider
	cfg      *config.SearchConfig
}

// NewVenueHandler creates a new venue handler
func NewVenueHandler(search *services.SearchService, geocoder providers.GeocodingProvider, cfg *config.SearchConfig) *VenueHandler {
	return &VenueHandler{
		search:   search,
		geocoder: geocoder,
		cfg:      cfg,
	}
}

// SearchVenues handles POST /api/venues/search
func (h *VenueHandler) SearchVenues(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := buildSearchRequest(r.Context(), body, h.geocoder, h.cfg)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	venues, err := h.search.Search(r.Context(), req)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"center": req.Center,
		"count":  len(venues),
		"venues": venues,
	})
}

// buildSearchRequest resolves the search center and maps the payload onto a
// service request. The address path geocodes; the fixed-center path uses the
// configured venue; otherwise the raw coordinate is taken as-is.
func buildSearchRequest(ctx context.Context, body searchBody, geocoder providers.GeocodingProvider, cfg *config.SearchConfig) (services.SearchRequest, error) {
	var center entities.SearchCenter

	switch {
	case body.UseFixedCenter:
		center = cfg.FixedCenter
	case body.Address != "":
		resolved, err := geocoder.Resolve(ctx, body.Address)
		if err != nil {
			return services.SearchRequest{}, err
		}
		center = entities.SearchCenter{
			Point: resolved.Point,
			Label: resolved.FormattedAddress,
		}
	case body.Lat != nil && body.Lng != nil:
		center = entities.SearchCenter{
			Point: entities.GeoPoint{Lat: *body.Lat, Lng: *body.Lng},
		}
	default:
		return services.SearchRequest{}, apperrors.NewValidationError(
			"a coordinate, an address, or use_fixed_center is required")
	}

	categories := make([]entities.VenueCategory, 0, len(body.Categories))
	for _, c := range body.Categories {
		categories = append(categories, entities.VenueCategory(c))
	}

	hour := time.Now().Hour()
	if body.HourOfDay != nil {
		hour = *body.HourOfDay
	}

	return services.SearchRequest{
		Center:       center,
		RadiusMeters: body.RadiusMeters,
		Categories:   categories,
		Mode:         services.SearchMode(body.Mode),
		HourOfDay:    hour,
		PeopleCount:  body.PeopleCount,
	}, nil
}
