package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/lunchwheel/venue-roulette/internal/adapters/providers/failover"
	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/pkg/config"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

// namePlaceholder stands in for records with no usable name tag. Whether such
// records survive normalization is the DropUnnamed policy of the provider.
const namePlaceholder = "未命名店家"

// OverpassProvider queries the Overpass API mirrors for nearby venues. The
// mirrors serve the same data, so the first one to answer with a non-empty
// result wins.
type OverpassProvider struct {
	cfg        *config.OverpassConfig
	httpClient *http.Client

	// DropUnnamed drops records whose name resolves to the placeholder.
	// Fixed-center searches enable it; general searches keep unnamed venues.
	DropUnnamed bool
}

// NewOverpassProvider creates a new Overpass venue provider
func NewOverpassProvider(cfg *config.OverpassConfig) *OverpassProvider {
	return &OverpassProvider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name identifies the provider in logs and failure reports
func (p *OverpassProvider) Name() string {
	return "overpass"
}

// overpassElement is the raw record shape of an Overpass response. Nodes
// carry coordinates directly; ways carry them in a nested center object.
type overpassElement struct {
	Type   string  `json:"type"`
	ID     int64   `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// BuildQuery renders the Overpass QL statement for a bounding box and a set
// of categories. Each category expands to a node and a way clause so venues
// mapped as building outlines are found too.
func BuildQuery(box entities.BoundingBox, categories []entities.VenueCategory, timeoutSeconds int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[out:json][timeout:%d];\n(\n", timeoutSeconds)
	for _, category := range categories {
		fmt.Fprintf(&sb, "  node[\"amenity\"=\"%s\"][\"name\"](%f,%f,%f,%f);\n",
			category, box.South, box.West, box.North, box.East)
		fmt.Fprintf(&sb, "  way[\"amenity\"=\"%s\"][\"name\"](%f,%f,%f,%f);\n",
			category, box.South, box.West, box.North, box.East)
	}
	sb.WriteString(");\nout center;\n")
	return sb.String()
}

// Nearby returns venues of the requested categories within radiusMeters of
// center, normalized but not yet filtered or deduplicated.
func (p *OverpassProvider) Nearby(ctx context.Context, center entities.GeoPoint, radiusMeters float64, categories []entities.VenueCategory) ([]entities.Venue, error) {
	if radiusMeters <= 0 {
		return nil, apperrors.NewValidationError("radius must be positive")
	}
	if len(categories) == 0 {
		return nil, apperrors.NewValidationError("at least one venue category is required")
	}

	box := entities.BoxAround(center, radiusMeters)
	query := BuildQuery(box, categories, int(p.cfg.Timeout.Seconds()))

	raw, _, err := failover.Do(ctx,
		failover.Config{
			Provider:     p.Name(),
			Timeout:      p.cfg.Timeout,
			AttemptDelay: p.cfg.AttemptDelay,
		},
		p.cfg.Endpoints,
		func(ctx context.Context, endpoint string) (*overpassResponse, error) {
			return p.fetch(ctx, endpoint, query)
		})
	if err != nil {
		return nil, err
	}

	return p.normalize(raw.Elements, center), nil
}

func (p *OverpassProvider) fetch(ctx context.Context, endpoint, query string) (*overpassResponse, error) {
	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Elements) == 0 {
		return nil, failover.ErrEmptyResult
	}
	return &parsed, nil
}

// normalize maps raw elements into canonical venues. Records without any
// resolvable coordinates are dropped silently; malformed upstream data is
// expected and common.
func (p *OverpassProvider) normalize(elements []overpassElement, center entities.GeoPoint) []entities.Venue {
	venues := make([]entities.Venue, 0, len(elements))

	for _, el := range elements {
		location, ok := resolveCoordinates(el)
		if !ok {
			continue
		}

		name := resolveName(el.Tags)
		if name == namePlaceholder && p.DropUnnamed {
			continue
		}

		venues = append(venues, entities.Venue{
			ID:               elementID(el),
			Name:             name,
			Category:         resolveCategory(el.Tags["amenity"]),
			Cuisine:          el.Tags["cuisine"],
			Location:         location,
			DistanceMeters:   entities.Distance(center, location),
			Address:          buildAddress(el.Tags),
			Phone:            resolvePhone(el.Tags),
			Website:          el.Tags["website"],
			OpeningHoursText: el.Tags["opening_hours"],
		})
	}

	return venues
}

// resolveCoordinates prefers direct lat/lon fields and falls back to the
// nested center object that way elements carry.
func resolveCoordinates(el overpassElement) (entities.GeoPoint, bool) {
	if el.Lat != 0 || el.Lon != 0 {
		return entities.GeoPoint{Lat: el.Lat, Lng: el.Lon}, true
	}
	if el.Center != nil {
		return entities.GeoPoint{Lat: el.Center.Lat, Lng: el.Center.Lon}, true
	}
	return entities.GeoPoint{}, false
}

// resolveName tries localized name tags before the generic one
func resolveName(tags map[string]string) string {
	for _, key := range []string{"name:zh", "name", "name:en"} {
		if name := strings.TrimSpace(tags[key]); name != "" {
			return name
		}
	}
	return namePlaceholder
}

func resolveCategory(amenity string) entities.VenueCategory {
	switch entities.VenueCategory(amenity) {
	case entities.CategoryRestaurant, entities.CategoryFastFood, entities.CategoryCafe,
		entities.CategoryFoodCourt, entities.CategoryBar, entities.CategoryPub,
		entities.CategoryBrewery, entities.CategoryConvenienceStore, entities.CategoryNightclub:
		return entities.VenueCategory(amenity)
	}
	return entities.CategoryRestaurant
}

func elementID(el overpassElement) string {
	if el.ID != 0 && el.Type != "" {
		return fmt.Sprintf("%s/%d", el.Type, el.ID)
	}
	return uuid.New().String()
}

func buildAddress(tags map[string]string) string {
	if full := tags["addr:full"]; full != "" {
		return full
	}

	parts := []string{}
	for _, key := range []string{"addr:city", "addr:district", "addr:street", "addr:housenumber"} {
		if v := tags[key]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "")
}

func resolvePhone(tags map[string]string) string {
	if phone := tags["phone"]; phone != "" {
		return phone
	}
	return tags["contact:phone"]
}
