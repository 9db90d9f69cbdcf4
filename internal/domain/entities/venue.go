package entities

// VenueCategory classifies a venue by its OpenStreetMap-style amenity tag
type VenueCategory string

const (
	CategoryRestaurant       VenueCategory = "restaurant"
	CategoryFastFood         VenueCategory = "fast_food"
	CategoryCafe             VenueCategory = "cafe"
	CategoryFoodCourt        VenueCategory = "food_court"
	CategoryBar              VenueCategory = "bar"
	CategoryPub              VenueCategory = "pub"
	CategoryBrewery          VenueCategory = "brewery"
	CategoryConvenienceStore VenueCategory = "convenience_store"
	CategoryNightclub        VenueCategory = "nightclub"
)

// Venue is the canonical place record produced by normalizing a raw provider
// response. It is created fresh for every search and never mutated afterwards;
// filter stages build new slices instead of editing in place.
type Venue struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Category         VenueCategory `json:"category"`
	Cuisine          string        `json:"cuisine,omitempty"`
	Location         GeoPoint      `json:"location"`
	DistanceMeters   float64       `json:"distance_meters"`
	Address          string        `json:"address,omitempty"`
	Phone            string        `json:"phone,omitempty"`
	Website          string        `json:"website,omitempty"`
	OpeningHoursText string        `json:"opening_hours_text,omitempty"`
}
