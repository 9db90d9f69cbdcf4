package entities

import (
	"math"
)

const earthRadiusMeters = 6371000.0

// GeoPoint represents a geographical coordinate
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SearchCenter is the point a venue search is anchored on. Fixed centers come
// from configuration (e.g. the office), dynamic centers from geocoding user input.
type SearchCenter struct {
	Point GeoPoint `json:"point"`
	Label string   `json:"label,omitempty"`
	Fixed bool     `json:"fixed"`
}

// Distance returns the great-circle distance between two points in meters
// using the Haversine formula
func Distance(a, b GeoPoint) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	deltaLat := toRadians(b.Lat - a.Lat)
	deltaLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// BoundingBox is a rectangular lat/lng region used to scope spatial queries
type BoundingBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

// BoxAround computes a bounding box covering radiusMeters around center.
// The latitude delta uses the flat approximation radius/111320 and the
// longitude delta is corrected by cos(lat) for meridian convergence; this is
// intentionally not geodesically exact but adequate for city-scale radii.
// Near the poles cos(lat) approaches zero, in which case the longitude span
// opens to the full ±180 range instead of dividing by zero.
func BoxAround(center GeoPoint, radiusMeters float64) BoundingBox {
	latDelta := radiusMeters / 111320.0

	lngDelta := 180.0
	if cosLat := math.Cos(toRadians(center.Lat)); math.Abs(cosLat) > 1e-9 {
		lngDelta = latDelta / cosLat
	}

	return BoundingBox{
		South: center.Lat - latDelta,
		West:  center.Lng - lngDelta,
		North: center.Lat + latDelta,
		East:  center.Lng + lngDelta,
	}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
