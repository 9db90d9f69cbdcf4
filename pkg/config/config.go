package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Geocoding GeocodingConfig
	Overpass  OverpassConfig
	Google    GoogleConfig
	Search    SearchConfig
	Fixtures  FixturesConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DatabaseConfig holds PostgreSQL configuration for the fixture store
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// GeocodingConfig holds geocoding resolver configuration
type GeocodingConfig struct {
	// Endpoints are Nominatim-compatible base URLs tried in order
	Endpoints []string
	// CountryName is appended to one of the query variants ("Taiwan")
	CountryName string
	// CountryMarkers are substrings of a formatted address that identify the
	// target country when the broad fallback query runs
	CountryMarkers []string
	// AdminSuffixes are trailing administrative particles stripped to build
	// the reduced query variant
	AdminSuffixes []string
	Timeout       time.Duration
}

// OverpassConfig holds Overpass API configuration
type OverpassConfig struct {
	// Endpoints are interpreter URLs tried in order; mirrors of the same data
	Endpoints    []string
	Timeout      time.Duration
	AttemptDelay time.Duration
}

// GoogleConfig holds Google Places configuration
type GoogleConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// SearchConfig holds venue search defaults
type SearchConfig struct {
	RadiusMeters     float64
	NightRadius      float64
	PlaceTypes       []entities.VenueCategory
	BeerTypes        []entities.VenueCategory
	ExcludedKeywords []string
	FixedCenter      entities.SearchCenter
	Buckets          entities.BucketTable
}

// FixturesConfig controls the opt-in offline fixture fallback. Disabled by
// default so provider outages surface as errors instead of fabricated data.
type FixturesConfig struct {
	Enabled bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "venue_roulette"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Geocoding: GeocodingConfig{
			Endpoints: getEnvAsList("GEOCODING_ENDPOINTS", []string{
				"https://nominatim.openstreetmap.org",
			}),
			CountryName:    getEnv("GEOCODING_COUNTRY", "Taiwan"),
			CountryMarkers: getEnvAsList("GEOCODING_COUNTRY_MARKERS", []string{"Taiwan", "臺灣", "台灣"}),
			AdminSuffixes:  getEnvAsList("GEOCODING_ADMIN_SUFFIXES", []string{"縣", "市", "區", "鄉", "鎮"}),
			Timeout:        getEnvAsDuration("GEOCODING_TIMEOUT", 10*time.Second),
		},
		Overpass: OverpassConfig{
			Endpoints: getEnvAsList("OVERPASS_ENDPOINTS", []string{
				"https://overpass-api.de/api/interpreter",
				"https://overpass.kumi.systems/api/interpreter",
				"https://z.overpass-api.de/api/interpreter",
			}),
			Timeout:      getEnvAsDuration("OVERPASS_TIMEOUT", 25*time.Second),
			AttemptDelay: getEnvAsDuration("OVERPASS_ATTEMPT_DELAY", 300*time.Millisecond),
		},
		Google: GoogleConfig{
			APIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
			Endpoint: getEnv("GOOGLE_PLACES_ENDPOINT", "https://maps.googleapis.com/maps/api/place/nearbysearch/json"),
			Timeout:  getEnvAsDuration("GOOGLE_PLACES_TIMEOUT", 10*time.Second),
		},
		Search: SearchConfig{
			RadiusMeters: getEnvAsFloat("SEARCH_RADIUS", 2000),
			NightRadius:  getEnvAsFloat("SEARCH_NIGHT_RADIUS", 1200),
			PlaceTypes: []entities.VenueCategory{
				entities.CategoryRestaurant,
				entities.CategoryFastFood,
				entities.CategoryCafe,
				entities.CategoryFoodCourt,
			},
			BeerTypes: []entities.VenueCategory{
				entities.CategoryBar,
				entities.CategoryPub,
				entities.CategoryBrewery,
			},
			ExcludedKeywords: getEnvAsList("SEARCH_EXCLUDED_KEYWORDS", []string{
				"飲料", "手搖", "bubble tea", "juice",
			}),
			FixedCenter: entities.SearchCenter{
				Point: entities.GeoPoint{
					Lat: getEnvAsFloat("FIXED_CENTER_LAT", 25.0465),
					Lng: getEnvAsFloat("FIXED_CENTER_LNG", 121.5155),
				},
				Label: getEnv("FIXED_CENTER_LABEL", "Mozilla Community Space Taipei"),
				Fixed: true,
			},
			Buckets: DefaultBucketTable(),
		},
		Fixtures: FixturesConfig{
			Enabled: getEnvAsBool("OFFLINE_FIXTURES_ENABLED", false),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "venue-roulette"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DefaultBucketTable mirrors the people groups the widget ships with
func DefaultBucketTable() entities.BucketTable {
	return entities.BucketTable{
		Buckets: []entities.PeopleBucket{
			{Name: "small", Min: 1, Max: 3, PreferredTypes: []entities.VenueCategory{
				entities.CategoryBar, entities.CategoryPub, entities.CategoryCafe, entities.CategoryRestaurant,
			}},
			{Name: "medium", Min: 4, Max: 8, PreferredTypes: []entities.VenueCategory{
				entities.CategoryRestaurant, entities.CategoryBar, entities.CategoryPub,
			}},
			{Name: "large", Min: 9, Max: 30, PreferredTypes: []entities.VenueCategory{
				entities.CategoryRestaurant, entities.CategoryPub,
			}},
		},
		Default: entities.PeopleBucket{Name: "medium", Min: 4, Max: 8, PreferredTypes: []entities.VenueCategory{
			entities.CategoryRestaurant, entities.CategoryBar, entities.CategoryPub,
		}},
	}
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
