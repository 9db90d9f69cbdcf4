package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunchwheel/venue-roulette/internal/adapters/cache"
	"github.com/lunchwheel/venue-roulette/internal/adapters/database"
	"github.com/lunchwheel/venue-roulette/internal/adapters/events"
	"github.com/lunchwheel/venue-roulette/internal/adapters/providers/geocoding"
	"github.com/lunchwheel/venue-roulette/internal/adapters/providers/places"
	"github.com/lunchwheel/venue-roulette/internal/api/handlers"
	"github.com/lunchwheel/venue-roulette/internal/api/middleware"
	"github.com/lunchwheel/venue-roulette/internal/api/routes"
	"github.com/lunchwheel/venue-roulette/internal/application/services"
	domainproviders "github.com/lunchwheel/venue-roulette/internal/domain/providers"
	"github.com/lunchwheel/venue-roulette/internal/domain/repositories"
	"github.com/lunchwheel/venue-roulette/internal/infrastructure/clients/postgres"
	"github.com/lunchwheel/venue-roulette/internal/infrastructure/clients/redis"
	"github.com/lunchwheel/venue-roulette/internal/infrastructure/observability"
	"github.com/lunchwheel/venue-roulette/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - geocode caching and SSE fan-out degrade
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider domainproviders.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for the selection state stream
	var eventBus domainproviders.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Offline fixture repository, only when explicitly enabled
	var fixtureRepo repositories.FixtureRepository
	if cfg.Fixtures.Enabled {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Printf("Warning: offline fixtures enabled but PostgreSQL unavailable: %v", err)
		} else {
			defer pgClient.Close()
			fixtureRepo = database.NewFixtureAdapter(pgClient)
			log.Println("Offline venue fixtures enabled")
		}
	}

	// Venue provider: Overpass by default, Google Places when a key is set
	var venueProvider domainproviders.VenueProvider
	if cfg.Google.APIKey != "" {
		venueProvider = places.NewGoogleProvider(&cfg.Google)
		log.Println("Using Google Places venue provider")
	} else {
		venueProvider = places.NewOverpassProvider(&cfg.Overpass)
		log.Println("Using Overpass venue provider")
	}

	geocoder := geocoding.NewNominatimProvider(&cfg.Geocoding, cacheProvider)

	// Initialize services
	filterService := services.NewFilterService()
	searchService := services.NewSearchService(venueProvider, filterService, fixtureRepo, &cfg.Search, metrics)
	selectionService := services.NewSelectionService(searchService, eventBus, metrics)

	// Initialize handlers
	geocodeHandler := handlers.NewGeocodeHandler(geocoder)
	venueHandler := handlers.NewVenueHandler(searchService, geocoder, &cfg.Search)
	sessionHandler := handlers.NewSessionHandler(selectionService, geocoder, &cfg.Search)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus, selectionService)
	}

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		geocodeHandler,
		venueHandler,
		sessionHandler,
		sseHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // SSE streams flush continuously
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
