package routes

import (
	"net/http"

	"github.com/lunchwheel/venue-roulette/internal/api/handlers"
	"github.com/lunchwheel/venue-roulette/internal/api/middleware"
	"github.com/lunchwheel/venue-roulette/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	geocodeHandler *handlers.GeocodeHandler
	venueHandler   *handlers.VenueHandler
	sessionHandler *handlers.SessionHandler
	sseHandler     *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	geocodeHandler *handlers.GeocodeHandler,
	venueHandler *handlers.VenueHandler,
	sessionHandler *handlers.SessionHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		geocodeHandler:  geocodeHandler,
		venueHandler:    venueHandler,
		sessionHandler:  sessionHandler,
		sseHandler:      sseHandler,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Geocoding endpoints
	r.mux.HandleFunc("GET /api/geocode", r.geocodeHandler.Geocode)
	r.mux.HandleFunc("GET /api/geocode/reverse", r.geocodeHandler.ReverseGeocode)

	// Stateless venue search
	r.mux.HandleFunc("POST /api/venues/search", r.venueHandler.SearchVenues)

	// Roulette sessions
	r.mux.HandleFunc("POST /api/sessions", r.sessionHandler.CreateSession)
	r.mux.HandleFunc("GET /api/sessions/{id}", r.sessionHandler.GetSession)
	r.mux.HandleFunc("POST /api/sessions/{id}/spin", r.sessionHandler.Spin)
	r.mux.HandleFunc("POST /api/sessions/{id}/reroll", r.sessionHandler.Reroll)
	r.mux.HandleFunc("POST /api/sessions/{id}/restart", r.sessionHandler.Restart)

	// Real-time selection state stream
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/sessions/{id}", r.sseHandler.StreamSessionUpdates)
	}

	var handler http.Handler = r.mux
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
