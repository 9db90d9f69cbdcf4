package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/internal/domain/providers"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

// GeocodeHandler handles address resolution requests
type GeocodeHandler struct {
	geocoder providers.GeocodingProvider
}

// NewGeocodeHandler creates a new geocode handler
func NewGeocodeHandler(geocoder providers.GeocodingProvider) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Geocode handles GET /api/geocode?address=
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	resolved, err := h.geocoder.Resolve(r.Context(), address)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resolved)
}

// ReverseGeocode handles GET /api/geocode/reverse?lat=&lng=
func (h *GeocodeHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lng parameter")
		return
	}

	resolved, err := h.geocoder.ReverseGeocode(r.Context(), entities.GeoPoint{Lat: lat, Lng: lng})
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resolved)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithDomainError maps the typed error taxonomy onto HTTP statuses.
// Every error here is recoverable by the client; nothing is fatal.
func respondWithDomainError(w http.ResponseWriter, err error) {
	var notFound *apperrors.AddressNotFoundError
	if errors.As(err, &notFound) {
		respondWithJSON(w, http.StatusNotFound, map[string]string{
			"error":   "address not found",
			"address": notFound.Address,
		})
		return
	}

	var unavailable *apperrors.ProviderUnavailableError
	if errors.As(err, &unavailable) {
		respondWithJSON(w, http.StatusBadGateway, map[string]string{
			"error": "venue providers are unavailable, try again later",
		})
		return
	}

	var noCandidates *apperrors.NoCandidatesError
	if errors.As(err, &noCandidates) {
		respondWithJSON(w, http.StatusNotFound, map[string]string{
			"error": "no venues matched, widen the radius or change the party size",
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
