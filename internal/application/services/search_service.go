package services

import (
	"context"
	"errors"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/internal/domain/providers"
	"github.com/lunchwheel/venue-roulette/internal/domain/repositories"
	"github.com/lunchwheel/venue-roulette/internal/infrastructure/observability"
	"github.com/lunchwheel/venue-roulette/pkg/config"
	apperrors "github.com/lunchwheel/venue-roulette/pkg/errors"
)

// SearchMode selects the category set and radius defaults for a search
type SearchMode string

const (
	// ModeFood searches the daytime eatery categories
	ModeFood SearchMode = "food"
	// ModeBeer searches the nightlife categories at the tighter night radius
	ModeBeer SearchMode = "beer"
)

// SearchRequest describes one venue search. Zero-valued fields fall back to
// the configured defaults for the chosen mode.
type SearchRequest struct {
	Center       entities.SearchCenter
	RadiusMeters float64
	Categories   []entities.VenueCategory
	Mode         SearchMode
	// HourOfDay drives the opening-hours heuristic; negative disables it
	HourOfDay   int
	PeopleCount int
}

// SearchService orchestrates one venue search: provider query, offline
// fixture fallback, then the filter pipeline. It holds no per-search state;
// every call re-queries providers.
type SearchService struct {
	provider providers.VenueProvider
	filter   *FilterService
	fixtures repositories.FixtureRepository
	cfg      *config.SearchConfig
	metrics  *observability.Metrics
}

// NewSearchService creates a new search service. fixtures and metrics are
// optional.
func NewSearchService(
	provider providers.VenueProvider,
	filter *FilterService,
	fixtures repositories.FixtureRepository,
	cfg *config.SearchConfig,
	metrics *observability.Metrics,
) *SearchService {
	return &SearchService{
		provider: provider,
		filter:   filter,
		fixtures: fixtures,
		cfg:      cfg,
		metrics:  metrics,
	}
}

// Search returns the filtered candidate venues for a request, or a typed
// error: ProviderUnavailable when every endpoint soft-failed (and no fixture
// fallback is configured), NoCandidatesAfterFilter when venues were found but
// none survived filtering.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]entities.Venue, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.Search")
	defer span.End()

	req = s.applyDefaults(req)
	logger := observability.LoggerFromContext(ctx)

	found, err := s.provider.Nearby(ctx, req.Center.Point, req.RadiusMeters, req.Categories)
	if err != nil {
		var unavailable *apperrors.ProviderUnavailableError
		if !errors.As(err, &unavailable) {
			return nil, err
		}
		if s.metrics != nil {
			observability.RecordEndpointFailures(ctx, s.metrics, unavailable.Provider, len(unavailable.Attempts))
		}
		if s.fixtures == nil {
			s.recordSearch(ctx, req.Mode, "provider_unavailable")
			return nil, err
		}

		logger.Warn().
			Str("provider", unavailable.Provider).
			Int("failed_endpoints", len(unavailable.Attempts)).
			Msg("all provider endpoints failed, serving offline fixtures")

		found, err = s.fixtures.NearbyFixtures(ctx, req.Center.Point, req.RadiusMeters)
		if err != nil || len(found) == 0 {
			s.recordSearch(ctx, req.Mode, "provider_unavailable")
			return nil, unavailable
		}
	}

	filtered := s.filter.Apply(found, FilterOptions{
		RadiusMeters:     req.RadiusMeters,
		Categories:       req.Categories,
		ExcludedKeywords: s.excludedKeywords(req.Mode),
		HourOfDay:        req.HourOfDay,
		Hours:            DefaultHoursRules(),
		PeopleCount:      req.PeopleCount,
		Buckets:          s.buckets(req.PeopleCount),
		AlwaysOpenFirst:  req.Mode == ModeBeer,
	})

	if len(filtered) == 0 {
		s.recordSearch(ctx, req.Mode, "no_candidates")
		return nil, apperrors.NewNoCandidatesError(len(found))
	}

	logger.Info().
		Int("found", len(found)).
		Int("candidates", len(filtered)).
		Str("mode", string(req.Mode)).
		Msg("venue search completed")
	s.recordSearch(ctx, req.Mode, "ok")

	return filtered, nil
}

// applyDefaults fills unset request fields from configuration per mode
func (s *SearchService) applyDefaults(req SearchRequest) SearchRequest {
	if req.Mode == "" {
		req.Mode = ModeFood
	}
	if req.RadiusMeters <= 0 {
		if req.Mode == ModeBeer {
			req.RadiusMeters = s.cfg.NightRadius
		} else {
			req.RadiusMeters = s.cfg.RadiusMeters
		}
	}
	if len(req.Categories) == 0 {
		if req.Mode == ModeBeer {
			req.Categories = s.cfg.BeerTypes
		} else {
			req.Categories = s.cfg.PlaceTypes
		}
	}
	return req
}

// excludedKeywords suppresses beverage-only shops in food searches; the
// nightlife mode has no exclusion vocabulary
func (s *SearchService) excludedKeywords(mode SearchMode) []string {
	if mode == ModeBeer {
		return nil
	}
	return s.cfg.ExcludedKeywords
}

func (s *SearchService) buckets(peopleCount int) *entities.BucketTable {
	if peopleCount <= 0 {
		return nil
	}
	table := s.cfg.Buckets
	return &table
}

func (s *SearchService) recordSearch(ctx context.Context, mode SearchMode, outcome string) {
	if s.metrics == nil {
		return
	}
	observability.RecordSearch(ctx, s.metrics, string(mode), outcome)
}
