package services

import (
	"sort"
	"strings"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
)

// FilterStage transforms a venue list into a new venue list. Stages never
// mutate their input; composition order is significant.
type FilterStage func([]entities.Venue) []entities.Venue

// HoursRules is the configuration-driven rule table behind the opening-hours
// heuristic. It is deliberately coarse; there is no calendar parser here.
type HoursRules struct {
	AlwaysOpenMarkers []string
	ClosedMarkers     []string
	DinnerStartHour   int
	DinnerEndHour     int
}

// DefaultHoursRules returns the marker vocabulary the widget ships with
func DefaultHoursRules() HoursRules {
	return HoursRules{
		AlwaysOpenMarkers: []string{"24/7", "24 hours", "24h", "24小時"},
		ClosedMarkers:     []string{"closed", "公休", "休息中"},
		DinnerStartHour:   17,
		DinnerEndHour:     21,
	}
}

// FilterOptions selects and parameterizes the pipeline stages. Zero values
// switch the corresponding stage off, so callers build search modes by
// setting only what they need.
type FilterOptions struct {
	RadiusMeters     float64
	Categories       []entities.VenueCategory
	ExcludedKeywords []string
	// HourOfDay is the target time for the opening-hours heuristic; negative
	// disables the stage
	HourOfDay int
	Hours     HoursRules
	// PeopleCount maps to a bucket whose preferred types bias the result;
	// zero or negative with an empty bucket table disables the stage
	PeopleCount int
	Buckets     *entities.BucketTable
	// AlwaysOpenFirst sorts venues that never close ahead of the rest
	AlwaysOpenFirst bool
}

// FilterService applies the composable venue filter pipeline
type FilterService struct{}

// NewFilterService creates a new filter service
func NewFilterService() *FilterService {
	return &FilterService{}
}

// Apply runs the pipeline stages in their fixed order: radius cutoff,
// category allow-list, keyword exclusion, opening-hours heuristic, people
// bucketing, dedup, optional always-open-first sort.
func (s *FilterService) Apply(venues []entities.Venue, opts FilterOptions) []entities.Venue {
	stages := []FilterStage{}

	if opts.RadiusMeters > 0 {
		stages = append(stages, RadiusCutoff(opts.RadiusMeters))
	}
	if len(opts.Categories) > 0 {
		stages = append(stages, CategoryAllowList(opts.Categories))
	}
	if len(opts.ExcludedKeywords) > 0 {
		stages = append(stages, KeywordExclusion(opts.ExcludedKeywords))
	}
	if opts.HourOfDay >= 0 {
		stages = append(stages, OpenAround(opts.HourOfDay, opts.Hours))
	}
	if opts.Buckets != nil {
		stages = append(stages, PeopleBucketPreference(opts.PeopleCount, *opts.Buckets))
	}
	stages = append(stages, DedupByName())
	if opts.AlwaysOpenFirst {
		stages = append(stages, AlwaysOpenFirst(opts.Hours))
	}

	return Compose(stages...)(venues)
}

// Compose chains stages left to right
func Compose(stages ...FilterStage) FilterStage {
	return func(venues []entities.Venue) []entities.Venue {
		for _, stage := range stages {
			venues = stage(venues)
		}
		return venues
	}
}

// RadiusCutoff drops venues farther than radiusMeters from the search center
func RadiusCutoff(radiusMeters float64) FilterStage {
	return func(venues []entities.Venue) []entities.Venue {
		out := make([]entities.Venue, 0, len(venues))
		for _, v := range venues {
			if v.DistanceMeters <= radiusMeters {
				out = append(out, v)
			}
		}
		return out
	}
}

// CategoryAllowList keeps only venues whose category is in the requested set.
// An empty set retains everything.
func CategoryAllowList(categories []entities.VenueCategory) FilterStage {
	allowed := make(map[entities.VenueCategory]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}

	return func(venues []entities.Venue) []entities.Venue {
		if len(allowed) == 0 {
			return venues
		}
		out := make([]entities.Venue, 0, len(venues))
		for _, v := range venues {
			if _, ok := allowed[v.Category]; ok {
				out = append(out, v)
			}
		}
		return out
	}
}

// KeywordExclusion drops venues whose name or cuisine contains any excluded
// term, case-insensitively. Used to suppress beverage-only shops.
func KeywordExclusion(keywords []string) FilterStage {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	return func(venues []entities.Venue) []entities.Venue {
		out := make([]entities.Venue, 0, len(venues))
		for _, v := range venues {
			haystack := strings.ToLower(v.Name + " " + v.Cuisine)
			excluded := false
			for _, k := range lowered {
				if strings.Contains(haystack, k) {
					excluded = true
					break
				}
			}
			if !excluded {
				out = append(out, v)
			}
		}
		return out
	}
}

// IsOpenAround applies the coarse opening-hours heuristic to free-text hours:
// always-open markers win, closed markers lose, the dinner window passes, and
// everything else passes too. Absence of data never excludes a venue.
func IsOpenAround(hoursText string, hour int, rules HoursRules) bool {
	text := strings.ToLower(strings.TrimSpace(hoursText))
	if text == "" {
		return true
	}

	for _, marker := range rules.AlwaysOpenMarkers {
		if strings.Contains(text, strings.ToLower(marker)) {
			return true
		}
	}

	for _, marker := range rules.ClosedMarkers {
		if strings.Contains(text, strings.ToLower(marker)) {
			return false
		}
	}

	if hour >= rules.DinnerStartHour && hour < rules.DinnerEndHour {
		return true
	}

	return true
}

// OpenAround keeps venues the opening-hours heuristic judges open at hour
func OpenAround(hour int, rules HoursRules) FilterStage {
	return func(venues []entities.Venue) []entities.Venue {
		out := make([]entities.Venue, 0, len(venues))
		for _, v := range venues {
			if IsOpenAround(v.OpeningHoursText, hour, rules) {
				out = append(out, v)
			}
		}
		return out
	}
}

// PeopleBucketPreference maps a party size to a bucket and keeps venues whose
// category is among the bucket's preferred types. When that preference would
// empty the set the input is returned unchanged; this stage only biases, it
// never eliminates every option.
func PeopleBucketPreference(peopleCount int, table entities.BucketTable) FilterStage {
	return func(venues []entities.Venue) []entities.Venue {
		bucket := table.BucketFor(peopleCount)

		preferred := make(map[entities.VenueCategory]struct{}, len(bucket.PreferredTypes))
		for _, c := range bucket.PreferredTypes {
			preferred[c] = struct{}{}
		}

		out := make([]entities.Venue, 0, len(venues))
		for _, v := range venues {
			if _, ok := preferred[v.Category]; ok {
				out = append(out, v)
			}
		}

		if len(out) == 0 {
			return venues
		}
		return out
	}
}

// DedupByName removes later venues whose name exactly matches an earlier
// venue's name, preserving first-seen order
func DedupByName() FilterStage {
	return func(venues []entities.Venue) []entities.Venue {
		seen := make(map[string]struct{}, len(venues))
		out := make([]entities.Venue, 0, len(venues))
		for _, v := range venues {
			if _, ok := seen[v.Name]; ok {
				continue
			}
			seen[v.Name] = struct{}{}
			out = append(out, v)
		}
		return out
	}
}

// AlwaysOpenFirst sorts venues that never close ahead of the rest, each group
// ordered by distance. The nightlife variant shows 24-hour venues first.
func AlwaysOpenFirst(rules HoursRules) FilterStage {
	alwaysOpen := func(v entities.Venue) bool {
		text := strings.ToLower(v.OpeningHoursText)
		for _, marker := range rules.AlwaysOpenMarkers {
			if strings.Contains(text, strings.ToLower(marker)) {
				return true
			}
		}
		return false
	}

	return func(venues []entities.Venue) []entities.Venue {
		out := make([]entities.Venue, len(venues))
		copy(out, venues)
		sort.SliceStable(out, func(i, j int) bool {
			oi, oj := alwaysOpen(out[i]), alwaysOpen(out[j])
			if oi != oj {
				return oi
			}
			return out[i].DistanceMeters < out[j].DistanceMeters
		})
		return out
	}
}
