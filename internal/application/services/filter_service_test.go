package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
)

func venue(name string, category entities.VenueCategory, distance float64) entities.Venue {
	return entities.Venue{
		ID:             name,
		Name:           name,
		Category:       category,
		DistanceMeters: distance,
	}
}

func TestRadiusCutoff(t *testing.T) {
	venues := []entities.Venue{
		venue("near", entities.CategoryRestaurant, 500),
		venue("edge", entities.CategoryRestaurant, 2000),
		venue("far", entities.CategoryRestaurant, 2001),
	}

	out := RadiusCutoff(2000)(venues)

	require.Len(t, out, 2)
	for _, v := range out {
		assert.LessOrEqual(t, v.DistanceMeters, 2000.0)
	}
}

func TestCategoryAllowList_EmptySetRetainsAll(t *testing.T) {
	venues := []entities.Venue{
		venue("a", entities.CategoryRestaurant, 100),
		venue("b", entities.CategoryBar, 100),
	}

	assert.Equal(t, venues, CategoryAllowList(nil)(venues))

	out := CategoryAllowList([]entities.VenueCategory{entities.CategoryBar})(venues)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Name)
}

func TestKeywordExclusion(t *testing.T) {
	venues := []entities.Venue{
		venue("五十嵐手搖飲", entities.CategoryCafe, 100),
		{ID: "2", Name: "Mr. Juice Bar", Category: entities.CategoryCafe, DistanceMeters: 100},
		{ID: "3", Name: "老王牛肉麵", Category: entities.CategoryRestaurant, Cuisine: "noodle", DistanceMeters: 100},
	}

	out := KeywordExclusion([]string{"手搖", "juice"})(venues)

	require.Len(t, out, 1)
	assert.Equal(t, "老王牛肉麵", out[0].Name)
}

func TestKeywordExclusion_MatchesCuisine(t *testing.T) {
	venues := []entities.Venue{
		{ID: "1", Name: "innocent looking shop", Cuisine: "bubble_tea", DistanceMeters: 100},
	}

	assert.Empty(t, KeywordExclusion([]string{"bubble"})(venues))
}

func TestIsOpenAround(t *testing.T) {
	rules := DefaultHoursRules()

	// absence of data never excludes a venue
	assert.True(t, IsOpenAround("", 3, rules))
	assert.True(t, IsOpenAround("24/7", 3, rules))
	assert.True(t, IsOpenAround("open 24 hours", 4, rules))
	assert.False(t, IsOpenAround("Mo closed", 18, rules))
	assert.False(t, IsOpenAround("週一公休", 18, rules))
	// dinner window and the permissive default both pass
	assert.True(t, IsOpenAround("11:00-21:00", 18, rules))
	assert.True(t, IsOpenAround("11:00-21:00", 10, rules))
}

func TestPeopleBucketPreference_NeverEmpties(t *testing.T) {
	table := entities.BucketTable{
		Buckets: []entities.PeopleBucket{
			{Name: "large", Min: 16, Max: 50, PreferredTypes: []entities.VenueCategory{entities.CategoryFoodCourt}},
		},
		Default: entities.PeopleBucket{Name: "default", PreferredTypes: []entities.VenueCategory{entities.CategoryRestaurant}},
	}

	venues := []entities.Venue{
		venue("bar only", entities.CategoryBar, 100),
	}

	// no venue matches the large bucket's preference, so the input survives
	out := PeopleBucketPreference(20, table)(venues)
	assert.Equal(t, venues, out)
}

func TestPeopleBucketPreference_SelectsBucketTypes(t *testing.T) {
	table := entities.BucketTable{
		Buckets: []entities.PeopleBucket{
			{Name: "small", Min: 1, Max: 5, PreferredTypes: []entities.VenueCategory{entities.CategoryCafe}},
			{Name: "medium", Min: 6, Max: 15, PreferredTypes: []entities.VenueCategory{entities.CategoryRestaurant}},
			{Name: "large", Min: 16, Max: 50, PreferredTypes: []entities.VenueCategory{entities.CategoryFoodCourt, entities.CategoryRestaurant}},
		},
		Default: entities.PeopleBucket{Name: "default", PreferredTypes: []entities.VenueCategory{entities.CategoryRestaurant}},
	}

	venues := []entities.Venue{
		venue("cafe", entities.CategoryCafe, 100),
		venue("food court", entities.CategoryFoodCourt, 100),
		venue("restaurant", entities.CategoryRestaurant, 100),
	}

	out := PeopleBucketPreference(20, table)(venues)

	require.Len(t, out, 2)
	assert.Equal(t, "food court", out[0].Name)
	assert.Equal(t, "restaurant", out[1].Name)
}

func TestDedupByName_KeepsFirstSeen(t *testing.T) {
	first := venue("麥當勞台北車站店", entities.CategoryFastFood, 100)
	second := venue("麥當勞台北車站店", entities.CategoryFastFood, 300)
	second.ID = "other-id"

	out := DedupByName()([]entities.Venue{first, second})

	require.Len(t, out, 1)
	assert.Equal(t, first.ID, out[0].ID)
}

func TestDedupByName_Idempotent(t *testing.T) {
	venues := []entities.Venue{
		venue("a", entities.CategoryRestaurant, 1),
		venue("a", entities.CategoryRestaurant, 2),
		venue("b", entities.CategoryRestaurant, 3),
	}

	once := DedupByName()(venues)
	twice := DedupByName()(once)

	assert.Equal(t, once, twice)
}

func TestAlwaysOpenFirst(t *testing.T) {
	open24 := venue("seven", entities.CategoryConvenienceStore, 900)
	open24.OpeningHoursText = "24/7"
	near := venue("near bar", entities.CategoryBar, 50)
	far := venue("far bar", entities.CategoryBar, 800)

	out := AlwaysOpenFirst(DefaultHoursRules())([]entities.Venue{far, near, open24})

	require.Len(t, out, 3)
	assert.Equal(t, "seven", out[0].Name)
	assert.Equal(t, "near bar", out[1].Name)
	assert.Equal(t, "far bar", out[2].Name)
}

func TestApply_FullPipeline(t *testing.T) {
	svc := NewFilterService()
	buckets := entities.BucketTable{
		Buckets: []entities.PeopleBucket{
			{Name: "small", Min: 1, Max: 5, PreferredTypes: []entities.VenueCategory{entities.CategoryRestaurant, entities.CategoryCafe}},
		},
		Default: entities.PeopleBucket{Name: "default", PreferredTypes: []entities.VenueCategory{entities.CategoryRestaurant}},
	}

	venues := []entities.Venue{
		venue("too far", entities.CategoryRestaurant, 5000),
		venue("wrong category", entities.CategoryConvenienceStore, 100),
		{ID: "x", Name: "茶湯會手搖", Category: entities.CategoryCafe, DistanceMeters: 100},
		venue("keeper", entities.CategoryRestaurant, 300),
		venue("keeper", entities.CategoryRestaurant, 400),
	}

	out := svc.Apply(venues, FilterOptions{
		RadiusMeters:     2000,
		Categories:       []entities.VenueCategory{entities.CategoryRestaurant, entities.CategoryCafe},
		ExcludedKeywords: []string{"手搖"},
		HourOfDay:        19,
		Hours:            DefaultHoursRules(),
		PeopleCount:      2,
		Buckets:          &buckets,
	})

	require.Len(t, out, 1)
	assert.Equal(t, "keeper", out[0].Name)
	assert.Equal(t, 300.0, out[0].DistanceMeters)
}
