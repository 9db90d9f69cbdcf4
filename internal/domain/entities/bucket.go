package entities

// PeopleBucket maps an inclusive party-size range to the venue categories that
// suit groups of that size
type PeopleBucket struct {
	Name           string          `json:"name"`
	Min            int             `json:"min"`
	Max            int             `json:"max"`
	PreferredTypes []VenueCategory `json:"preferred_types"`
}

// BucketTable is an ordered list of people buckets. Ranges are checked in
// declaration order and the first match wins.
type BucketTable struct {
	Buckets []PeopleBucket
	Default PeopleBucket
}

// BucketFor returns the bucket whose range contains peopleCount. Counts that
// match no range, including zero and negative values, fall back to the default
// bucket rather than failing.
func (t BucketTable) BucketFor(peopleCount int) PeopleBucket {
	for _, b := range t.Buckets {
		if peopleCount >= b.Min && peopleCount <= b.Max {
			return b
		}
	}
	return t.Default
}
