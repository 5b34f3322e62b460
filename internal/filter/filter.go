package filter

import (
	"strings"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// CityFilter matches listings whose location contains any of the preferred
// city names. Matching is case-insensitive substring; a listing with an
// empty or sentinel location never matches.
type CityFilter struct {
	cities []string
}

// NewCityFilter returns a filter over the given preferred city names.
func NewCityFilter(cities []string) *CityFilter {
	return &CityFilter{cities: cities}
}

// Match returns true if any preferred city appears in the listing location.
func (f *CityFilter) Match(listing model.Listing) bool {
	location := strings.ToLower(listing.Location)
	if location == "" || listing.Location == model.NA {
		return false
	}
	for _, city := range f.cities {
		if city == "" {
			continue
		}
		if strings.Contains(location, strings.ToLower(city)) {
			return true
		}
	}
	return false
}
