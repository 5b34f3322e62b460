package filter

import (
	"testing"

	"github.com/mjdav02/shiftwatch/internal/model"
)

func TestCityFilter_Match(t *testing.T) {
	cases := []struct {
		name     string
		cities   []string
		location string
		want     bool
	}{
		{"exact city", []string{"Cambridge"}, "Cambridge, ON", true},
		{"case insensitive", []string{"cambridge"}, "CAMBRIDGE, Ontario", true},
		{"substring within longer text", []string{"Hamilton"}, "Greater Hamilton Area, ON (JOB-123)", true},
		{"second city matches", []string{"Toronto", "Brampton"}, "Brampton, ON", true},
		{"no city matches", []string{"Toronto"}, "Cambridge, ON", false},
		{"empty location", []string{"Cambridge"}, "", false},
		{"sentinel location", []string{"Cambridge"}, model.NA, false},
		{"empty city list", nil, "Cambridge, ON", false},
		{"blank city entry ignored", []string{""}, "Cambridge, ON", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewCityFilter(tc.cities)
			got := f.Match(model.Listing{ID: "j1", Location: tc.location})
			if got != tc.want {
				t.Errorf("Match(%q) with cities %v = %v, want %v", tc.location, tc.cities, got, tc.want)
			}
		})
	}
}
