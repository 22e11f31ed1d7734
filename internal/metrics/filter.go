package metrics

import (
	"slices"

	"coursedash/internal/catalog"
	"coursedash/internal/edition"
)

// Filter selects editions of one year whose program, channel and region are
// each in the allowed set. An empty set allows nothing.
type Filter struct {
	Year     int      `json:"year"`
	Programs []string `json:"programs"`
	Channels []string `json:"channels"`
	Regions  []string `json:"regions"`
}

// AllOf returns the filter that allows every program present in rows and
// every channel and region of the catalog, for the given year.
func AllOf(cat *catalog.Catalog, rows []edition.Edition, year int) Filter {
	var programs []string
	for _, e := range rows {
		if !slices.Contains(programs, e.Program) {
			programs = append(programs, e.Program)
		}
	}
	slices.Sort(programs)
	return Filter{
		Year:     year,
		Programs: programs,
		Channels: slices.Clone(cat.Channels.Values),
		Regions:  slices.Clone(cat.Regions.Values),
	}
}

// LatestYear returns the largest year in rows, or 0.
func LatestYear(rows []edition.Edition) int {
	year := 0
	for _, e := range rows {
		year = max(year, e.Year)
	}
	return year
}

// Matches reports whether e passes every predicate.
func (f Filter) Matches(e edition.Edition) bool {
	return e.Year == f.Year &&
		slices.Contains(f.Programs, e.Program) &&
		slices.Contains(f.Channels, e.Channel) &&
		slices.Contains(f.Regions, e.Region)
}

// Apply returns the matching rows in their original order.
func Apply(rows []edition.Edition, f Filter) []edition.Edition {
	var out []edition.Edition
	for _, e := range rows {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
