package calendar

import (
	"sort"
	"strings"
)

// LocationGeneral tags holidays that apply to every location.
const LocationGeneral = "GENERAL"

// Holiday is a non-working day at one location (or everywhere, for GENERAL).
// Several holidays may share a date for different locations.
type Holiday struct {
	ID       string `json:"id"`
	Date     Date   `json:"date"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// AppliesTo reports whether the holiday is observed at location.
func (h Holiday) AppliesTo(location string) bool {
	return h.Location == LocationGeneral || strings.EqualFold(h.Location, location)
}

// NormalizeLocation upper-cases and trims a location tag; empty becomes GENERAL.
func NormalizeLocation(location string) string {
	location = strings.ToUpper(strings.TrimSpace(location))
	if location == "" {
		return LocationGeneral
	}
	return location
}

// =============================================================================
// HOLIDAY SET - Immutable snapshot used by one calculation
// =============================================================================

// HolidaySet is an immutable set of holiday dates together with the calendar
// years it was loaded for. A year that was not loaded is "outside the horizon":
// the set cannot say whether a date in it is a holiday.
type HolidaySet struct {
	names map[int64]string
	years map[int]bool
}

// NewHolidaySet builds a set covering the given years. Holidays dated outside
// those years are still recorded.
func NewHolidaySet(years []int, holidays ...Holiday) HolidaySet {
	s := HolidaySet{
		names: make(map[int64]string, len(holidays)),
		years: make(map[int]bool, len(years)),
	}
	for _, y := range years {
		s.years[y] = true
	}
	for _, h := range holidays {
		k := h.Date.ordinal()
		if existing, ok := s.names[k]; ok && existing != "" {
			continue
		}
		s.names[k] = h.Name
	}
	return s
}

// Contains reports whether d is a holiday in the snapshot.
func (s HolidaySet) Contains(d Date) bool {
	_, ok := s.names[d.ordinal()]
	return ok
}

// Name returns the holiday name for d, if any.
func (s HolidaySet) Name(d Date) (string, bool) {
	name, ok := s.names[d.ordinal()]
	return name, ok
}

// Covers reports whether holidays for year were loaded.
func (s HolidaySet) Covers(year int) bool {
	return s.years[year]
}

// Uncovered returns the years of r that the snapshot was not loaded for.
func (s HolidaySet) Uncovered(r Range) []int {
	var missing []int
	for _, y := range r.Years() {
		if !s.Covers(y) {
			missing = append(missing, y)
		}
	}
	return missing
}

// Years returns the covered years, ascending.
func (s HolidaySet) Years() []int {
	years := make([]int, 0, len(s.years))
	for y := range s.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Len is the number of distinct holiday dates.
func (s HolidaySet) Len() int { return len(s.names) }

// FilterLocation keeps the holidays observed at location.
func FilterLocation(holidays []Holiday, location string) []Holiday {
	var out []Holiday
	for _, h := range holidays {
		if h.AppliesTo(location) {
			out = append(out, h)
		}
	}
	return out
}
