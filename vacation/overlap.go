package vacation

import "github.com/warp/vacation-engine/calendar"

// FindOverlap returns the first active period of the same employee that
// shares a day with [start, end], skipping ignoreID.
func FindOverlap(employeeID string, start, end calendar.Date, periods []Period, ignoreID string) *Period {
	candidate := calendar.Range{Start: start, End: end}
	for i := range periods {
		p := periods[i]
		if p.EmployeeID != employeeID || (ignoreID != "" && p.ID == ignoreID) {
			continue
		}
		if !p.Status.BlocksOverlap() {
			continue
		}
		if candidate.Overlaps(p.Range()) {
			return &p
		}
	}
	return nil
}

// CheckOverlap is FindOverlap as an error.
func CheckOverlap(employeeID string, start, end calendar.Date, periods []Period, ignoreID string) error {
	if conflict := FindOverlap(employeeID, start, end, periods, ignoreID); conflict != nil {
		return &OverlapError{Conflicting: *conflict}
	}
	return nil
}
