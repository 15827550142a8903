package vacation

import "github.com/warp/vacation-engine/calendar"

// CheckTypeLimit allows one 7-day and one 8-day period per calendar year of
// the start date. Rejected periods and ignoreID do not count. Other types are
// never limited.
func CheckTypeLimit(employeeID string, start calendar.Date, periodType PeriodType, periods []Period, ignoreID string) error {
	if !periodType.Limited() {
		return nil
	}
	for _, p := range periods {
		if p.EmployeeID != employeeID || (ignoreID != "" && p.ID == ignoreID) {
			continue
		}
		if p.Status == StatusRejected || p.TypePeriod != periodType {
			continue
		}
		if p.Start.Year() == start.Year() {
			return &TypeLimitError{TypePeriod: periodType, Year: start.Year(), ExistingID: p.ID}
		}
	}
	return nil
}
