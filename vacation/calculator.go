package vacation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warp/vacation-engine/calendar"
)

// Calculation is the concrete span a request resolves to.
type Calculation struct {
	Start    calendar.Date `json:"start"`
	End      calendar.Date `json:"end"`
	Days     int           `json:"days"`
	Messages []string      `json:"messages"`
}

// Compute resolves a start date and period type into an end date and a
// charge in calendar days.
//
//	end = start + (type - 1)
//	if the end is a Friday and cfg.FridayExtends: end += 2, days += 2
//	if end + 1 is a holiday: *BridgeError
//
// Years the holiday snapshot was not loaded for are reported in Messages and
// the calculation proceeds as if they had no holidays.
func Compute(start calendar.Date, periodType PeriodType, cfg calendar.Config, holidays calendar.HolidaySet) (Calculation, error) {
	if !periodType.Valid() {
		return Calculation{}, &ValidationError{
			Field:   "type_period",
			Message: fmt.Sprintf("period type %d is not one of 7, 8, 15, 30", periodType),
			Cause:   ErrInvalidPeriodType,
		}
	}
	if start.IsZero() {
		return Calculation{}, invalid("start_date", "a start date is required")
	}

	calc := Calculation{
		Start:    start,
		End:      start.AddDays(int(periodType) - 1),
		Days:     int(periodType),
		Messages: []string{},
	}

	if cfg.FridayExtends && calc.End.Weekday() == time.Friday {
		calc.End = calc.End.AddDays(2)
		calc.Days += 2
		calc.Messages = append(calc.Messages, fmt.Sprintf(
			"The period ends on a Friday, so it is extended through Sunday %s. Total charged: %d days.",
			calc.End, calc.Days))
	}

	next := calc.End.AddDays(1)
	if missing := holidays.Uncovered(calendar.Range{Start: calc.Start, End: next}); len(missing) > 0 {
		calc.Messages = append(calc.Messages, fmt.Sprintf(
			"Holidays for %s are not loaded; the end date %s was computed without them.",
			joinYears(missing), calc.End))
	}

	if name, ok := holidays.Name(next); ok {
		return Calculation{}, &BridgeError{End: calc.End, Holiday: next, HolidayName: name}
	}
	return calc, nil
}

func joinYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ", ")
}
