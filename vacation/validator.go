package vacation

import (
	"errors"

	"github.com/warp/vacation-engine/calendar"
)

// ValidateStartDate checks a candidate start date. Rules apply in order and
// the first failure wins:
//
//  1. strictly after today
//  2. not a weekend, unless cfg.AllowStartOnWeekend
//  3. not a holiday, unless cfg.AllowStartOnHoliday
//  4. in a month the employee's policy permits (nil policy permits all)
//
// The returned error is a *ValidationError.
func ValidateStartDate(candidate, today calendar.Date, policy *Policy, cfg calendar.Config, holidays calendar.HolidaySet) error {
	if candidate.IsZero() {
		return invalid("start_date", "a start date is required")
	}
	if !candidate.After(today) {
		return invalid("start_date", "%s is not after today (%s); leave must start on a future date", candidate, today)
	}
	if !cfg.AllowStartOnWeekend && candidate.IsWeekend() {
		return invalid("start_date", "%s is a %s; leave may not start on a weekend", candidate, candidate.Weekday())
	}
	if !cfg.AllowStartOnHoliday {
		if name, ok := holidays.Name(candidate); ok {
			return invalid("start_date", "%s is a holiday (%s); leave may not start on a holiday", candidate, name)
		}
	}
	if policy != nil && !policy.Permits(candidate.Month()) {
		return invalid("start_date", "policy %q only allows leave to start in: %s", policy.Name, policy.MonthNames())
	}
	return nil
}

// Validate is the tuple form of ValidateStartDate for callers that only
// display the outcome.
func Validate(candidate, today calendar.Date, policy *Policy, cfg calendar.Config, holidays calendar.HolidaySet) (bool, string) {
	err := ValidateStartDate(candidate, today, policy, cfg, holidays)
	if err == nil {
		return true, ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return false, ve.Message
	}
	return false, err.Error()
}
