package vacation

import "github.com/warp/vacation-engine/calendar"

// PlanInput is everything the validation pipeline reads. Periods must hold
// the employee's existing periods; IgnoreID names the one being replaced
// (an edit or a modification) so it neither conflicts with nor double-charges
// the candidate.
type PlanInput struct {
	Employee Employee
	Policy   *Policy
	Start    calendar.Date
	Type     PeriodType
	Today    calendar.Date
	Config   calendar.Config
	Holidays calendar.HolidaySet
	Periods  []Period
	IgnoreID string
}

// Plan runs the pipeline in order and stops at the first failure:
// start date, type limit, calculation, overlap, balance.
// Nothing is written; the caller persists the returned Calculation.
func Plan(in PlanInput) (Calculation, error) {
	if err := ValidateStartDate(in.Start, in.Today, in.Policy, in.Config, in.Holidays); err != nil {
		return Calculation{}, err
	}
	if err := CheckTypeLimit(in.Employee.ID, in.Start, in.Type, in.Periods, in.IgnoreID); err != nil {
		return Calculation{}, err
	}
	calc, err := Compute(in.Start, in.Type, in.Config, in.Holidays)
	if err != nil {
		return Calculation{}, err
	}
	if err := CheckOverlap(in.Employee.ID, calc.Start, calc.End, in.Periods, in.IgnoreID); err != nil {
		return Calculation{}, err
	}
	available := Available(in.Employee, in.Periods, in.IgnoreID)
	if err := CheckBalance(in.Employee.ID, available, calc.Days); err != nil {
		return Calculation{}, err
	}
	return calc, nil
}
