package vacation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) calendar.Date {
	d, err := calendar.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

var today = date("2025-12-01")

func noHolidays() calendar.HolidaySet {
	return calendar.NewHolidaySet([]int{2025, 2026})
}

func holidaysOn(days ...string) calendar.HolidaySet {
	var hs []calendar.Holiday
	for _, d := range days {
		hs = append(hs, calendar.Holiday{Date: date(d), Name: "Holiday " + d, Location: calendar.LocationGeneral})
	}
	return calendar.NewHolidaySet([]int{2025, 2026}, hs...)
}

func defaults() calendar.Config { return calendar.DefaultConfig() }

func period(id, emp, start, end string, days int, t vacation.PeriodType, st vacation.Status) vacation.Period {
	return vacation.Period{ID: id, EmployeeID: emp, Start: date(start), End: date(end), Days: days, TypePeriod: t, Status: st}
}

func worker() vacation.Employee {
	return vacation.Employee{ID: "emp", Name: "Worker", Role: vacation.RoleEmployee, Entitlement: 30, Location: "CUSCO"}
}

// =============================================================================
// DATE VALIDATOR
// =============================================================================

func TestValidateStartDate_WeekendBlocked(t *testing.T) {
	for _, d := range []string{"2026-01-10", "2026-01-11", "2026-03-07", "2026-03-08"} {
		ok, reason := vacation.Validate(date(d), today, nil, defaults(), noHolidays())
		assert.False(t, ok, d)
		assert.Contains(t, reason, "weekend")
	}
}

func TestValidateStartDate_WeekendAllowedWhenConfigured(t *testing.T) {
	cfg := defaults()
	cfg.AllowStartOnWeekend = true
	assert.NoError(t, vacation.ValidateStartDate(date("2026-01-10"), today, nil, cfg, noHolidays()))
}

func TestValidateStartDate_PastAndTodayBlockedRegardlessOfToggles(t *testing.T) {
	permissive := calendar.Config{AllowStartOnWeekend: true, AllowStartOnHoliday: true}
	for _, d := range []string{"2025-12-01", "2025-11-30", "2024-06-03"} {
		err := vacation.ValidateStartDate(date(d), today, nil, permissive, noHolidays())
		require.Error(t, err, d)
		assert.ErrorIs(t, err, vacation.ErrValidation)
	}
	assert.NoError(t, vacation.ValidateStartDate(date("2025-12-02"), today, nil, permissive, noHolidays()))
}

func TestValidateStartDate_HolidayBlockedUnlessAllowed(t *testing.T) {
	hs := holidaysOn("2026-01-01")
	err := vacation.ValidateStartDate(date("2026-01-01"), today, nil, defaults(), hs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "holiday")

	cfg := defaults()
	cfg.AllowStartOnHoliday = true
	assert.NoError(t, vacation.ValidateStartDate(date("2026-01-01"), today, nil, cfg, hs))
}

func TestValidateStartDate_PolicyMonthsNamedInMessage(t *testing.T) {
	policy := &vacation.Policy{ID: "p1", Name: "Summer crew", Months: []time.Month{time.January, time.February, time.July}}

	ok, reason := vacation.Validate(date("2026-03-02"), today, policy, defaults(), noHolidays())
	assert.False(t, ok)
	assert.Contains(t, reason, "January")
	assert.Contains(t, reason, "July")

	ok, _ = vacation.Validate(date("2026-02-02"), today, policy, defaults(), noHolidays())
	assert.True(t, ok)
}

func TestValidateStartDate_FirstFailureWins(t *testing.T) {
	// A past Saturday reports the date rule, not the weekend rule.
	_, reason := vacation.Validate(date("2025-11-29"), today, nil, defaults(), noHolidays())
	assert.Contains(t, reason, "future")
}

// =============================================================================
// PERIOD CALCULATOR
// =============================================================================

func TestCompute_NoFridayLanding(t *testing.T) {
	calc, err := vacation.Compute(date("2026-01-05"), vacation.Type15, calendar.Config{FridayExtends: true}, noHolidays())
	require.NoError(t, err)
	assert.Equal(t, "2026-01-19", calc.End.String())
	assert.Equal(t, 15, calc.Days)
	assert.Empty(t, calc.Messages)
}

func TestCompute_FridayExtendsToSunday(t *testing.T) {
	calc, err := vacation.Compute(date("2026-01-09"), vacation.Type8, calendar.Config{FridayExtends: true}, noHolidays())
	require.NoError(t, err)
	assert.Equal(t, "2026-01-18", calc.End.String())
	assert.Equal(t, 10, calc.Days)
	require.NotEmpty(t, calc.Messages)
	assert.Contains(t, calc.Messages[0], "10 days")
}

func TestCompute_FridayExtensionDisabled(t *testing.T) {
	calc, err := vacation.Compute(date("2026-01-09"), vacation.Type8, calendar.Config{}, noHolidays())
	require.NoError(t, err)
	assert.Equal(t, "2026-01-16", calc.End.String())
	assert.Equal(t, 8, calc.Days)
}

func TestCompute_BridgeIntoHolidayRejected(t *testing.T) {
	_, err := vacation.Compute(date("2026-01-09"), vacation.Type8, calendar.Config{FridayExtends: true}, holidaysOn("2026-01-19"))
	require.Error(t, err)
	assert.ErrorIs(t, err, vacation.ErrBridgeNotAllowed)

	var bridge *vacation.BridgeError
	require.ErrorAs(t, err, &bridge)
	assert.Equal(t, "2026-01-18", bridge.End.String())
	assert.Contains(t, err.Error(), "2026-01-18")
}

func TestCompute_InvalidPeriodType(t *testing.T) {
	for _, pt := range []vacation.PeriodType{0, 1, 10, 14, 31} {
		_, err := vacation.Compute(date("2026-01-05"), pt, defaults(), noHolidays())
		assert.ErrorIs(t, err, vacation.ErrInvalidPeriodType)
		assert.ErrorIs(t, err, vacation.ErrValidation)
	}
}

func TestCompute_DaysNeverBelowType(t *testing.T) {
	start := date("2026-01-05")
	for i := 0; i < 60; i++ {
		for _, pt := range vacation.PeriodTypes {
			calc, err := vacation.Compute(start.AddDays(i), pt, defaults(), noHolidays())
			require.NoError(t, err)
			assert.GreaterOrEqual(t, calc.Days, int(pt))
			assert.Equal(t, calc.Days, calendar.Range{Start: calc.Start, End: calc.End}.Days())
		}
	}
}

func TestCompute_WarnsBeyondLoadedHorizon(t *testing.T) {
	calc, err := vacation.Compute(date("2027-12-27"), vacation.Type7, defaults(), noHolidays())
	require.NoError(t, err)
	assert.Equal(t, "2028-01-02", calc.End.String())
	require.NotEmpty(t, calc.Messages)
	assert.Contains(t, calc.Messages[len(calc.Messages)-1], "2028")
}

// =============================================================================
// BALANCE / OVERLAP / LIMITER
// =============================================================================

func TestRemaining_OnlyConsumingStatusesCharge(t *testing.T) {
	periods := []vacation.Period{
		period("a", "emp", "2026-01-05", "2026-01-11", 7, vacation.Type7, vacation.StatusDraft),
		period("b", "emp", "2026-02-02", "2026-02-09", 8, vacation.Type8, vacation.StatusApproved),
		period("c", "emp", "2026-03-02", "2026-03-16", 15, vacation.Type15, vacation.StatusRejected),
		period("d", "emp", "2026-04-06", "2026-04-20", 15, vacation.Type15, vacation.StatusSuspended),
		period("e", "emp", "2026-05-04", "2026-05-10", 7, vacation.Type7, vacation.StatusPendingSuspension),
		period("f", "other", "2026-05-04", "2026-06-02", 30, vacation.Type30, vacation.StatusApproved),
	}
	assert.Equal(t, 30-7-8-7, vacation.Remaining(worker(), periods))
	assert.Equal(t, 30-8-7, vacation.Available(worker(), periods, "a"))

	s := vacation.Summarize(worker(), periods)
	assert.Equal(t, 8, s.Approved)
	assert.Equal(t, 14, s.Pending)
	assert.Equal(t, 8, s.Remaining)
}

func TestRemaining_MayGoNegative(t *testing.T) {
	e := worker()
	e.Entitlement = 10
	periods := []vacation.Period{period("a", "emp", "2026-01-05", "2026-01-19", 15, vacation.Type15, vacation.StatusApproved)}
	assert.Equal(t, -5, vacation.Remaining(e, periods))
	assert.ErrorIs(t, vacation.CheckBalance("emp", -5, 7), vacation.ErrInsufficientBalance)
}

func TestCheckOverlap_InclusiveAndIgnoresInactive(t *testing.T) {
	existing := []vacation.Period{
		period("a", "emp", "2026-01-05", "2026-01-19", 15, vacation.Type15, vacation.StatusApproved),
		period("b", "emp", "2026-03-02", "2026-03-16", 15, vacation.Type15, vacation.StatusRejected),
		period("c", "emp", "2026-04-06", "2026-04-20", 15, vacation.Type15, vacation.StatusSuspended),
	}

	err := vacation.CheckOverlap("emp", date("2026-01-19"), date("2026-01-25"), existing, "")
	require.Error(t, err)
	var oe *vacation.OverlapError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "a", oe.Conflicting.ID)

	assert.NoError(t, vacation.CheckOverlap("emp", date("2026-01-19"), date("2026-01-25"), existing, "a"))
	assert.NoError(t, vacation.CheckOverlap("emp", date("2026-03-05"), date("2026-03-11"), existing, ""))
	assert.NoError(t, vacation.CheckOverlap("emp", date("2026-04-06"), date("2026-04-12"), existing, ""))
	assert.NoError(t, vacation.CheckOverlap("someone-else", date("2026-01-05"), date("2026-01-19"), existing, ""))
}

func TestCheckTypeLimit_OnePerYearForShortTypes(t *testing.T) {
	existing := []vacation.Period{
		period("a", "emp", "2026-02-02", "2026-02-08", 7, vacation.Type7, vacation.StatusDraft),
	}

	err := vacation.CheckTypeLimit("emp", date("2026-03-02"), vacation.Type7, existing, "")
	assert.ErrorIs(t, err, vacation.ErrTypeLimitExceeded)

	assert.NoError(t, vacation.CheckTypeLimit("emp", date("2026-03-02"), vacation.Type8, existing, ""))
	assert.NoError(t, vacation.CheckTypeLimit("emp", date("2026-03-02"), vacation.Type15, existing, ""))
	assert.NoError(t, vacation.CheckTypeLimit("emp", date("2027-03-01"), vacation.Type7, existing, ""))
	assert.NoError(t, vacation.CheckTypeLimit("emp", date("2026-03-02"), vacation.Type7, existing, "a"))

	existing[0].Status = vacation.StatusRejected
	assert.NoError(t, vacation.CheckTypeLimit("emp", date("2026-03-02"), vacation.Type7, existing, ""))
}

// =============================================================================
// PLAN - Full pipeline
// =============================================================================

func planInput(start string, pt vacation.PeriodType, periods []vacation.Period) vacation.PlanInput {
	return vacation.PlanInput{
		Employee: worker(),
		Start:    date(start),
		Type:     pt,
		Today:    today,
		Config:   defaults(),
		Holidays: noHolidays(),
		Periods:  periods,
	}
}

func TestPlan_OverlapThenIgnoreID(t *testing.T) {
	first := period("first", "emp", "2026-01-05", "2026-01-19", 15, vacation.Type15, vacation.StatusDraft)

	_, err := vacation.Plan(planInput("2026-01-12", vacation.Type15, []vacation.Period{first}))
	assert.ErrorIs(t, err, vacation.ErrOverlap)

	in := planInput("2026-01-12", vacation.Type15, []vacation.Period{first})
	in.IgnoreID = "first"
	calc, err := vacation.Plan(in)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-26", calc.End.String())
}

func TestPlan_BalanceCheckedAgainstCharge(t *testing.T) {
	existing := []vacation.Period{
		period("a", "emp", "2026-01-05", "2026-01-19", 15, vacation.Type15, vacation.StatusApproved),
		period("b", "emp", "2026-02-02", "2026-02-16", 15, vacation.Type15, vacation.StatusPendingHR),
	}
	_, err := vacation.Plan(planInput("2026-03-02", vacation.Type7, existing))
	var be *vacation.InsufficientBalanceError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 0, be.Available)
	assert.Equal(t, 7, be.Requested)
}

func TestPlan_StopsAtFirstFailure(t *testing.T) {
	// Past date and an invalid type: the date rule reports first.
	_, err := vacation.Plan(planInput("2025-11-03", 10, nil))
	assert.ErrorIs(t, err, vacation.ErrValidation)
	assert.NotErrorIs(t, err, vacation.ErrInvalidPeriodType)
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

func TestErrorHelpers(t *testing.T) {
	assert.True(t, vacation.IsBusinessError(&vacation.OverlapError{}))
	assert.True(t, vacation.IsBusinessError(&vacation.TransitionError{}))
	assert.False(t, vacation.IsBusinessError(&vacation.NotFoundError{Kind: "period", ID: "x"}))
	assert.True(t, vacation.IsNotFound(&vacation.NotFoundError{Kind: "period", ID: "x"}))
	assert.True(t, vacation.IsPermissionDenied(&vacation.PermissionError{ActorID: "a"}))
}
