package sqlite_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/vacation"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func date(s string) calendar.Date {
	d, err := calendar.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strptr(s string) *string { return &s }

var created = time.Date(2025, 11, 20, 9, 30, 0, 0, time.UTC)

func seedEmployee(t *testing.T, st *sqlite.Store, e vacation.Employee) {
	t.Helper()
	if e.Role == "" {
		e.Role = vacation.RoleEmployee
	}
	if e.Entitlement == 0 {
		e.Entitlement = vacation.DefaultEntitlement
	}
	if e.Location == "" {
		e.Location = vacation.DefaultLocation
	}
	e.CreatedAt = created
	require.NoError(t, st.SaveEmployee(context.Background(), e))
}

func seedPeriod(t *testing.T, st *sqlite.Store, id, emp, start, end string, status vacation.Status) vacation.Period {
	t.Helper()
	p := vacation.Period{
		ID:         id,
		EmployeeID: emp,
		Start:      date(start),
		End:        date(end),
		Days:       calendar.DaysBetween(date(start), date(end)) + 1,
		TypePeriod: vacation.Type7,
		Status:     status,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, st.SavePeriod(context.Background(), p))
	return p
}

// =============================================================================
// EMPLOYEES AND POLICIES
// =============================================================================

func TestStore_EmployeeRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	require.NoError(t, st.SavePolicy(ctx, vacation.Policy{ID: "summer", Name: "Summer", Months: []time.Month{time.January, time.February}}))
	seedEmployee(t, st, vacation.Employee{ID: "mgr", Name: "Mia", Role: vacation.RoleManager, CanRequestOwnVacation: true})
	seedEmployee(t, st, vacation.Employee{ID: "emp", Name: "Eve", ManagerID: strptr("mgr"), PolicyID: strptr("summer"), Area: "OPS"})

	got, err := st.GetEmployee(ctx, "emp")
	require.NoError(t, err)
	assert.Equal(t, "Eve", got.Name)
	require.NotNil(t, got.ManagerID)
	assert.Equal(t, "mgr", *got.ManagerID)
	require.NotNil(t, got.PolicyID)
	assert.Equal(t, "summer", *got.PolicyID)
	assert.Equal(t, created, got.CreatedAt)

	mgr, err := st.GetEmployee(ctx, "mgr")
	require.NoError(t, err)
	assert.True(t, mgr.CanRequestOwnVacation)
	assert.Nil(t, mgr.ManagerID)

	policy, err := st.GetPolicy(ctx, "summer")
	require.NoError(t, err)
	assert.Equal(t, []time.Month{time.January, time.February}, policy.Months)

	all, err := st.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Eve", all[0].Name, "ordered by name")
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	_, err := st.GetEmployee(ctx, "ghost")
	assert.ErrorIs(t, err, vacation.ErrNotFound)
	_, err = st.GetPeriod(ctx, "ghost")
	assert.ErrorIs(t, err, vacation.ErrNotFound)
	assert.ErrorIs(t, st.DeletePeriod(ctx, "ghost"), vacation.ErrNotFound)
	assert.ErrorIs(t, st.AppendAudit(ctx, vacation.AuditEntry{ID: "a", PeriodID: "ghost", CreatedAt: created}), vacation.ErrNotFound)
}

func TestStore_UnknownManagerRejected(t *testing.T) {
	st := newStore(t)
	err := st.SaveEmployee(context.Background(), vacation.Employee{
		ID: "emp", Name: "Eve", Role: vacation.RoleEmployee, ManagerID: strptr("nobody"),
		Entitlement: 30, Location: "CUSCO", CreatedAt: created,
	})
	assert.ErrorIs(t, err, vacation.ErrValidation)
}

func TestStore_DuplicatePolicyName(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	require.NoError(t, st.SavePolicy(ctx, vacation.Policy{ID: "a", Name: "Summer"}))
	err := st.SavePolicy(ctx, vacation.Policy{ID: "b", Name: "Summer"})
	assert.ErrorIs(t, err, vacation.ErrValidation)
}

// =============================================================================
// PERIODS AND CASCADES
// =============================================================================

func TestStore_ListPeriodsFilter(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	seedEmployee(t, st, vacation.Employee{ID: "emp", Name: "Eve"})
	seedEmployee(t, st, vacation.Employee{ID: "emp2", Name: "Eli"})
	seedPeriod(t, st, "p2", "emp", "2026-03-02", "2026-03-08", vacation.StatusApproved)
	seedPeriod(t, st, "p1", "emp", "2026-01-05", "2026-01-11", vacation.StatusDraft)
	seedPeriod(t, st, "p3", "emp2", "2026-02-02", "2026-02-08", vacation.StatusDraft)

	mine, err := st.ListPeriods(ctx, vacation.PeriodFilter{EmployeeID: "emp"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "p1", mine[0].ID, "ordered by start")
	assert.Equal(t, date("2026-01-11"), mine[0].End)

	drafts, err := st.ListPeriods(ctx, vacation.PeriodFilter{Statuses: []vacation.Status{vacation.StatusDraft}})
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	both, err := st.ListPeriods(ctx, vacation.PeriodFilter{
		EmployeeID: "emp",
		Statuses:   []vacation.Status{vacation.StatusDraft, vacation.StatusApproved},
	})
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestStore_SavePeriodUpdatesInPlace(t *testing.T) {
	// GIVEN: a period with an audit entry
	// WHEN: the period is saved again with a new status
	// THEN: the audit entry survives (upsert, not delete-and-insert)

	ctx := context.Background()
	st := newStore(t)
	seedEmployee(t, st, vacation.Employee{ID: "emp", Name: "Eve"})
	p := seedPeriod(t, st, "p1", "emp", "2026-01-05", "2026-01-11", vacation.StatusDraft)
	require.NoError(t, st.AppendAudit(ctx, vacation.AuditEntry{ID: "a1", PeriodID: "p1", ActorID: "emp", Description: "created", CreatedAt: created}))

	p.Status = vacation.StatusPendingHR
	require.NoError(t, st.SavePeriod(ctx, p))

	got, err := st.GetPeriod(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, vacation.StatusPendingHR, got.Status)
	history, err := st.ListAudit(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestStore_DeletePeriodCascades(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	seedEmployee(t, st, vacation.Employee{ID: "emp", Name: "Eve"})
	seedPeriod(t, st, "p1", "emp", "2026-01-05", "2026-01-11", vacation.StatusApproved)
	newEnd := date("2026-01-08")

	require.NoError(t, st.AppendAudit(ctx, vacation.AuditEntry{ID: "a1", PeriodID: "p1", ActorID: "emp", Description: "created", CreatedAt: created}))
	require.NoError(t, st.SaveModification(ctx, vacation.ModificationRequest{
		ID: "m1", PeriodID: "p1", RequestedBy: "mgr", NewStart: date("2026-02-02"), NewEnd: date("2026-02-08"),
		NewDays: 7, NewTypePeriod: vacation.Type7, Status: vacation.RequestPending, CreatedAt: created,
	}))
	require.NoError(t, st.SaveSuspension(ctx, vacation.SuspensionRequest{
		ID: "s1", PeriodID: "p1", RequestedBy: "mgr", Type: vacation.SuspensionPartial, NewEnd: &newEnd,
		Status: vacation.RequestPending, CreatedAt: created,
	}))

	s, err := st.GetSuspension(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, s.NewEnd)
	assert.Equal(t, newEnd, *s.NewEnd)

	require.NoError(t, st.DeletePeriod(ctx, "p1"))

	_, err = st.GetModification(ctx, "m1")
	assert.ErrorIs(t, err, vacation.ErrNotFound)
	_, err = st.GetSuspension(ctx, "s1")
	assert.ErrorIs(t, err, vacation.ErrNotFound)
	history, err := st.ListAudit(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	seedEmployee(t, st, vacation.Employee{ID: "emp", Name: "Eve"})

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(repo vacation.Repository) error {
		require.NoError(t, repo.SavePeriod(ctx, vacation.Period{
			ID: "p1", EmployeeID: "emp", Start: date("2026-01-05"), End: date("2026-01-11"),
			Days: 7, TypePeriod: vacation.Type7, Status: vacation.StatusDraft, CreatedAt: created, UpdatedAt: created,
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = st.GetPeriod(ctx, "p1")
	assert.ErrorIs(t, err, vacation.ErrNotFound)
}

func TestStore_ResetRequests(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	seedEmployee(t, st, vacation.Employee{ID: "emp", Name: "Eve"})
	seedPeriod(t, st, "p1", "emp", "2026-01-05", "2026-01-11", vacation.StatusApproved)
	seedPeriod(t, st, "p2", "emp", "2026-03-02", "2026-03-08", vacation.StatusDraft)

	removed, err := st.ResetRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := st.ListPeriods(ctx, vacation.PeriodFilter{})
	require.NoError(t, err)
	assert.Empty(t, left)
	_, err = st.GetEmployee(ctx, "emp")
	assert.NoError(t, err, "employees survive a reset")
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestStore_HolidaysByLocation(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	for _, h := range []calendar.Holiday{
		{ID: "h1", Date: date("2026-01-01"), Name: "New Year", Location: calendar.LocationGeneral},
		{ID: "h2", Date: date("2026-06-24"), Name: "Inti Raymi", Location: "cusco"},
		{ID: "h3", Date: date("2026-07-25"), Name: "Quillabamba anniversary", Location: "QUILLABAMBA"},
		{ID: "h4", Date: date("2027-01-01"), Name: "New Year", Location: calendar.LocationGeneral},
	} {
		inserted, err := st.SaveHoliday(ctx, h)
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	cusco, err := st.Holidays(ctx, "Cusco", 2026)
	require.NoError(t, err)
	require.Len(t, cusco, 2)
	assert.Equal(t, "New Year", cusco[0].Name)
	assert.Equal(t, "CUSCO", cusco[1].Location)

	all, err := st.ListHolidays(ctx, 2026)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	again, err := st.SaveHoliday(ctx, calendar.Holiday{ID: "h5", Date: date("2026-01-01"), Name: "New Year"})
	require.NoError(t, err)
	assert.False(t, again, "same date, location and name is stored once")

	require.NoError(t, st.DeleteHoliday(ctx, "h2"))
	assert.ErrorIs(t, st.DeleteHoliday(ctx, "h2"), vacation.ErrNotFound)
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	cfg, err := calendar.LoadConfig(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, calendar.DefaultConfig(), cfg, "defaults are seeded by migrate")

	require.NoError(t, st.SaveSetting(ctx, calendar.SettingFridayExtends, "False"))
	cfg, err = calendar.LoadConfig(ctx, st)
	require.NoError(t, err)
	assert.False(t, cfg.FridayExtends)

	assert.ErrorIs(t, st.SaveSetting(ctx, "COLOR", "true"), vacation.ErrValidation)
	assert.ErrorIs(t, st.SaveSetting(ctx, calendar.SettingHolidaysCount, "maybe"), vacation.ErrValidation)
}

func TestStore_DefaultSettingsOption(t *testing.T) {
	ctx := context.Background()
	defaults := calendar.DefaultConfig()
	defaults.AllowStartOnWeekend = true

	st, err := sqlite.New(":memory:", sqlite.WithDefaultSettings(defaults))
	require.NoError(t, err)
	defer st.Close()

	cfg, err := calendar.LoadConfig(ctx, st)
	require.NoError(t, err)
	assert.True(t, cfg.AllowStartOnWeekend)
}

// =============================================================================
// SERVICE OVER SQLITE
// =============================================================================

func TestStore_ServiceLifecycle(t *testing.T) {
	// GIVEN: a manager and their report on a fresh database
	// WHEN: a 15-day period is created, submitted and approved
	// THEN: the balance drops by the charged days and the history has 3 entries

	ctx := context.Background()
	st := newStore(t)
	_, err := st.SaveHoliday(ctx, calendar.Holiday{ID: "ny", Date: date("2026-01-01"), Name: "New Year"})
	require.NoError(t, err)

	svc := vacation.NewService(st, st,
		vacation.WithClock(calendar.FixedClock(date("2025-12-01"))),
		vacation.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	for _, e := range []vacation.Employee{
		{ID: "hr", Name: "Hal", Role: vacation.RoleHR},
		{ID: "mgr", Name: "Mia", Role: vacation.RoleManager},
		{ID: "emp", Name: "Eve", ManagerID: strptr("mgr")},
	} {
		_, err := svc.SaveEmployee(ctx, e)
		require.NoError(t, err)
	}

	out, err := svc.Create(ctx, vacation.CreateRequest{ActorID: "emp", EmployeeID: "emp", Start: date("2026-01-05"), Type: vacation.Type15})
	require.NoError(t, err)
	id := out.Period.ID

	_, err = svc.SubmitToHR(ctx, "mgr", id, "form.pdf")
	require.NoError(t, err)
	approved, err := svc.Approve(ctx, "hr", id)
	require.NoError(t, err)
	assert.Equal(t, vacation.StatusApproved, approved.Period.Status)

	balance, err := svc.Balance(ctx, "emp")
	require.NoError(t, err)
	assert.Equal(t, 30-out.Period.Days, balance.Remaining)

	history, err := svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "emp", history[0].ActorID)
	assert.Equal(t, "hr", history[2].ActorID)

	// The overlapping second request is refused and leaves nothing behind.
	_, err = svc.Create(ctx, vacation.CreateRequest{ActorID: "emp", EmployeeID: "emp", Start: date("2026-01-12"), Type: vacation.Type7})
	assert.ErrorIs(t, err, vacation.ErrOverlap)
	periods, err := svc.Periods(ctx, "emp")
	require.NoError(t, err)
	assert.Len(t, periods, 1)
}
