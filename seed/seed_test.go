package seed_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/seed"
	"github.com/warp/vacation-engine/store/memory"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestEaster(t *testing.T) {
	cases := map[int]string{
		2024: "2024-03-31",
		2025: "2025-04-20",
		2026: "2026-04-05",
		2027: "2027-03-28",
	}
	for year, want := range cases {
		assert.Equal(t, want, seed.Easter(year).String(), "year %d", year)
	}
}

func TestHolidays_2026(t *testing.T) {
	holidays := seed.Holidays(2026)

	general := calendar.FilterLocation(holidays, calendar.LocationGeneral)
	byName := make(map[string]string)
	for _, h := range holidays {
		if h.Location == calendar.LocationGeneral {
			byName[h.Name] = h.Date.String()
		}
	}

	assert.Len(t, general, 23)
	assert.Equal(t, "2026-04-02", byName["Jueves Santo"])
	assert.Equal(t, "2026-04-03", byName["Viernes Santo"])
	assert.Equal(t, "2026-06-04", byName["Corpus Christi"])
	assert.Len(t, holidays, 23+5+4+3)
}

func TestHolidayID_Stable(t *testing.T) {
	d := calendar.NewDate(2026, time.July, 28)

	assert.Equal(t, seed.HolidayID(d, "general", "Fiestas Patrias"), seed.HolidayID(d, calendar.LocationGeneral, "Fiestas Patrias"))
	assert.NotEqual(t, seed.HolidayID(d, calendar.LocationGeneral, "Fiestas Patrias"), seed.HolidayID(d.AddDays(1), calendar.LocationGeneral, "Fiestas Patrias"))
}

func TestSeedHolidays_Idempotent(t *testing.T) {
	// GIVEN: an empty database
	ctx := context.Background()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer st.Close()

	// WHEN: the same year is seeded twice
	first, err := seed.SeedHolidays(ctx, st, 2026)
	require.NoError(t, err)
	second, err := seed.SeedHolidays(ctx, st, 2026)
	require.NoError(t, err)

	// THEN: the second run inserts nothing, and campus holidays stay local
	assert.Equal(t, len(seed.Holidays(2026)), first)
	assert.Zero(t, second)

	sicuani, err := st.Holidays(ctx, seed.LocationSicuani, 2026)
	require.NoError(t, err)
	cusco, err := st.Holidays(ctx, "CUSCO", 2026)
	require.NoError(t, err)
	assert.Len(t, cusco, 23)
	assert.Len(t, sicuani, 23+3)
}

// =============================================================================
// STAFF IMPORT
// =============================================================================

func newService(st *memory.Memory) *vacation.Service {
	return vacation.NewService(st, st,
		vacation.WithClock(calendar.FixedClock(calendar.NewDate(2025, time.December, 1))),
		vacation.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestImportEmployees_SemicolonWithGhostBoss(t *testing.T) {
	// GIVEN: a semicolon export whose boss never appears as a row
	csv := "\xef\xbb\xbfCORREO;NOMBRES;AREA;CORREO_JEFE;NOMBRE_JEFE\n" +
		"Eve@Example.edu;Eve Quispe;Finanzas;boss@example.edu;Bruno Jefe\n" +
		"ana@example.edu;Ana Mamani;Finanzas;boss@example.edu;\n" +
		"not-an-email;Nobody;;;\n" +
		"rrhh@example.edu;Recursos Humanos;RRHH;;\n"
	ctx := context.Background()
	st := memory.New()
	svc := newService(st)

	// WHEN: it is imported
	res, err := seed.ImportEmployees(ctx, strings.NewReader(csv), svc, seed.ImportOptions{HREmail: "RRHH@example.edu"})

	// THEN: the boss is created from the boss columns and promoted to manager
	require.NoError(t, err)
	assert.Equal(t, 4, res.Employees)
	assert.Equal(t, 1, res.Ghosts)
	assert.Equal(t, 2, res.Links)
	assert.Len(t, res.Skipped, 1)

	boss, err := svc.Employee(ctx, "boss@example.edu")
	require.NoError(t, err)
	assert.Equal(t, "Bruno Jefe", boss.Name)
	assert.Equal(t, vacation.RoleManager, boss.Role)
	assert.Equal(t, "Finanzas", boss.Area)

	eve, err := svc.Employee(ctx, "eve@example.edu")
	require.NoError(t, err)
	require.NotNil(t, eve.ManagerID)
	assert.Equal(t, "boss@example.edu", *eve.ManagerID)
	assert.Equal(t, vacation.DefaultEntitlement, eve.Entitlement)

	hr, err := svc.Employee(ctx, "rrhh@example.edu")
	require.NoError(t, err)
	assert.Equal(t, vacation.RoleHR, hr.Role)
}

func TestImportEmployees_CommaAndPromotion(t *testing.T) {
	// The boss row comes after their report: they still end up a manager.
	csv := "CORREO,NOMBRES,AREA,CORREO_JEFE,NOMBRE_JEFE\n" +
		"eve@example.edu,Eve,Ops,mia@example.edu,Mia\n" +
		"mia@example.edu,Mia Condori,Ops,,\n"
	ctx := context.Background()
	svc := newService(memory.New())

	res, err := seed.ImportEmployees(ctx, strings.NewReader(csv), svc, seed.ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Employees)
	assert.Zero(t, res.Ghosts)
	mia, err := svc.Employee(ctx, "mia@example.edu")
	require.NoError(t, err)
	assert.Equal(t, vacation.RoleManager, mia.Role)
	assert.Equal(t, "Mia Condori", mia.Name)
}

func TestImportEmployees_CycleIsSkipped(t *testing.T) {
	csv := "CORREO,NOMBRES,AREA,CORREO_JEFE\n" +
		"a@example.edu,A,X,b@example.edu\n" +
		"b@example.edu,B,X,a@example.edu\n"
	svc := newService(memory.New())

	res, err := seed.ImportEmployees(context.Background(), strings.NewReader(csv), svc, seed.ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Links)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0], "cycle")
}

func TestImportEmployees_ReimportKeepsStoredFields(t *testing.T) {
	// GIVEN: an imported employee whose entitlement, location and policy
	// were changed afterwards
	csv := "CORREO,NOMBRES,AREA,CORREO_JEFE,NOMBRE_JEFE\n" +
		"eve@example.edu,Eve,Ops,mia@example.edu,Mia\n"
	ctx := context.Background()
	svc := newService(memory.New())
	_, err := seed.ImportEmployees(ctx, strings.NewReader(csv), svc, seed.ImportOptions{})
	require.NoError(t, err)

	policy, err := svc.SavePolicy(ctx, vacation.Policy{Name: "Summer", Months: []time.Month{time.January, time.February}})
	require.NoError(t, err)
	eve, err := svc.Employee(ctx, "eve@example.edu")
	require.NoError(t, err)
	eve.Entitlement = 20
	eve.Location = seed.LocationSicuani
	eve.PolicyID = &policy.ID
	_, err = svc.SaveEmployee(ctx, *eve)
	require.NoError(t, err)

	// WHEN: the same file is imported again with a new area
	csv = strings.Replace(csv, ",Ops,", ",Finanzas,", 1)
	_, err = seed.ImportEmployees(ctx, strings.NewReader(csv), svc, seed.ImportOptions{})
	require.NoError(t, err)

	// THEN: the file's fields are applied and the stored ones kept
	got, err := svc.Employee(ctx, "eve@example.edu")
	require.NoError(t, err)
	assert.Equal(t, "Finanzas", got.Area)
	assert.Equal(t, 20, got.Entitlement)
	assert.Equal(t, seed.LocationSicuani, got.Location)
	require.NotNil(t, got.PolicyID)
	assert.Equal(t, policy.ID, *got.PolicyID)
	require.NotNil(t, got.ManagerID)
	assert.Equal(t, "mia@example.edu", *got.ManagerID)
}

func TestImportEmployees_MissingEmailColumn(t *testing.T) {
	svc := newService(memory.New())

	_, err := seed.ImportEmployees(context.Background(), strings.NewReader("NAME,AREA\nx,y\n"), svc, seed.ImportOptions{})

	assert.ErrorContains(t, err, "CORREO")
}
