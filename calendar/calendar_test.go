package calendar_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/calendar"
)

// =============================================================================
// DATE TESTS
// =============================================================================

func TestDate_ParseAndFormat(t *testing.T) {
	d, err := calendar.ParseDate("2026-01-16")
	require.NoError(t, err)

	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 16, d.Day())
	assert.Equal(t, time.Friday, d.Weekday())
	assert.Equal(t, "2026-01-16", d.String())
}

func TestDate_ParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2026-13-01", "16/01/2026", "tomorrow"} {
		_, err := calendar.ParseDate(s)
		assert.Error(t, err, s)
	}
}

func TestDate_AddDaysCrossesYear(t *testing.T) {
	d := calendar.NewDate(2026, time.December, 28).AddDays(7)
	if !d.Equal(calendar.NewDate(2027, time.January, 4)) {
		t.Errorf("expected 2027-01-04, got %s", d)
	}
}

func TestDate_DaysBetween(t *testing.T) {
	a := calendar.NewDate(2026, time.February, 20)
	b := calendar.NewDate(2026, time.March, 2)
	assert.Equal(t, 10, calendar.DaysBetween(a, b))
	assert.Equal(t, -10, calendar.DaysBetween(b, a))
}

func TestDate_IsWeekend(t *testing.T) {
	assert.True(t, calendar.NewDate(2026, time.January, 10).IsWeekend())  // Saturday
	assert.True(t, calendar.NewDate(2026, time.January, 11).IsWeekend())  // Sunday
	assert.False(t, calendar.NewDate(2026, time.January, 12).IsWeekend()) // Monday
}

func TestDate_JSONRoundTripsAsString(t *testing.T) {
	type wrapper struct {
		Start calendar.Date `json:"start"`
	}
	b, err := json.Marshal(wrapper{Start: calendar.NewDate(2026, time.July, 28)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2026-07-28"}`, string(b))

	var back wrapper
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Start.Equal(calendar.NewDate(2026, time.July, 28)))
}

// =============================================================================
// RANGE TESTS
// =============================================================================

func TestRange_OverlapsIsInclusive(t *testing.T) {
	a := calendar.Range{Start: calendar.NewDate(2026, 3, 1), End: calendar.NewDate(2026, 3, 15)}
	touching := calendar.Range{Start: calendar.NewDate(2026, 3, 15), End: calendar.NewDate(2026, 3, 20)}
	after := calendar.Range{Start: calendar.NewDate(2026, 3, 16), End: calendar.NewDate(2026, 3, 20)}

	assert.True(t, a.Overlaps(touching))
	assert.True(t, touching.Overlaps(a))
	assert.False(t, a.Overlaps(after))
	assert.Equal(t, 15, a.Days())
}

func TestRange_Years(t *testing.T) {
	r := calendar.Range{Start: calendar.NewDate(2026, 12, 25), End: calendar.NewDate(2027, 1, 8)}
	assert.Equal(t, []int{2026, 2027}, r.Years())
}

// =============================================================================
// HOLIDAY SET TESTS
// =============================================================================

func TestHolidaySet_ContainsAndCoverage(t *testing.T) {
	set := calendar.NewHolidaySet([]int{2026},
		calendar.Holiday{Date: calendar.NewDate(2026, time.January, 1), Name: "New Year", Location: calendar.LocationGeneral},
	)

	assert.True(t, set.Contains(calendar.NewDate(2026, time.January, 1)))
	assert.False(t, set.Contains(calendar.NewDate(2026, time.January, 2)))
	assert.True(t, set.Covers(2026))
	assert.False(t, set.Covers(2027))

	name, ok := set.Name(calendar.NewDate(2026, time.January, 1))
	assert.True(t, ok)
	assert.Equal(t, "New Year", name)

	r := calendar.Range{Start: calendar.NewDate(2026, 12, 28), End: calendar.NewDate(2027, 1, 4)}
	assert.Equal(t, []int{2027}, set.Uncovered(r))
}

func TestFilterLocation_KeepsGeneralAndMatching(t *testing.T) {
	hs := []calendar.Holiday{
		{Date: calendar.NewDate(2026, 6, 24), Name: "Inti Raymi", Location: "CUSCO"},
		{Date: calendar.NewDate(2026, 7, 28), Name: "Independence", Location: calendar.LocationGeneral},
		{Date: calendar.NewDate(2026, 9, 24), Name: "Local", Location: "SICUANI"},
	}
	got := calendar.FilterLocation(hs, "cusco")
	require.Len(t, got, 2)
	assert.Equal(t, "Inti Raymi", got[0].Name)
	assert.Equal(t, "Independence", got[1].Name)
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestParseConfig_DefaultsForMissingKeys(t *testing.T) {
	cfg, err := calendar.ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, calendar.DefaultConfig(), cfg)
	assert.True(t, cfg.FridayExtends)
	assert.False(t, cfg.AllowStartOnWeekend)
}

func TestParseConfig_OverridesAndRejectsGarbage(t *testing.T) {
	cfg, err := calendar.ParseConfig(map[string]string{
		"FRIDAY_EXTENDS":         "False",
		"allow_start_on_weekend": "1",
		"UNRELATED":              "whatever",
	})
	require.NoError(t, err)
	assert.False(t, cfg.FridayExtends)
	assert.True(t, cfg.AllowStartOnWeekend)

	_, err = calendar.ParseConfig(map[string]string{"FRIDAY_EXTENDS": "maybe"})
	assert.Error(t, err)
}

func TestParseConfig_BooleanEncodings(t *testing.T) {
	cases := map[string]bool{
		"t": true, "T": true, "TRUE": true, "tRuE": true, " 1 ": true,
		"f": false, "F": false, "FALSE": false, "fAlSe": false, "0": false,
	}
	for raw, want := range cases {
		cfg, err := calendar.ParseConfig(map[string]string{"ALLOW_START_ON_HOLIDAY": raw})
		require.NoError(t, err, "value %q", raw)
		assert.Equal(t, want, cfg.AllowStartOnHoliday, "value %q", raw)
	}

	for _, raw := range []string{"yes", "no", "on", "off", ""} {
		_, err := calendar.ParseConfig(map[string]string{"ALLOW_START_ON_HOLIDAY": raw})
		assert.Error(t, err, "value %q", raw)
		assert.Error(t, calendar.ValidateSetting("ALLOW_START_ON_HOLIDAY", raw), "value %q", raw)
	}
}

func TestParseConfig_RejectsKeyGivenTwice(t *testing.T) {
	_, err := calendar.ParseConfig(map[string]string{
		"friday_extends": "true",
		"FRIDAY_EXTENDS": "false",
	})
	assert.ErrorContains(t, err, "FRIDAY_EXTENDS")
}

func TestConfig_SettingsRoundTrip(t *testing.T) {
	in := calendar.Config{FridayExtends: false, AllowStartOnHoliday: true}
	out, err := calendar.ParseConfig(in.Settings())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// =============================================================================
// PROVIDER TESTS
// =============================================================================

type stubProvider struct {
	holidays map[int][]calendar.Holiday
	settings map[string]string
	err      error
}

func (p stubProvider) Holidays(_ context.Context, location string, year int) ([]calendar.Holiday, error) {
	if p.err != nil {
		return nil, p.err
	}
	return calendar.FilterLocation(p.holidays[year], location), nil
}

func (p stubProvider) Settings(context.Context) (map[string]string, error) {
	return p.settings, p.err
}

func TestSnapshot_LoadsEveryYear(t *testing.T) {
	p := stubProvider{holidays: map[int][]calendar.Holiday{
		2026: {{Date: calendar.NewDate(2026, 12, 25), Name: "Christmas", Location: calendar.LocationGeneral}},
		2027: {{Date: calendar.NewDate(2027, 1, 1), Name: "New Year", Location: calendar.LocationGeneral}},
	}}

	set, err := calendar.Snapshot(context.Background(), p, "CUSCO", 2026, 2027)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []int{2026, 2027}, set.Years())
}

func TestSnapshot_PropagatesProviderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := calendar.Snapshot(context.Background(), stubProvider{err: boom}, "CUSCO", 2026)
	assert.ErrorIs(t, err, boom)

	_, err = calendar.LoadConfig(context.Background(), stubProvider{err: boom})
	assert.ErrorIs(t, err, boom)
}
