/*
Package calendar provides the day-granular date arithmetic the vacation engine runs on.

PURPOSE:
  Leave periods are whole calendar days. Everything in this package works on
  dates without a time of day, so "today", "the day after the end date" and
  "the same calendar year" mean exactly one thing regardless of time zones.

KEY CONCEPTS:
  - Date:       A calendar day (UTC midnight internally)
  - Range:      An inclusive [Start, End] span of dates
  - Holiday:    A dated, location-tagged non-working day
  - HolidaySet: An immutable per-invocation snapshot of holidays
  - Config:     The typed calendar toggles (Friday extension, weekend starts...)
  - Provider:   Where holidays and raw settings come from (SQLite, Redis, memory)

USAGE:
  start := calendar.NewDate(2026, time.January, 9)
  end := start.AddDays(7)          // 2026-01-16, a Friday
  if end.Weekday() == time.Friday { ... }

SEE ALSO:
  - holiday.go: Holiday and HolidaySet
  - config.go:  Config parsing and defaults
  - provider.go: Provider interface and snapshot helpers
*/
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for dates.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - A calendar day
// =============================================================================

// Date is a calendar day. The zero value is not a valid date; see IsZero.
type Date struct {
	t time.Time
}

// NewDate returns the given calendar day. Out-of-range values normalize the
// way time.Date does (January 32 is February 1).
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

// IsWeekend reports whether d is a Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// ordinal is the number of days since the Unix epoch. Used as a map key.
func (d Date) ordinal() int64 {
	return d.t.Unix() / 86400
}

// MarshalText implements encoding.TextMarshaler (JSON, TOML).
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns to - from in whole days (negative when to is earlier).
func DaysBetween(from, to Date) int {
	return int(to.ordinal() - from.ordinal())
}

// =============================================================================
// RANGE - Inclusive span of days
// =============================================================================

// Range is the inclusive span [Start, End].
type Range struct {
	Start Date
	End   Date
}

// Contains reports whether d falls inside the range.
func (r Range) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Overlaps reports whether the two inclusive ranges share at least one day.
func (r Range) Overlaps(o Range) bool {
	return r.Start.BeforeOrEqual(o.End) && r.End.AfterOrEqual(o.Start)
}

// Days is the number of calendar days in the range, both ends included.
func (r Range) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Years returns every calendar year the range touches, ascending.
func (r Range) Years() []int {
	var years []int
	for y := r.Start.Year(); y <= r.End.Year(); y++ {
		years = append(years, y)
	}
	return years
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// CLOCK - Source of "today"
// =============================================================================

// Clock supplies the current calendar day.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() Date {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return DateOf(time.Now().In(loc))
}

// FixedClock always returns the same day.
type FixedClock Date

func (c FixedClock) Today() Date { return Date(c) }
