/*
Package seed loads reference data into a fresh installation.

PURPOSE:
  The engine refuses to start leave on a holiday and refuses periods that
  end the day before one, so the holiday calendar must exist before the
  first request. This package carries the institution's holiday calendar
  and an importer for the staff directory.

KEY CONCEPTS:
  Holiday calendar:
    GENERAL holidays apply to every employee. Campus holidays (P_MALDONADO,
    QUILLABAMBA, SICUANI) apply only to employees tagged with that location.
    Fixed-date holidays repeat every year; Holy Thursday, Good Friday and
    Corpus Christi move with Easter.

  Staff import:
    A CSV export with one row per employee and their direct boss. Bosses
    missing from the file are created from the boss columns and promoted
    to manager. See employees.go.

IDEMPOTENCY:
  Holiday IDs are derived from (date, location, name), and the store ignores
  a repeated (date, location, name), so seeding the same year twice inserts
  nothing the second time.

SEE ALSO:
  - store/sqlite/calendar.go: SaveHoliday
  - cmd/server/main.go: seed-holidays and import-employees commands
*/
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/vacation-engine/calendar"
)

// Campus location tags.
const (
	LocationPuertoMaldonado = "P_MALDONADO"
	LocationQuillabamba     = "QUILLABAMBA"
	LocationSicuani         = "SICUANI"
)

// holidayNamespace scopes the name-based holiday IDs.
var holidayNamespace = uuid.MustParse("6f1c0c8e-4d0a-4f57-9a55-3b1d7c2e9a10")

type fixed struct {
	month    time.Month
	day      int
	name     string
	location string
}

// easterOffset is a holiday defined relative to Easter Sunday.
type easterOffset struct {
	days int
	name string
}

var fixedHolidays = []fixed{
	{time.January, 1, "Año Nuevo", calendar.LocationGeneral},
	{time.May, 1, "Día del Trabajo", calendar.LocationGeneral},
	{time.May, 23, "Aniversario UAC", calendar.LocationGeneral},
	{time.June, 7, "Día de la Bandera", calendar.LocationGeneral},
	{time.June, 24, "Inti Raymi", calendar.LocationGeneral},
	{time.June, 29, "San Pedro y San Pablo", calendar.LocationGeneral},
	{time.July, 11, "Día del Docente Universitario", calendar.LocationGeneral},
	{time.July, 21, "Día del Trabajador Universitario", calendar.LocationGeneral},
	{time.July, 23, "Día de la Fuerza Aérea", calendar.LocationGeneral},
	{time.July, 28, "Fiestas Patrias", calendar.LocationGeneral},
	{time.July, 29, "Fiestas Patrias", calendar.LocationGeneral},
	{time.August, 6, "Batalla de Junín", calendar.LocationGeneral},
	{time.August, 30, "Santa Rosa de Lima", calendar.LocationGeneral},
	{time.October, 8, "Combate de Angamos", calendar.LocationGeneral},
	{time.November, 1, "Todos los Santos", calendar.LocationGeneral},
	{time.November, 2, "Día de los Difuntos", calendar.LocationGeneral},
	{time.December, 8, "Inmaculada Concepción", calendar.LocationGeneral},
	{time.December, 9, "Batalla de Ayacucho", calendar.LocationGeneral},
	{time.December, 24, "Víspera de Navidad", calendar.LocationGeneral},
	{time.December, 25, "Navidad", calendar.LocationGeneral},

	{time.May, 23, "Aniversario Filial Puerto Maldonado", LocationPuertoMaldonado},
	{time.June, 24, "Día de San Juan", LocationPuertoMaldonado},
	{time.August, 8, "Festival de la Castaña", LocationPuertoMaldonado},
	{time.September, 27, "Festival Sine Do Dari", LocationPuertoMaldonado},
	{time.December, 26, "Creación Política Madre de Dios", LocationPuertoMaldonado},

	{time.July, 25, "Aniversario Prov. La Convención", LocationQuillabamba},
	{time.September, 26, "Aniversario Filial Quillabamba", LocationQuillabamba},
	{time.November, 28, "Aniv. Villa Quillabamba (Día 1)", LocationQuillabamba},
	{time.November, 29, "Aniv. Villa Quillabamba (Día 2)", LocationQuillabamba},

	{time.April, 15, "Aniversario Filial Sicuani", LocationSicuani},
	{time.October, 14, "Aniversario Prov. Canchis", LocationSicuani},
	{time.November, 4, "Aniversario Distrito Sicuani", LocationSicuani},
}

var movableHolidays = []easterOffset{
	{-3, "Jueves Santo"},
	{-2, "Viernes Santo"},
	{60, "Corpus Christi"},
}

// Easter returns Easter Sunday of year in the Gregorian calendar.
func Easter(year int) calendar.Date {
	a := year % 19
	b, c := year/100, year%100
	d, e := b/4, b%4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i, k := c/4, c%4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return calendar.NewDate(year, time.Month(month), day)
}

// HolidayID is the stable id of a holiday.
func HolidayID(d calendar.Date, location, name string) string {
	key := fmt.Sprintf("%s|%s|%s", d, calendar.NormalizeLocation(location), name)
	return uuid.NewSHA1(holidayNamespace, []byte(key)).String()
}

// Holidays returns the institution's holidays for year, ordered by date
// within each location group.
func Holidays(year int) []calendar.Holiday {
	out := make([]calendar.Holiday, 0, len(fixedHolidays)+len(movableHolidays))
	add := func(d calendar.Date, name, location string) {
		out = append(out, calendar.Holiday{
			ID:       HolidayID(d, location, name),
			Date:     d,
			Name:     name,
			Location: location,
		})
	}
	easter := Easter(year)
	for _, m := range movableHolidays {
		add(easter.AddDays(m.days), m.name, calendar.LocationGeneral)
	}
	for _, f := range fixedHolidays {
		add(calendar.NewDate(year, f.month, f.day), f.name, f.location)
	}
	return out
}

// HolidaySaver stores a holiday; a duplicate reports inserted=false.
type HolidaySaver interface {
	SaveHoliday(ctx context.Context, h calendar.Holiday) (bool, error)
}

// SeedHolidays stores every holiday of year and returns how many were new.
func SeedHolidays(ctx context.Context, store HolidaySaver, year int) (int, error) {
	inserted := 0
	for _, h := range Holidays(year) {
		ok, err := store.SaveHoliday(ctx, h)
		if err != nil {
			return inserted, fmt.Errorf("seed %s %s: %w", h.Date, h.Name, err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}
