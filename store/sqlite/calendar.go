package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// CALENDAR PROVIDER (calendar.Provider interface)
// =============================================================================

// Holidays returns the GENERAL and location-specific holidays of one year.
func (s *Store) Holidays(ctx context.Context, location string, year int) ([]calendar.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, location FROM holidays
		WHERE date >= ? AND date <= ? AND (location = ? OR location = ?)
		ORDER BY date, location
	`, calendar.NewDate(year, 1, 1).String(), calendar.NewDate(year, 12, 31).String(),
		calendar.LocationGeneral, calendar.NormalizeLocation(location))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHolidays(rows)
}

// Settings returns every stored calendar setting.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// =============================================================================
// CALENDAR ADMINISTRATION
// =============================================================================

// ListHolidays returns every holiday of a year regardless of location.
func (s *Store) ListHolidays(ctx context.Context, year int) ([]calendar.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, location FROM holidays
		WHERE date >= ? AND date <= ?
		ORDER BY date, location
	`, calendar.NewDate(year, 1, 1).String(), calendar.NewDate(year, 12, 31).String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHolidays(rows)
}

// SaveHoliday inserts a holiday. The same (date, location, name) is stored
// once; a repeat reports inserted=false without error.
func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) (inserted bool, err error) {
	if h.ID == "" {
		return false, &vacation.ValidationError{Field: "id", Message: "holiday id is required"}
	}
	if h.Date.IsZero() {
		return false, &vacation.ValidationError{Field: "date", Message: "holiday date is required"}
	}
	if strings.TrimSpace(h.Name) == "" {
		return false, &vacation.ValidationError{Field: "name", Message: "holiday name is required"}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, location) VALUES (?, ?, ?, ?)
		ON CONFLICT(date, location, name) DO NOTHING
	`, h.ID, h.Date.String(), strings.TrimSpace(h.Name), calendar.NormalizeLocation(h.Location))
	if isUniqueConstraintError(err) {
		return false, &vacation.ValidationError{Field: "id", Message: fmt.Sprintf("holiday %s already exists", h.ID), Cause: err}
	}
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteHoliday removes a holiday by id.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("holiday", id)
	}
	return nil
}

// SaveSetting stores one calendar toggle. Unknown keys and non-boolean
// values are rejected.
func (s *Store) SaveSetting(ctx context.Context, key, value string) error {
	if err := calendar.ValidateSetting(key, value); err != nil {
		return &vacation.ValidationError{Field: "key", Message: err.Error(), Cause: err}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, strings.ToUpper(strings.TrimSpace(key)), strings.ToLower(strings.TrimSpace(value)))
	return err
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanHolidays(rows rowsScanner) ([]calendar.Holiday, error) {
	var out []calendar.Holiday
	for rows.Next() {
		var (
			h    calendar.Holiday
			date string
			err  error
		)
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Location); err != nil {
			return nil, err
		}
		if h.Date, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("holiday %s date: %w", h.ID, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
