package calendar

import (
	"context"
	"fmt"
)

// Provider is the source of holidays and raw calendar settings.
// Implemented by the SQLite store, the in-memory store and the Redis cache.
type Provider interface {
	// Holidays returns the holidays observed at location during year,
	// GENERAL holidays included.
	Holidays(ctx context.Context, location string, year int) ([]Holiday, error)

	// Settings returns the raw key/value calendar settings.
	Settings(ctx context.Context) (map[string]string, error)
}

// Snapshot loads the holidays for every listed year into an immutable set.
func Snapshot(ctx context.Context, p Provider, location string, years ...int) (HolidaySet, error) {
	var all []Holiday
	for _, y := range years {
		hs, err := p.Holidays(ctx, location, y)
		if err != nil {
			return HolidaySet{}, fmt.Errorf("load holidays %s/%d: %w", location, y, err)
		}
		all = append(all, hs...)
	}
	return NewHolidaySet(years, all...), nil
}

// LoadConfig reads and parses the provider's settings.
func LoadConfig(ctx context.Context, p Provider) (Config, error) {
	raw, err := p.Settings(ctx)
	if err != nil {
		return Config{}, fmt.Errorf("load settings: %w", err)
	}
	return ParseConfig(raw)
}
