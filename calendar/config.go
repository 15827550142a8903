package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// Setting keys as stored in the settings table.
const (
	SettingHolidaysCount       = "HOLIDAYS_COUNT"
	SettingFridayExtends       = "FRIDAY_EXTENDS"
	SettingAllowStartOnWeekend = "ALLOW_START_ON_WEEKEND"
	SettingAllowStartOnHoliday = "ALLOW_START_ON_HOLIDAY"
)

// Config holds the calendar toggles that drive date validation and period
// calculation. HolidaysCount is carried for reporting only: days are always
// charged in calendar days.
type Config struct {
	HolidaysCount       bool `json:"holidays_count" toml:"holidays_count"`
	FridayExtends       bool `json:"friday_extends" toml:"friday_extends"`
	AllowStartOnWeekend bool `json:"allow_start_on_weekend" toml:"allow_start_on_weekend"`
	AllowStartOnHoliday bool `json:"allow_start_on_holiday" toml:"allow_start_on_holiday"`
}

// DefaultConfig is used for any key missing from the settings source.
func DefaultConfig() Config {
	return Config{
		HolidaysCount:       true,
		FridayExtends:       true,
		AllowStartOnWeekend: false,
		AllowStartOnHoliday: false,
	}
}

// ParseConfig builds a Config from raw key/value settings. Missing keys keep
// their defaults; unknown keys are ignored. A value that is not a boolean is
// an error rather than silently false, and so is a key given twice in
// different case.
func ParseConfig(raw map[string]string) (Config, error) {
	cfg := DefaultConfig()
	fields := map[string]*bool{
		SettingHolidaysCount:       &cfg.HolidaysCount,
		SettingFridayExtends:       &cfg.FridayExtends,
		SettingAllowStartOnWeekend: &cfg.AllowStartOnWeekend,
		SettingAllowStartOnHoliday: &cfg.AllowStartOnHoliday,
	}
	seen := make(map[string]string, len(fields))
	for key, value := range raw {
		norm := strings.ToUpper(strings.TrimSpace(key))
		dst, ok := fields[norm]
		if !ok {
			continue
		}
		if prev, dup := seen[norm]; dup {
			return Config{}, fmt.Errorf("setting %s given twice (%q and %q)", norm, prev, key)
		}
		seen[norm] = key
		b, err := parseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("setting %s: %w", key, err)
		}
		*dst = b
	}
	return cfg, nil
}

// Settings renders the config back to raw key/value form.
func (c Config) Settings() map[string]string {
	return map[string]string{
		SettingHolidaysCount:       strconv.FormatBool(c.HolidaysCount),
		SettingFridayExtends:       strconv.FormatBool(c.FridayExtends),
		SettingAllowStartOnWeekend: strconv.FormatBool(c.AllowStartOnWeekend),
		SettingAllowStartOnHoliday: strconv.FormatBool(c.AllowStartOnHoliday),
	}
}

// parseBool accepts what strconv.ParseBool accepts plus true/false in any
// case.
func parseBool(s string) (bool, error) {
	v := strings.TrimSpace(s)
	if b, err := strconv.ParseBool(v); err == nil {
		return b, nil
	}
	switch strings.ToLower(v) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// ValidateSetting checks a single key/value pair before it is stored.
// Unlike ParseConfig it rejects unknown keys.
func ValidateSetting(key, value string) error {
	switch strings.ToUpper(strings.TrimSpace(key)) {
	case SettingHolidaysCount, SettingFridayExtends, SettingAllowStartOnWeekend, SettingAllowStartOnHoliday:
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if _, err := parseBool(value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}
