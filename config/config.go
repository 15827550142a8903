// Package config loads the server configuration from a TOML file.
//
// Every field has a default, so an empty or missing file yields a runnable
// development setup. Durations are written as Go duration strings ("15s").
// JWT_SECRET, DATABASE_PATH and REDIS_ADDR in the environment override the
// file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/vacation"
)

type Config struct {
	Server   Server          `toml:"server"`
	Auth     Auth            `toml:"auth"`
	Database Database        `toml:"database"`
	Redis    Redis           `toml:"redis"`
	Log      Log             `toml:"log"`
	Calendar calendar.Config `toml:"calendar"`
	Reports  Reports         `toml:"reports"`
}

type Server struct {
	Addr            string   `toml:"addr"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Auth configures HS256 bearer tokens. An empty secret disables
// authentication; the actor is then read from the X-Actor-ID header.
type Auth struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

type Database struct {
	Path string `toml:"path"`
}

// Redis enables the holiday cache when Addr is set.
type Redis struct {
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	TTL      Duration `toml:"ttl"`
}

type Log struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Reports configures the alert thresholds. ScanInterval drives the
// background alert scan; zero disables it.
type Reports struct {
	MissingScheduleThreshold int      `toml:"missing_schedule_threshold"`
	ScanInterval             Duration `toml:"scan_interval"`
}

// Duration decodes from a TOML string such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used for any field the file omits.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{15 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Auth:     Auth{Issuer: "vacation-engine"},
		Database: Database{Path: "./data/vacation.db"},
		Redis:    Redis{TTL: Duration{6 * time.Hour}},
		Log:      Log{File: "./logs/vacation.log", Level: "info"},
		Calendar: calendar.DefaultConfig(),
		Reports: Reports{
			MissingScheduleThreshold: vacation.DefaultMissingScheduleThreshold,
			ScanInterval:             Duration{time.Hour},
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", path, err)
		default:
			if _, err := toml.Decode(string(data), &cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Reports.MissingScheduleThreshold < 0 {
		return errors.New("reports.missing_schedule_threshold cannot be negative")
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level: unknown level %q", s)
}
