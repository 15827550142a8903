// Package rediscache puts a Redis cache-aside layer in front of a
// calendar.Provider. Holiday lists are cached per location and year; settings
// always pass through so a toggle change takes effect on the next request.
//
// Redis is best-effort: read or write failures are logged and the wrapped
// provider answers instead.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warp/vacation-engine/calendar"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "vacation:holidays:"

// DefaultTTL applies when New is given a zero TTL.
const DefaultTTL = 6 * time.Hour

// Provider implements calendar.Provider with Redis in front of next.
type Provider struct {
	next   calendar.Provider
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps next. A nil logger uses slog.Default.
func New(next calendar.Provider, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{next: next, rdb: rdb, ttl: ttl, logger: logger.With("component", "rediscache")}
}

// Connect builds a client from either a redis:// URL or a host:port address
// and checks it with PING. password and db apply to the host:port form only.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr, Password: password, DB: db}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Key returns the cache key for one location and year.
func Key(location string, year int) string {
	return fmt.Sprintf("%s%s:%d", KeyPrefix, calendar.NormalizeLocation(location), year)
}

// Holidays serves from Redis when cached, otherwise loads from next and
// stores the result.
func (p *Provider) Holidays(ctx context.Context, location string, year int) ([]calendar.Holiday, error) {
	key := Key(location, year)

	raw, err := p.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []calendar.Holiday
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		p.logger.Warn("discarding unreadable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		p.logger.Warn("redis read failed", "key", key, "error", err)
	}

	holidays, err := p.next.Holidays(ctx, location, year)
	if err != nil {
		return nil, err
	}
	if holidays == nil {
		holidays = []calendar.Holiday{}
	}
	if b, err := json.Marshal(holidays); err == nil {
		if err := p.rdb.Set(ctx, key, b, p.ttl).Err(); err != nil {
			p.logger.Warn("redis write failed", "key", key, "error", err)
		}
	}
	return holidays, nil
}

// Settings is not cached.
func (p *Provider) Settings(ctx context.Context) (map[string]string, error) {
	return p.next.Settings(ctx)
}

// Invalidate drops every cached location for the given years, or the whole
// holiday cache when no year is given. Call it after holidays change.
func (p *Provider) Invalidate(ctx context.Context, years ...int) error {
	patterns := []string{KeyPrefix + "*"}
	if len(years) > 0 {
		patterns = patterns[:0]
		for _, y := range years {
			patterns = append(patterns, fmt.Sprintf("%s*:%d", KeyPrefix, y))
		}
	}

	var keys []string
	for _, pattern := range patterns {
		iter := p.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := p.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cached holidays: %w", err)
	}
	p.logger.Info("holiday cache invalidated", "years", years, "keys", len(keys))
	return nil
}
