package rediscache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/store/memory"
	"github.com/warp/vacation-engine/store/rediscache"
)

// countingProvider counts calls that reach the backing store.
type countingProvider struct {
	calendar.Provider
	holidayCalls int
}

func (c *countingProvider) Holidays(ctx context.Context, location string, year int) ([]calendar.Holiday, error) {
	c.holidayCalls++
	return c.Provider.Holidays(ctx, location, year)
}

func setup(t *testing.T) (*miniredis.Miniredis, *memory.Memory, *countingProvider, *rediscache.Provider) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := memory.New()
	newYear, err := calendar.ParseDate("2026-01-01")
	require.NoError(t, err)
	st.AddHoliday(calendar.Holiday{ID: "h1", Date: newYear, Name: "New Year"})

	backing := &countingProvider{Provider: st}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mr, st, backing, rediscache.New(backing, rdb, time.Hour, logger)
}

func TestHolidays_CacheAside(t *testing.T) {
	ctx := context.Background()
	mr, _, backing, cache := setup(t)

	first, err := cache.Holidays(ctx, "cusco", 2026)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists(rediscache.Key("CUSCO", 2026)))

	second, err := cache.Holidays(ctx, "CUSCO", 2026)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backing.holidayCalls, "second read served from redis")
	assert.Equal(t, time.Hour, mr.TTL(rediscache.Key("CUSCO", 2026)))
}

func TestHolidays_EmptyYearIsCached(t *testing.T) {
	ctx := context.Background()
	_, _, backing, cache := setup(t)

	for i := 0; i < 2; i++ {
		hs, err := cache.Holidays(ctx, "CUSCO", 2030)
		require.NoError(t, err)
		assert.Empty(t, hs)
	}
	assert.Equal(t, 1, backing.holidayCalls)
}

func TestInvalidate_DropsEveryLocationOfYear(t *testing.T) {
	ctx := context.Background()
	mr, st, backing, cache := setup(t)

	_, err := cache.Holidays(ctx, "CUSCO", 2026)
	require.NoError(t, err)
	_, err = cache.Holidays(ctx, "SICUANI", 2026)
	require.NoError(t, err)
	_, err = cache.Holidays(ctx, "CUSCO", 2027)
	require.NoError(t, err)

	inti, err := calendar.ParseDate("2026-06-24")
	require.NoError(t, err)
	st.AddHoliday(calendar.Holiday{ID: "h2", Date: inti, Name: "Inti Raymi", Location: "CUSCO"})
	require.NoError(t, cache.Invalidate(ctx, 2026))

	assert.False(t, mr.Exists(rediscache.Key("CUSCO", 2026)))
	assert.False(t, mr.Exists(rediscache.Key("SICUANI", 2026)))
	assert.True(t, mr.Exists(rediscache.Key("CUSCO", 2027)))

	hs, err := cache.Holidays(ctx, "CUSCO", 2026)
	require.NoError(t, err)
	assert.Len(t, hs, 2, "reloaded after invalidation")
	assert.Equal(t, 4, backing.holidayCalls)
}

func TestHolidays_FallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	mr, _, backing, cache := setup(t)
	mr.Close()

	hs, err := cache.Holidays(ctx, "CUSCO", 2026)
	require.NoError(t, err)
	assert.Len(t, hs, 1)
	assert.Equal(t, 1, backing.holidayCalls)
}

func TestSettings_PassThrough(t *testing.T) {
	ctx := context.Background()
	_, st, _, cache := setup(t)
	st.SetSetting(calendar.SettingFridayExtends, "false")

	cfg, err := calendar.LoadConfig(ctx, cache)
	require.NoError(t, err)
	assert.False(t, cfg.FridayExtends)
}

func TestInvalidate_AllYears(t *testing.T) {
	ctx := context.Background()
	mr, _, _, cache := setup(t)

	_, err := cache.Holidays(ctx, "CUSCO", 2026)
	require.NoError(t, err)
	_, err = cache.Holidays(ctx, "CUSCO", 2027)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx))
	assert.Empty(t, mr.Keys())
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := rediscache.Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = rediscache.Connect(context.Background(), "redis://%zz", "", 0)
	assert.Error(t, err)
}
