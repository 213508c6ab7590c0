package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	db, _ := redismock.NewClientMock()

	testCases := []struct {
		name       string
		params     ProviderParams
		wantDriver string
		wantErr    error
	}{
		{
			name:       "empty driver defaults to memory",
			params:     ProviderParams{},
			wantDriver: DriverMemory,
		},
		{
			name:       "memory",
			params:     ProviderParams{Driver: "Memory", DefaultTTL: time.Minute},
			wantDriver: DriverMemory,
		},
		{
			name:       "external",
			params:     ProviderParams{Driver: DriverExternal, ExternalStore: db},
			wantDriver: DriverExternal,
		},
		{
			name:       "external with layering",
			params:     ProviderParams{Driver: DriverExternal, Layering: true, ExternalStore: db},
			wantDriver: DriverLayered,
		},
		{
			name:       "layered",
			params:     ProviderParams{Driver: DriverLayered, ExternalStore: db},
			wantDriver: DriverLayered,
		},
		{
			name:    "external without store",
			params:  ProviderParams{Driver: DriverExternal},
			wantErr: ErrExternalStoreMissing,
		},
		{
			name:    "layered without store",
			params:  ProviderParams{Driver: DriverLayered},
			wantErr: ErrExternalStoreMissing,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewProvider(tc.params)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantDriver, p.Cache().Stats().Driver)
			require.NoError(t, p.Close(context.Background()))
		})
	}

	_, err := NewProvider(ProviderParams{Driver: "memcached"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memcached")
}

type testGoals struct {
	Week  int     `json:"week"`
	TMKg  float64 `json:"tmKg"`
	Names []string
}

func TestGetOrCompute(t *testing.T) {
	p, err := NewProvider(ProviderParams{Driver: DriverMemory})
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Close(context.Background())) }()

	ctx := context.Background()
	computed := 0
	compute := func(ctx context.Context) (testGoals, error) {
		computed++
		return testGoals{Week: 3, TMKg: 102.5, Names: []string{"Squat"}}, nil
	}

	key := WeekGoalsKey("r1", 3)
	v, hit, err := GetOrCompute(ctx, p, key, 0, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, v.Week)

	v, hit, err = GetOrCompute(ctx, p, key, 0, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 102.5, v.TMKg)
	assert.Equal(t, []string{"Squat"}, v.Names)
	assert.Equal(t, 1, computed)

	fs := p.FamilyStats(FamilyWeekGoals)
	assert.Equal(t, uint64(1), fs.Hits)
	assert.Equal(t, uint64(1), fs.Misses)
	assert.InDelta(t, 0.5, fs.HitRate(), 1e-9)
	assert.Equal(t, uint64(0), p.FamilyStats(FamilyForecast).Hits)

	assert.Equal(t, 1, p.InvalidateRoutine(ctx, "r1"))
	_, hit, err = GetOrCompute(ctx, p, key, 0, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, computed)
}

func TestGetOrCompute_ForecastSizedValueAtMinimumSize(t *testing.T) {
	p := NewProviderWithCache(NewMemory(1024*1024, time.Minute))
	defer func() { require.NoError(t, p.Close(context.Background())) }()

	weeks := make([]testGoals, 21)
	for i := range weeks {
		weeks[i] = testGoals{
			Week:  i + 1,
			TMKg:  100,
			Names: []string{"standard 4x5 + amrap @ 0.70", "hypertrophy 3x10 + amrap @ 0.60", "deload 3x5 @ 0.60"},
		}
	}

	ctx := context.Background()
	computed := 0
	compute := func(ctx context.Context) ([]testGoals, error) {
		computed++
		return weeks, nil
	}
	for i := 0; i < 3; i++ {
		v, _, err := GetOrCompute(ctx, p, ForecastKey("r1", 1), 0, compute)
		require.NoError(t, err)
		require.Len(t, v, 21)
	}

	assert.Equal(t, 1, computed)
	fs := p.FamilyStats(FamilyForecast)
	assert.Equal(t, uint64(2), fs.Hits)
	assert.Equal(t, uint64(1), fs.Misses)
	assert.Equal(t, uint64(0), p.Cache().Stats().Errors)
}

func TestGetOrCompute_ErrorIsNotCached(t *testing.T) {
	p := NewProviderWithCache(NewMemory(0, time.Minute))
	defer func() { require.NoError(t, p.Close(context.Background())) }()

	ctx := context.Background()
	boom := errors.New("db down")
	_, _, err := GetOrCompute(ctx, p, ForecastKey("r1", 1), 0, func(ctx context.Context) ([]int, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	_, ok := p.Cache().Get(ctx, ForecastKey("r1", 1))
	assert.False(t, ok)

	v, hit, err := GetOrCompute(ctx, p, ForecastKey("r1", 1), 0, func(ctx context.Context) ([]int, error) {
		return []int{1, 2}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []int{1, 2}, v)
}

func TestGetOrCompute_CorruptEntryIsRecomputed(t *testing.T) {
	p := NewProviderWithCache(NewMemory(0, time.Minute))
	defer func() { require.NoError(t, p.Close(context.Background())) }()

	ctx := context.Background()
	key := WeekGoalsKey("r2", 1)
	p.Cache().Set(ctx, key, []byte("{not json"), 0)

	v, hit, err := GetOrCompute(ctx, p, key, 0, func(ctx context.Context) (testGoals, error) {
		return testGoals{Week: 1}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, v.Week)

	_, hit, err = GetOrCompute(ctx, p, key, 0, func(ctx context.Context) (testGoals, error) {
		return testGoals{}, errors.New("should not run")
	})
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestProvider_Stats(t *testing.T) {
	p := NewProviderWithCache(NewMemory(0, time.Minute))
	defer func() { require.NoError(t, p.Close(context.Background())) }()

	ctx := context.Background()
	compute := func(ctx context.Context) (int, error) { return 42, nil }
	for i := 0; i < 3; i++ {
		_, _, err := GetOrCompute(ctx, p, ForecastKey("r1", 1), 0, compute)
		require.NoError(t, err)
	}

	stats := p.Stats()
	assert.Equal(t, DriverMemory, stats.Cache.Driver)
	assert.Equal(t, uint64(2), stats.Forecast.Hits)
	assert.Equal(t, uint64(1), stats.Forecast.Misses)
	assert.Equal(t, uint64(0), stats.WeekGoals.Hits+stats.WeekGoals.Misses)
	assert.Equal(t, uint64(1), stats.Loader.Bypasses)
	assert.Equal(t, int64(1), stats.Cache.Entries)
}
