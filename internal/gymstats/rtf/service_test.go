package rtf_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymprogram/internal/apperr"
	"github.com/2beens/gymprogram/internal/cache"
	"github.com/2beens/gymprogram/internal/gymstats/program"
	"github.com/2beens/gymprogram/internal/gymstats/routines"
	"github.com/2beens/gymprogram/internal/gymstats/rtf"
)

const testUser = "user-1"

var testNow = time.Date(2025, 6, 16, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

func newTestRoutine(startWeek int, startDate *time.Time, snapshot *program.Snapshot) routines.Routine {
	return routines.Routine{
		ID:                 uuid.NewString(),
		UserID:             testUser,
		Name:               "upper lower",
		ProgramWithDeloads: true,
		ProgramStartWeek:   startWeek,
		ProgramStartDate:   startDate,
		ProgramSnapshot:    snapshot,
		Exercises: []routines.RoutineExercise{
			{
				ID:                uuid.NewString(),
				ExerciseID:        "squat",
				ProgressionScheme: program.SchemeProgrammedRtF,
				ProgramStyle:      program.StyleStandard,
				ProgramTMKg:       ptr(100.0),
			},
			{
				ID:                uuid.NewString(),
				ExerciseID:        "row",
				ProgressionScheme: program.SchemeProgrammedRtF,
				ProgramStyle:      program.StyleHypertrophy,
				ProgramTMKg:       ptr(70.0),
			},
			{
				ID:                uuid.NewString(),
				ExerciseID:        "curl",
				ProgressionScheme: program.SchemeNone,
			},
		},
	}
}

func newTestService(t *testing.T, rs ...routines.Routine) (*rtf.Service, *cache.Provider) {
	t.Helper()
	provider := cache.NewProviderWithCache(cache.NewMemory(4*1024*1024, time.Minute))
	t.Cleanup(func() {
		require.NoError(t, provider.Close(context.Background()))
	})
	routinesService := routines.NewService(routines.NewTestRepo(rs...), provider)
	svc := rtf.NewService(routinesService, provider, time.Minute).WithClock(func() time.Time { return testNow })
	return svc, provider
}

func TestService_WeekGoals_MissThenHit(t *testing.T) {
	routine := newTestRoutine(1, nil, nil)
	svc, provider := newTestService(t, routine)
	ctx := context.Background()

	first, err := svc.WeekGoals(ctx, testUser, routine.ID, ptr(3), false)
	require.NoError(t, err)
	assert.Equal(t, rtf.CacheMiss, first.Cache)
	assert.Equal(t, 3, first.Week)
	assert.Equal(t, 0, first.Version)
	require.Len(t, first.Goals, 2)

	squat := first.Goals[0]
	assert.Equal(t, "squat", squat.ExerciseID)
	assert.Equal(t, 80.0, *squat.WeightKg)
	assert.Equal(t, 5, squat.AmrapSetNumber)

	second, err := svc.WeekGoals(ctx, testUser, routine.ID, ptr(3), false)
	require.NoError(t, err)
	assert.Equal(t, rtf.CacheHit, second.Cache)
	assert.Equal(t, first.Goals, second.Goals)

	stats := provider.FamilyStats(cache.FamilyWeekGoals)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	provider.InvalidateRoutine(ctx, routine.ID)
	third, err := svc.WeekGoals(ctx, testUser, routine.ID, ptr(3), false)
	require.NoError(t, err)
	assert.Equal(t, rtf.CacheMiss, third.Cache)
}

// tmWriteAfterRead commits a TM change right after the first routine read
// returns, the way a concurrent tm-events request can.
type tmWriteAfterRead struct {
	inner    *routines.Service
	repo     *routines.TestRepo
	provider *cache.Provider
	written  bool
}

func (r *tmWriteAfterRead) GetOwned(ctx context.Context, userID, routineID string) (*routines.Routine, error) {
	routine, err := r.inner.GetOwned(ctx, userID, routineID)
	if err != nil || r.written {
		return routine, err
	}
	r.written = true
	if err := r.repo.SetExerciseTM(routineID, "squat", 120, 3); err != nil {
		return nil, err
	}
	r.provider.InvalidateRoutine(ctx, routineID)
	return routine, nil
}

func TestService_WeekGoals_TMWriteBetweenReadAndCompute(t *testing.T) {
	routine := newTestRoutine(1, nil, nil)
	provider := cache.NewProviderWithCache(cache.NewMemory(4*1024*1024, time.Minute))
	t.Cleanup(func() {
		require.NoError(t, provider.Close(context.Background()))
	})
	repo := routines.NewTestRepo(routine)
	getter := &tmWriteAfterRead{
		inner:    routines.NewService(repo, provider),
		repo:     repo,
		provider: provider,
	}
	svc := rtf.NewService(getter, provider, time.Minute).WithClock(func() time.Time { return testNow })
	ctx := context.Background()

	first, err := svc.WeekGoals(ctx, testUser, routine.ID, ptr(3), false)
	require.NoError(t, err)
	assert.Equal(t, rtf.CacheMiss, first.Cache)
	assert.Equal(t, 120.0, first.Goals[0].TrainingMaxKg)
	assert.Equal(t, 95.0, *first.Goals[0].WeightKg)

	second, err := svc.WeekGoals(ctx, testUser, routine.ID, ptr(3), false)
	require.NoError(t, err)
	assert.Equal(t, rtf.CacheHit, second.Cache)
	assert.Equal(t, 120.0, second.Goals[0].TrainingMaxKg)
	assert.Equal(t, 95.0, *second.Goals[0].WeightKg)
}

func TestService_WeekGoals_DefaultsToCurrentWeek(t *testing.T) {
	startDate := testNow.Add(-15 * 24 * time.Hour)
	routine := newTestRoutine(2, &startDate, program.BuildSnapshot(true, startDate))
	svc, _ := newTestService(t, routine)

	goals, err := svc.WeekGoals(context.Background(), testUser, routine.ID, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 4, goals.Week)
	assert.Equal(t, program.SnapshotVersion, goals.Version)
}

func TestService_WeekGoals_RemainingBeforeStartDate(t *testing.T) {
	startDate := testNow.Add(15 * 24 * time.Hour)
	routine := newTestRoutine(5, &startDate, nil)
	svc, _ := newTestService(t, routine)
	ctx := context.Background()

	goals, err := svc.WeekGoals(ctx, testUser, routine.ID, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, goals.Week)

	goals, err = svc.WeekGoals(ctx, testUser, routine.ID, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 5, goals.Week)

	// an explicit week wins over the remaining view
	goals, err = svc.WeekGoals(ctx, testUser, routine.ID, ptr(3), true)
	require.NoError(t, err)
	assert.Equal(t, 3, goals.Week)
}

func TestService_WeekGoals_DeloadWeek(t *testing.T) {
	routine := newTestRoutine(7, nil, nil)
	svc, _ := newTestService(t, routine)

	goals, err := svc.WeekGoals(context.Background(), testUser, routine.ID, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 7, goals.Week)
	for _, g := range goals.Goals {
		assert.True(t, g.IsDeload)
		assert.Nil(t, g.WeightKg)
		assert.Nil(t, g.AmrapTarget)
	}
}

func TestService_WeekGoals_Errors(t *testing.T) {
	routine := newTestRoutine(1, nil, nil)
	svc, _ := newTestService(t, routine)
	ctx := context.Background()

	_, err := svc.WeekGoals(ctx, testUser, routine.ID, ptr(0), false)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = svc.WeekGoals(ctx, testUser, routine.ID, ptr(22), false)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	assert.ErrorIs(t, err, program.ErrWeekOutOfRange)

	_, err = svc.WeekGoals(ctx, "user-2", routine.ID, ptr(1), false)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.WeekGoals(ctx, testUser, uuid.NewString(), ptr(1), false)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestService_Timeline(t *testing.T) {
	routine := newTestRoutine(19, nil, nil)
	svc, _ := newTestService(t, routine)
	ctx := context.Background()

	timeline, err := svc.Timeline(ctx, testUser, routine.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 21, timeline.Weeks)
	assert.Equal(t, 19, timeline.FromWeek)
	require.Len(t, timeline.Timeline, 3)
	assert.Equal(t, rtf.CacheStats{Hits: 0, Misses: 3}, timeline.CacheStats)
	assert.True(t, timeline.Timeline[2].Goals[0].IsDeload)

	timeline, err = svc.Timeline(ctx, testUser, routine.ID, true)
	require.NoError(t, err)
	assert.Equal(t, rtf.CacheStats{Hits: 3, Misses: 0}, timeline.CacheStats)

	full, err := svc.Timeline(ctx, testUser, routine.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, full.FromWeek)
	assert.Len(t, full.Timeline, 21)
	assert.Equal(t, rtf.CacheStats{Hits: 3, Misses: 18}, full.CacheStats)
}

func TestService_Forecast(t *testing.T) {
	routine := newTestRoutine(5, nil, nil)
	routine.ProgramWithDeloads = false
	svc, provider := newTestService(t, routine)
	ctx := context.Background()

	forecast, err := svc.Forecast(ctx, testUser, routine.ID, false)
	require.NoError(t, err)
	assert.Equal(t, routine.ID, forecast.RoutineID)
	assert.Equal(t, 18, forecast.Weeks)
	assert.False(t, forecast.WithDeloads)
	assert.Equal(t, 1, forecast.FromWeek)
	require.Len(t, forecast.Forecast, 18)
	for _, fw := range forecast.Forecast {
		assert.False(t, fw.IsDeload)
		require.NotNil(t, fw.Standard)
		require.NotNil(t, fw.Hypertrophy)
	}

	remaining, err := svc.Forecast(ctx, testUser, routine.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining.FromWeek)
	require.Len(t, remaining.Forecast, 14)
	assert.Equal(t, 5, remaining.Forecast[0].Week)

	stats := provider.FamilyStats(cache.FamilyForecast)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}
