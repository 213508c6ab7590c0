package sessions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/2beens/gymprogram/internal/apperr"
	"github.com/2beens/gymprogram/internal/cache"
	"github.com/2beens/gymprogram/internal/gymstats/program"
	"github.com/2beens/gymprogram/internal/gymstats/routines"
	"github.com/2beens/gymprogram/internal/gymstats/sessions"
	"github.com/2beens/gymprogram/internal/gymstats/tm"
	"github.com/2beens/gymprogram/internal/telemetry/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testUser = "user-1"

var testNow = time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)

type testEnv struct {
	service   *sessions.Service
	repo      *sessions.TestRepo
	routines  *routines.TestRepo
	ledger    *tm.TestRepo
	metrics   *metrics.Manager
	routineID string
}

func newTestEnv(t *testing.T, startWeek int) *testEnv {
	t.Helper()

	tmKg := 100.0
	routine := routines.Routine{
		ID:                 uuid.NewString(),
		UserID:             testUser,
		Name:               "full body",
		ProgramWithDeloads: true,
		ProgramStartWeek:   startWeek,
		Exercises: []routines.RoutineExercise{
			{
				ExerciseID:        "squat",
				ProgressionScheme: program.SchemeProgrammedRtF,
				ProgramStyle:      program.StyleStandard,
				ProgramTMKg:       &tmKg,
			},
			{
				ExerciseID:        "plank",
				ProgressionScheme: program.SchemeNone,
			},
		},
	}

	routinesRepo := routines.NewTestRepo(routine)
	provider := cache.NewProviderWithCache(cache.NewMemory(1024*1024, time.Minute))
	t.Cleanup(func() {
		require.NoError(t, provider.Close(context.Background()))
	})
	routinesService := routines.NewService(routinesRepo, provider)
	ledger := tm.NewTestRepo(routinesRepo)
	m := metrics.NewTestManager()
	tmService := tm.NewService(tm.ServiceParams{
		Repo:     ledger,
		Routines: routinesService,
		Cache:    provider,
		Metrics:  m,
	})

	repo := sessions.NewTestRepo()
	svc := sessions.NewService(repo, routinesService, tmService, m).
		WithClock(func() time.Time { return testNow })

	return &testEnv{
		service:   svc,
		repo:      repo,
		routines:  routinesRepo,
		ledger:    ledger,
		metrics:   m,
		routineID: routine.ID,
	}
}

func (e *testEnv) squat(t *testing.T) *routines.RoutineExercise {
	t.Helper()
	r, err := e.routines.Get(context.Background(), e.routineID)
	require.NoError(t, err)
	ex, ok := r.Exercise("squat")
	require.True(t, ok)
	return ex
}

func squatSets(amrapReps int) []sessions.SetLog {
	sets := make([]sessions.SetLog, 0, 5)
	for i := 1; i <= 4; i++ {
		sets = append(sets, sessions.SetLog{ExerciseID: "squat", SetNumber: i, Reps: 4, WeightKg: 75})
	}
	return append(sets, sessions.SetLog{ExerciseID: "squat", SetNumber: 5, Reps: amrapReps, WeightKg: 75})
}

func TestService_Start(t *testing.T) {
	env := newTestEnv(t, 7)
	ctx := context.Background()

	session, err := env.service.Start(ctx, testUser, env.routineID)
	require.NoError(t, err)
	assert.Equal(t, sessions.StatusInProgress, session.Status)
	require.NotNil(t, session.ProgramWeek)
	assert.Equal(t, 7, *session.ProgramWeek)
	assert.True(t, session.IsDeloadWeek)

	_, err = env.service.Start(ctx, testUser, env.routineID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	assert.ErrorIs(t, err, sessions.ErrActiveSessionExists)

	active, err := env.service.Active(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, session.ID, active.ID)

	_, err = env.service.Active(ctx, "user-2")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.service.Start(ctx, "user-2", env.routineID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestService_Finish_DeloadWeekKeepsTM(t *testing.T) {
	env := newTestEnv(t, 7)
	ctx := context.Background()

	session, err := env.service.Start(ctx, testUser, env.routineID)
	require.NoError(t, err)

	result, err := env.service.Finish(ctx, testUser, session.ID, sessions.FinishParams{Sets: squatSets(20)})
	require.NoError(t, err)
	assert.Equal(t, sessions.StatusCompleted, result.Session.Status)
	assert.Empty(t, result.Adjustments)

	squat := env.squat(t)
	assert.Equal(t, 100.0, *squat.ProgramTMKg)
	assert.Nil(t, squat.ProgramLastAdjustedWeek)
}

func TestService_Finish_AmrapTargetMet(t *testing.T) {
	env := newTestEnv(t, 8)
	ctx := context.Background()

	session, err := env.service.Start(ctx, testUser, env.routineID)
	require.NoError(t, err)
	require.False(t, session.IsDeloadWeek)

	sets := append(squatSets(14), sessions.SetLog{ExerciseID: "plank", SetNumber: 1, Reps: 1})
	result, err := env.service.Finish(ctx, testUser, session.ID, sessions.FinishParams{Sets: sets})
	require.NoError(t, err)
	require.Len(t, result.Adjustments, 1)
	assert.Equal(t, tm.ReasonAuto, result.Adjustments[0].Reason)

	squat := env.squat(t)
	assert.Equal(t, 102.5, *squat.ProgramTMKg)
	require.NotNil(t, squat.ProgramLastAdjustedWeek)
	assert.Equal(t, 8, *squat.ProgramLastAdjustedWeek)

	stored, err := env.repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Sets, 6)
	for _, set := range stored.Sets {
		assert.NotEmpty(t, set.RoutineExerciseID)
	}

	_, err = env.service.Finish(ctx, testUser, session.ID, sessions.FinishParams{Sets: squatSets(14)})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestService_Finish_AutoAdjustFailsOpen(t *testing.T) {
	env := newTestEnv(t, 8)
	env.ledger.CreateErr = errors.New("ledger unavailable")
	ctx := context.Background()

	session, err := env.service.Start(ctx, testUser, env.routineID)
	require.NoError(t, err)

	result, err := env.service.Finish(ctx, testUser, session.ID, sessions.FinishParams{Sets: squatSets(12)})
	require.NoError(t, err)
	assert.Equal(t, sessions.StatusCompleted, result.Session.Status)
	assert.Empty(t, result.Adjustments)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterAutoAdjustFailures))
	assert.Equal(t, 100.0, *env.squat(t).ProgramTMKg)
}

func TestService_Finish_Rejections(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	session, err := env.service.Start(ctx, testUser, env.routineID)
	require.NoError(t, err)

	_, err = env.service.Finish(ctx, "user-2", session.ID, sessions.FinishParams{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.service.Finish(ctx, testUser, uuid.NewString(), sessions.FinishParams{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.service.Finish(ctx, testUser, session.ID, sessions.FinishParams{
		Sets: []sessions.SetLog{{ExerciseID: "deadlift", SetNumber: 1, Reps: 5}},
	})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	active, err := env.service.Active(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, session.ID, active.ID)
}

func TestAmrapResults(t *testing.T) {
	tmKg := 60.0
	routine := &routines.Routine{
		Exercises: []routines.RoutineExercise{
			{ExerciseID: "bench", ProgressionScheme: program.SchemeProgrammedRtF, ProgramStyle: program.StyleHypertrophy, ProgramTMKg: &tmKg},
			{ExerciseID: "squat", ProgressionScheme: program.SchemeProgrammedRtF, ProgramTMKg: &tmKg},
			{ExerciseID: "curl", ProgressionScheme: program.SchemeDoubleProg},
		},
	}

	results := sessions.AmrapResults(routine, []sessions.SetLog{
		{ExerciseID: "bench", SetNumber: 3, Reps: 8},
		{ExerciseID: "bench", SetNumber: 4, Reps: 13},
		{ExerciseID: "squat", SetNumber: 2, Reps: 30, IsAmrap: true},
		{ExerciseID: "squat", SetNumber: 5, Reps: 9},
		{ExerciseID: "curl", SetNumber: 4, Reps: 20, IsAmrap: true},
		{ExerciseID: "unknown", SetNumber: 5, Reps: 20},
	})

	assert.Equal(t, []tm.AmrapResult{
		{ExerciseID: "bench", Reps: 13},
		{ExerciseID: "squat", Reps: 30},
	}, results)
}
