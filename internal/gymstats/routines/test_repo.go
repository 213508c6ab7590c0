package routines

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2beens/gymprogram/internal/gymstats/program"
)

// TestRepo is an in-memory routines repo, used in tests of the packages
// depending on routines.
type TestRepo struct {
	mu       sync.Mutex
	routines map[string]Routine
}

func NewTestRepo(routines ...Routine) *TestRepo {
	r := &TestRepo{
		routines: make(map[string]Routine),
	}
	for _, routine := range routines {
		_, _ = r.Create(context.Background(), routine)
	}
	return r
}

func (r *TestRepo) Create(_ context.Context, routine Routine) (*Routine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if routine.ID == "" {
		routine.ID = uuid.NewString()
	}
	if routine.CreatedAt.IsZero() {
		routine.CreatedAt = time.Now().UTC()
	}
	if routine.ProgramStartWeek == 0 {
		routine.ProgramStartWeek = 1
	}
	for i := range routine.Exercises {
		if routine.Exercises[i].ID == "" {
			routine.Exercises[i].ID = uuid.NewString()
		}
	}
	r.routines[routine.ID] = cloneRoutine(routine)
	return &routine, nil
}

func (r *TestRepo) Get(_ context.Context, id string) (*Routine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	routine, ok := r.routines[id]
	if !ok {
		return nil, ErrRoutineNotFound
	}
	clone := cloneRoutine(routine)
	return &clone, nil
}

func (r *TestRepo) EnableProgram(_ context.Context, id string, update ProgramUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	routine, ok := r.routines[id]
	if !ok {
		return ErrRoutineNotFound
	}
	routine.ProgramWithDeloads = update.WithDeloads
	routine.ProgramStartWeek = update.StartWeek
	startDate := update.StartDate
	routine.ProgramStartDate = &startDate
	if routine.ProgramSnapshot == nil {
		routine.ProgramSnapshot = update.Snapshot
	}

	for _, ex := range update.Exercises {
		found := false
		for i := range routine.Exercises {
			re := &routine.Exercises[i]
			if re.ExerciseID != ex.ExerciseID {
				continue
			}
			found = true
			tm := ex.TMKg
			re.ProgressionScheme = program.SchemeProgrammedRtF
			re.ProgramStyle = ex.Style
			re.ProgramTMKg = &tm
			re.ProgramRoundingKg = nullablePositive(ex.RoundingKg)
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrExerciseNotFound, ex.ExerciseID)
		}
	}

	r.routines[id] = routine
	return nil
}

func (r *TestRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routines[id]; !ok {
		return ErrRoutineNotFound
	}
	delete(r.routines, id)
	return nil
}

// SetExerciseTM mirrors the TM write done by the tm ledger transaction.
func (r *TestRepo) SetExerciseTM(routineID, exerciseID string, tmKg float64, week int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	routine, ok := r.routines[routineID]
	if !ok {
		return ErrRoutineNotFound
	}
	for i := range routine.Exercises {
		if routine.Exercises[i].ExerciseID == exerciseID {
			tm, w := tmKg, week
			routine.Exercises[i].ProgramTMKg = &tm
			routine.Exercises[i].ProgramLastAdjustedWeek = &w
			r.routines[routineID] = routine
			return nil
		}
	}
	return ErrExerciseNotFound
}

func cloneRoutine(r Routine) Routine {
	exercises := make([]RoutineExercise, len(r.Exercises))
	for i, ex := range r.Exercises {
		if ex.ProgramTMKg != nil {
			v := *ex.ProgramTMKg
			ex.ProgramTMKg = &v
		}
		if ex.ProgramRoundingKg != nil {
			v := *ex.ProgramRoundingKg
			ex.ProgramRoundingKg = &v
		}
		if ex.ProgramLastAdjustedWeek != nil {
			v := *ex.ProgramLastAdjustedWeek
			ex.ProgramLastAdjustedWeek = &v
		}
		exercises[i] = ex
	}
	r.Exercises = exercises
	return r
}
