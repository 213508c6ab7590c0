package tm

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// exerciseTMWriter applies the TM side of a ledger write, routines.TestRepo
// implements it.
type exerciseTMWriter interface {
	SetExerciseTM(routineID, exerciseID string, tmKg float64, week int) error
}

// TestRepo keeps the ledger in memory and forwards TM updates to the
// routines test repo.
type TestRepo struct {
	mu          sync.Mutex
	adjustments []Adjustment
	tmWriter    exerciseTMWriter
	// CreateErr, when set, fails every Create.
	CreateErr error
}

func NewTestRepo(tmWriter exerciseTMWriter) *TestRepo {
	return &TestRepo{
		tmWriter: tmWriter,
	}
}

func (r *TestRepo) Create(_ context.Context, adj Adjustment) (*Adjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}
	if r.tmWriter != nil {
		if err := r.tmWriter.SetExerciseTM(adj.RoutineID, adj.ExerciseID, adj.PostTMKg, adj.WeekNumber); err != nil {
			return nil, err
		}
	}
	r.adjustments = append(r.adjustments, adj)
	return &adj, nil
}

func (r *TestRepo) List(_ context.Context, routineID, exerciseID string) ([]Adjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Adjustment, 0)
	for _, a := range r.adjustments {
		if a.RoutineID != routineID {
			continue
		}
		if exerciseID != "" && a.ExerciseID != exerciseID {
			continue
		}
		out = append(out, a)
	}
	// stable sort keeps insertion order reversed for equal timestamps
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b Adjustment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
