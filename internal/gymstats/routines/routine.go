package routines

import (
	"errors"
	"time"

	"github.com/2beens/gymprogram/internal/gymstats/program"
)

var (
	ErrRoutineNotFound  = errors.New("routine not found")
	ErrNotOwner         = errors.New("routine belongs to another user")
	ErrExerciseNotFound = errors.New("exercise not in routine")
)

type Routine struct {
	ID                 string            `json:"id"`
	UserID             string            `json:"userId"`
	Name               string            `json:"name"`
	ProgramWithDeloads bool              `json:"programWithDeloads"`
	ProgramStartWeek   int               `json:"programStartWeek"`
	ProgramStartDate   *time.Time        `json:"programStartDate,omitempty"`
	ProgramSnapshot    *program.Snapshot `json:"programSnapshot,omitempty"`
	Exercises          []RoutineExercise `json:"exercises"`
	CreatedAt          time.Time         `json:"createdAt"`
}

type RoutineExercise struct {
	ID                      string        `json:"id"`
	ExerciseID              string        `json:"exerciseId"`
	ExerciseName            string        `json:"exerciseName"`
	Position                int           `json:"position"`
	ProgressionScheme       string        `json:"progressionScheme"`
	ProgramStyle            program.Style `json:"programStyle,omitempty"`
	ProgramTMKg             *float64      `json:"programTMKg,omitempty"`
	ProgramRoundingKg       *float64      `json:"programRoundingKg,omitempty"`
	ProgramLastAdjustedWeek *int          `json:"programLastAdjustedWeek,omitempty"`
}

func (r *Routine) ProgramConfig() program.ProgramConfig {
	return program.ProgramConfig{
		WithDeloads: r.ProgramWithDeloads,
		StartWeek:   r.ProgramStartWeek,
		Snapshot:    r.ProgramSnapshot,
	}
}

// CurrentWeek is the program week the routine is in at now.
func (r *Routine) CurrentWeek(now time.Time) int {
	cfg := r.ProgramConfig()
	var start time.Time
	if r.ProgramStartDate != nil {
		start = *r.ProgramStartDate
	}
	return program.CurrentWeek(start, r.ProgramStartWeek, now, cfg.TotalWeeks())
}

func (r *Routine) Exercise(exerciseID string) (*RoutineExercise, bool) {
	for i := range r.Exercises {
		if r.Exercises[i].ExerciseID == exerciseID {
			return &r.Exercises[i], true
		}
	}
	return nil, false
}

// ExerciseConfigs returns the program view of every exercise, in routine order.
func (r *Routine) ExerciseConfigs() []program.ExerciseConfig {
	out := make([]program.ExerciseConfig, 0, len(r.Exercises))
	for _, e := range r.Exercises {
		out = append(out, e.Config())
	}
	return out
}

func (e RoutineExercise) Config() program.ExerciseConfig {
	cfg := program.ExerciseConfig{
		RoutineExerciseID: e.ID,
		ExerciseID:        e.ExerciseID,
		ExerciseName:      e.ExerciseName,
		ProgressionScheme: e.ProgressionScheme,
		Style:             e.ProgramStyle,
	}
	if e.ProgramTMKg != nil {
		cfg.TMKg = *e.ProgramTMKg
	}
	if e.ProgramRoundingKg != nil {
		cfg.RoundingKg = *e.ProgramRoundingKg
	}
	return cfg
}

func (e RoutineExercise) IsProgrammed() bool {
	return e.ProgressionScheme == program.SchemeProgrammedRtF
}

// RoundingKg is the rounding increment with the program default applied.
func (e RoutineExercise) RoundingKg() float64 {
	if e.ProgramRoundingKg == nil || *e.ProgramRoundingKg <= 0 {
		return program.DefaultRoundingKg
	}
	return *e.ProgramRoundingKg
}

type EnableProgramParams struct {
	WithDeloads bool              `json:"withDeloads"`
	StartWeek   int               `json:"startWeek"`
	StartDate   *time.Time        `json:"startDate,omitempty"`
	Exercises   []ExerciseProgram `json:"exercises"`
}

type ExerciseProgram struct {
	ExerciseID string        `json:"exerciseId"`
	Style      program.Style `json:"style"`
	TMKg       float64       `json:"tmKg"`
	RoundingKg float64       `json:"roundingKg,omitempty"`
}

// ProgramUpdate is what the repo persists when a routine joins the program.
type ProgramUpdate struct {
	WithDeloads bool
	StartWeek   int
	StartDate   time.Time
	Snapshot    *program.Snapshot
	Exercises   []ExerciseProgram
}
