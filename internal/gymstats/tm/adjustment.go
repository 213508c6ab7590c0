package tm

import (
	"math"
	"slices"
	"time"

	"github.com/2beens/gymprogram/internal/gymstats/program"
)

const (
	SourceManual = "manual"
	SourceAuto   = "auto"

	ReasonAuto = "auto"

	// mathTolerance absorbs float noise in pre+delta == post.
	mathTolerance = 1e-3

	DefaultMaxDeltaKg = 15.0
)

// Adjustment is an append-only ledger row. Every row moved the exercise TM
// from PreTMKg to PostTMKg.
type Adjustment struct {
	ID         string        `json:"id"`
	RoutineID  string        `json:"routineId"`
	ExerciseID string        `json:"exerciseId"`
	WeekNumber int           `json:"weekNumber"`
	DeltaKg    float64       `json:"deltaKg"`
	PreTMKg    float64       `json:"preTmKg"`
	PostTMKg   float64       `json:"postTmKg"`
	Reason     string        `json:"reason,omitempty"`
	Style      program.Style `json:"style"`
	Source     string        `json:"source"`
	CreatedAt  time.Time     `json:"createdAt"`
}

type CreateParams struct {
	ExerciseID string  `json:"exerciseId"`
	WeekNumber int     `json:"weekNumber"`
	DeltaKg    float64 `json:"deltaKg"`
	PreTMKg    float64 `json:"preTmKg"`
	PostTMKg   float64 `json:"postTmKg"`
	Reason     string  `json:"reason,omitempty"`
}

// ExerciseSummary aggregates the ledger of one exercise.
type ExerciseSummary struct {
	ExerciseID     string     `json:"exerciseId"`
	Count          int        `json:"count"`
	NetDeltaKg     float64    `json:"netDelta"`
	AvgDeltaKg     float64    `json:"avgDelta"`
	LastAdjustedAt *time.Time `json:"lastAdjustedAt,omitempty"`
}

// AmrapResult is the rep count of the AMRAP set of one exercise.
type AmrapResult struct {
	ExerciseID string `json:"exerciseId"`
	Reps       int    `json:"reps"`
}

// Summarize folds adjustments into per exercise aggregates, ordered by
// exercise id.
func Summarize(adjustments []Adjustment) []ExerciseSummary {
	byExercise := make(map[string]*ExerciseSummary)
	order := make([]string, 0)
	for _, a := range adjustments {
		s, ok := byExercise[a.ExerciseID]
		if !ok {
			s = &ExerciseSummary{ExerciseID: a.ExerciseID}
			byExercise[a.ExerciseID] = s
			order = append(order, a.ExerciseID)
		}
		s.Count++
		s.NetDeltaKg += a.DeltaKg
		if s.LastAdjustedAt == nil || a.CreatedAt.After(*s.LastAdjustedAt) {
			createdAt := a.CreatedAt
			s.LastAdjustedAt = &createdAt
		}
	}

	slices.Sort(order)
	out := make([]ExerciseSummary, 0, len(order))
	for _, id := range order {
		s := byExercise[id]
		s.NetDeltaKg = round3(s.NetDeltaKg)
		s.AvgDeltaKg = round3(s.NetDeltaKg / float64(s.Count))
		out = append(out, *s)
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
