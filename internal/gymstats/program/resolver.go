package program

import (
	"errors"
	"fmt"
	"math"

	"github.com/2beens/gymprogram/internal/apperr"
)

var (
	ErrNotProgrammed  = errors.New("exercise not enrolled in PROGRAMMED_RTF")
	ErrWeekOutOfRange = errors.New("week out of range")
	ErrUnknownStyle   = errors.New("unknown program style")
)

// scheduleWeek looks the week up in the snapshot when it applies to the
// routine, otherwise in the live tables.
func scheduleWeek(cfg ProgramConfig, style Style, week int) (ScheduleWeek, bool) {
	if cfg.Snapshot.AppliesTo(cfg.WithDeloads) {
		return cfg.Snapshot.week(style, week)
	}
	table := LiveTable(style, cfg.WithDeloads)
	if week < 1 || week > len(table) {
		return ScheduleWeek{}, false
	}
	return table[week-1], true
}

// IsDeload reports deload membership for the routine's effective schedule.
func (c ProgramConfig) IsDeload(week int) bool {
	sw, ok := scheduleWeek(c, StyleStandard, week)
	return ok && sw.IsDeload
}

// Resolve computes the goal of one exercise for a logical program week.
func Resolve(cfg ProgramConfig, ex ExerciseConfig, week int) (WeekGoal, error) {
	if !ex.IsProgrammed() {
		return WeekGoal{}, apperr.Wrap(apperr.KindBadRequest, ErrNotProgrammed, fmt.Sprintf("exercise %s not enrolled in PROGRAMMED_RTF", ex.ExerciseID))
	}
	style := ex.Style
	if style == "" {
		style = StyleStandard
	}
	if !style.IsValid() {
		return WeekGoal{}, apperr.Wrap(apperr.KindBadRequest, ErrUnknownStyle, string(style))
	}

	total := cfg.TotalWeeks()
	if week < 1 || week > total {
		return WeekGoal{}, apperr.Wrap(apperr.KindBadRequest, ErrWeekOutOfRange, "invalid week")
	}

	sw, ok := scheduleWeek(cfg, style, week)
	if !ok {
		return WeekGoal{}, apperr.Wrap(apperr.KindBadRequest, ErrWeekOutOfRange, "invalid week")
	}

	goal := WeekGoal{
		RoutineExerciseID: ex.RoutineExerciseID,
		ExerciseID:        ex.ExerciseID,
		ExerciseName:      ex.ExerciseName,
		Week:              week,
		Variant:           style,
		TrainingMaxKg:     ex.TMKg,
	}
	if sw.IsDeload {
		goal.IsDeload = true
		return goal, nil
	}

	intensity := sw.Intensity
	fixedReps := sw.FixedReps
	amrapTarget := sw.AmrapTarget
	weight := WorkingWeight(ex.TMKg, intensity, ex.RoundingKg)

	goal.Intensity = &intensity
	goal.FixedReps = &fixedReps
	goal.AmrapTarget = &amrapTarget
	goal.SetCount = style.FixedSets() + 1
	goal.AmrapSetNumber = style.FixedSets() + 1
	goal.WeightKg = &weight
	return goal, nil
}

// WorkingWeight rounds TM*intensity to the nearest rounding increment.
func WorkingWeight(tmKg, intensity, roundingKg float64) float64 {
	if roundingKg <= 0 {
		roundingKg = DefaultRoundingKg
	}
	w := math.Round(tmKg*intensity/roundingKg) * roundingKg
	return math.Round(w*1000) / 1000
}
