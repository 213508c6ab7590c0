package program

import (
	"math"
	"time"
)

type ForecastWeek struct {
	Week        int           `json:"week"`
	IsDeload    bool          `json:"isDeload"`
	Standard    *ScheduleWeek `json:"standard,omitempty"`
	Hypertrophy *ScheduleWeek `json:"hypertrophy,omitempty"`
}

type TimelineWeek struct {
	Week  int        `json:"week"`
	Goals []WeekGoal `json:"goals"`
}

// Forecast lists the schedule of both styles from fromWeek to the last week.
func Forecast(cfg ProgramConfig, fromWeek int) []ForecastWeek {
	total := cfg.TotalWeeks()
	fromWeek = Clamp(fromWeek, 1, total)

	out := make([]ForecastWeek, 0, total-fromWeek+1)
	for w := fromWeek; w <= total; w++ {
		fw := ForecastWeek{Week: w}
		std, _ := scheduleWeek(cfg, StyleStandard, w)
		hyp, _ := scheduleWeek(cfg, StyleHypertrophy, w)
		fw.IsDeload = std.IsDeload
		if !std.IsDeload {
			fw.Standard = &std
			fw.Hypertrophy = &hyp
		}
		out = append(out, fw)
	}
	return out
}

// WeekGoals resolves every programmed exercise for the week, skipping the rest.
func WeekGoals(cfg ProgramConfig, exercises []ExerciseConfig, week int) ([]WeekGoal, error) {
	goals := make([]WeekGoal, 0, len(exercises))
	for _, ex := range exercises {
		if !ex.IsProgrammed() {
			continue
		}
		goal, err := Resolve(cfg, ex, week)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, nil
}

// Timeline drives WeekGoals across fromWeek..totalWeeks.
func Timeline(cfg ProgramConfig, exercises []ExerciseConfig, fromWeek int) ([]TimelineWeek, error) {
	total := cfg.TotalWeeks()
	fromWeek = Clamp(fromWeek, 1, total)

	out := make([]TimelineWeek, 0, total-fromWeek+1)
	for w := fromWeek; w <= total; w++ {
		goals, err := WeekGoals(cfg, exercises, w)
		if err != nil {
			return nil, err
		}
		out = append(out, TimelineWeek{Week: w, Goals: goals})
	}
	return out, nil
}

// FromWeek picks the first week of a view. The remaining view starts at the
// routine's configured start week, the unfiltered one always at week 1.
func FromWeek(programStartWeek int, remaining bool, totalWeeks int) int {
	if !remaining {
		return 1
	}
	if programStartWeek == 0 {
		programStartWeek = 1
	}
	return Clamp(programStartWeek, 1, totalWeeks)
}

// CurrentWeek forwards the program from its start week by the whole weeks
// passed since the start date.
func CurrentWeek(startDate time.Time, startWeek int, now time.Time, totalWeeks int) int {
	if startWeek == 0 {
		startWeek = 1
	}
	if startDate.IsZero() {
		return Clamp(startWeek, 1, totalWeeks)
	}
	days := now.Sub(startDate).Hours() / 24
	week := int(math.Floor(days/7)) + startWeek
	return Clamp(week, 1, totalWeeks)
}

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
