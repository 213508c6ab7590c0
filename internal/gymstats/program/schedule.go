package program

// Style is the RtF training variant an exercise follows.
type Style string

const (
	StyleStandard    Style = "STANDARD"
	StyleHypertrophy Style = "HYPERTROPHY"
)

func (s Style) String() string {
	return string(s)
}

func (s Style) IsValid() bool {
	return s == StyleStandard || s == StyleHypertrophy
}

// FixedSets is the number of straight sets done before the AMRAP set.
func (s Style) FixedSets() int {
	if s == StyleHypertrophy {
		return 3
	}
	return 4
}

const (
	WeeksWithDeloads = 21
	WeeksNoDeloads   = 18
)

// ScheduleWeek is a single row of a curriculum table. Deload rows carry only
// the week number and IsDeload.
type ScheduleWeek struct {
	Week        int     `json:"week"`
	IsDeload    bool    `json:"isDeload"`
	Intensity   float64 `json:"intensity,omitempty"`
	FixedReps   int     `json:"fixedReps,omitempty"`
	AmrapTarget int     `json:"amrapTarget,omitempty"`
}

var deloadWeeks = map[int]bool{7: true, 14: true, 21: true}

func deload(week int) ScheduleWeek {
	return ScheduleWeek{Week: week, IsDeload: true}
}

func train(week int, intensity float64, fixedReps, amrapTarget int) ScheduleWeek {
	return ScheduleWeek{Week: week, Intensity: intensity, FixedReps: fixedReps, AmrapTarget: amrapTarget}
}

// standardTable and hypertrophyTable are the live 21-week curricula.
// Never hand them out directly, use the copying accessors.
var standardTable = []ScheduleWeek{
	train(1, 0.70, 5, 10),
	train(2, 0.75, 4, 8),
	train(3, 0.80, 3, 6),
	train(4, 0.725, 5, 9),
	train(5, 0.775, 4, 7),
	train(6, 0.825, 3, 5),
	deload(7),
	train(8, 0.75, 4, 8),
	train(9, 0.80, 3, 6),
	train(10, 0.85, 2, 4),
	train(11, 0.775, 4, 7),
	train(12, 0.825, 3, 5),
	train(13, 0.875, 2, 3),
	deload(14),
	train(15, 0.80, 3, 6),
	train(16, 0.85, 2, 4),
	train(17, 0.90, 1, 2),
	train(18, 0.825, 3, 5),
	train(19, 0.875, 2, 3),
	train(20, 0.925, 1, 2),
	deload(21),
}

var hypertrophyTable = []ScheduleWeek{
	train(1, 0.65, 10, 14),
	train(2, 0.70, 8, 12),
	train(3, 0.75, 6, 10),
	train(4, 0.675, 9, 13),
	train(5, 0.725, 7, 11),
	train(6, 0.775, 5, 9),
	deload(7),
	train(8, 0.70, 8, 12),
	train(9, 0.75, 6, 10),
	train(10, 0.80, 5, 8),
	train(11, 0.725, 7, 11),
	train(12, 0.775, 5, 9),
	train(13, 0.825, 4, 7),
	deload(14),
	train(15, 0.75, 6, 10),
	train(16, 0.80, 5, 8),
	train(17, 0.85, 3, 6),
	train(18, 0.775, 5, 9),
	train(19, 0.825, 4, 7),
	train(20, 0.875, 3, 5),
	deload(21),
}

// LiveTable returns a copy of the current curriculum for the style, in its
// with-deloads or no-deloads form.
func LiveTable(style Style, withDeloads bool) []ScheduleWeek {
	src := standardTable
	if style == StyleHypertrophy {
		src = hypertrophyTable
	}
	if withDeloads {
		out := make([]ScheduleWeek, len(src))
		copy(out, src)
		return out
	}
	return withoutDeloads(src)
}

// withoutDeloads drops the deload rows and renumbers the remaining weeks from 1.
func withoutDeloads(src []ScheduleWeek) []ScheduleWeek {
	out := make([]ScheduleWeek, 0, len(src))
	for _, w := range src {
		if w.IsDeload {
			continue
		}
		w.Week = len(out) + 1
		out = append(out, w)
	}
	return out
}

func TotalWeeks(withDeloads bool) int {
	if withDeloads {
		return WeeksWithDeloads
	}
	return WeeksNoDeloads
}

// IsDeloadWeek reports deload membership against the live tables. The
// no-deloads variant has none.
func IsDeloadWeek(week int, withDeloads bool) bool {
	return withDeloads && deloadWeeks[week]
}
