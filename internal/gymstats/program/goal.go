package program

// ProgressionScheme values as stored on routine exercises. Only PROGRAMMED_RTF
// exercises are driven by this package.
const (
	SchemeProgrammedRtF = "PROGRAMMED_RTF"
	SchemeDoubleProg    = "DOUBLE_PROGRESSION"
	SchemeDynamic       = "DYNAMIC"
	SchemeNone          = "NONE"
)

const DefaultRoundingKg = 2.5

// ProgramConfig is the routine level program setup.
type ProgramConfig struct {
	WithDeloads bool
	StartWeek   int
	Snapshot    *Snapshot
}

func (c ProgramConfig) TotalWeeks() int {
	if c.Snapshot.AppliesTo(c.WithDeloads) {
		return c.Snapshot.TotalWeeks
	}
	return TotalWeeks(c.WithDeloads)
}

// Version is the schedule version goals are computed from; 0 means live tables.
func (c ProgramConfig) Version() int {
	if c.Snapshot.AppliesTo(c.WithDeloads) {
		return c.Snapshot.Version
	}
	return 0
}

// ExerciseConfig is the per exercise program state.
type ExerciseConfig struct {
	RoutineExerciseID string
	ExerciseID        string
	ExerciseName      string
	ProgressionScheme string
	Style             Style
	TMKg              float64
	RoundingKg        float64
}

func (e ExerciseConfig) IsProgrammed() bool {
	return e.ProgressionScheme == SchemeProgrammedRtF
}

// WeekGoal is the computed target for one exercise in one program week.
type WeekGoal struct {
	RoutineExerciseID string   `json:"routineExerciseId"`
	ExerciseID        string   `json:"exerciseId"`
	ExerciseName      string   `json:"exerciseName,omitempty"`
	Week              int      `json:"week"`
	Variant           Style    `json:"variant"`
	IsDeload          bool     `json:"isDeload"`
	Intensity         *float64 `json:"intensity,omitempty"`
	FixedReps         *int     `json:"fixedReps,omitempty"`
	AmrapTarget       *int     `json:"amrapTarget,omitempty"`
	SetCount          int      `json:"setCount"`
	AmrapSetNumber    int      `json:"amrapSetNumber"`
	WeightKg          *float64 `json:"weightKg,omitempty"`
	TrainingMaxKg     float64  `json:"trainingMaxKg"`
}
