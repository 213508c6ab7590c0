package sessions

import (
	"errors"
	"time"
)

const (
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusAborted    = "ABORTED"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrActiveSessionExists = errors.New("user already has a session in progress")
	ErrSessionNotActive    = errors.New("session is not in progress")
)

type Session struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	RoutineID    string     `json:"routineId"`
	Status       string     `json:"status"`
	ProgramWeek  *int       `json:"programWeek,omitempty"`
	IsDeloadWeek bool       `json:"isDeloadWeek"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Sets         []SetLog   `json:"sets,omitempty"`
}

type SetLog struct {
	ID                string  `json:"id,omitempty"`
	RoutineExerciseID string  `json:"routineExerciseId,omitempty"`
	ExerciseID        string  `json:"exerciseId"`
	SetNumber         int     `json:"setNumber"`
	Reps              int     `json:"reps"`
	WeightKg          float64 `json:"weightKg"`
	IsAmrap           bool    `json:"isAmrap"`
}

type StartParams struct {
	RoutineID string `json:"routineId"`
}

type FinishParams struct {
	Sets []SetLog `json:"sets"`
}
