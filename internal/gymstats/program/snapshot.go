package program

import (
	"time"
)

// SnapshotVersion must be bumped on any incompatible change to the tables.
// Stored snapshots are never rewritten.
const SnapshotVersion = 1

// Snapshot pins the curriculum a routine was created with, so later edits to
// the live tables do not change an already running program.
type Snapshot struct {
	Version          int            `json:"version"`
	CreatedAt        time.Time      `json:"createdAt"`
	WithDeloads      bool           `json:"withDeloads"`
	TotalWeeks       int            `json:"totalWeeks"`
	StandardTable    []ScheduleWeek `json:"standard"`
	HypertrophyTable []ScheduleWeek `json:"hypertrophy"`
}

func BuildSnapshot(withDeloads bool, now time.Time) *Snapshot {
	return &Snapshot{
		Version:          SnapshotVersion,
		CreatedAt:        now.UTC(),
		WithDeloads:      withDeloads,
		TotalWeeks:       TotalWeeks(withDeloads),
		StandardTable:    LiveTable(StyleStandard, withDeloads),
		HypertrophyTable: LiveTable(StyleHypertrophy, withDeloads),
	}
}

// AppliesTo reports whether the snapshot can drive a routine with the given
// deloads setting. A mismatched or unknown-version snapshot is treated as absent.
func (s *Snapshot) AppliesTo(withDeloads bool) bool {
	if s == nil {
		return false
	}
	if s.Version < 1 || s.Version > SnapshotVersion {
		return false
	}
	return s.WithDeloads == withDeloads && s.TotalWeeks == len(s.StandardTable) && s.TotalWeeks == len(s.HypertrophyTable)
}

// Table returns a copy of the pinned table for the style.
func (s *Snapshot) Table(style Style) []ScheduleWeek {
	src := s.StandardTable
	if style == StyleHypertrophy {
		src = s.HypertrophyTable
	}
	out := make([]ScheduleWeek, len(src))
	copy(out, src)
	return out
}

func (s *Snapshot) week(style Style, week int) (ScheduleWeek, bool) {
	src := s.StandardTable
	if style == StyleHypertrophy {
		src = s.HypertrophyTable
	}
	if week < 1 || week > len(src) {
		return ScheduleWeek{}, false
	}
	return src[week-1], true
}
