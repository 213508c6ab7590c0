package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymprogram/internal/apperr"
	"github.com/2beens/gymprogram/internal/gymstats/program"
	"github.com/2beens/gymprogram/internal/gymstats/routines"
	"github.com/2beens/gymprogram/internal/gymstats/tm"
	"github.com/2beens/gymprogram/internal/telemetry/metrics"
	"github.com/2beens/gymprogram/internal/telemetry/tracing"
)

type sessionsRepo interface {
	Create(ctx context.Context, s Session) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Active(ctx context.Context, userID string) (*Session, error)
	Finish(ctx context.Context, id string, sets []SetLog, finishedAt time.Time) error
}

type routinesGetter interface {
	GetOwned(ctx context.Context, userID, routineID string) (*routines.Routine, error)
}

type autoAdjuster interface {
	AutoAdjust(ctx context.Context, routine *routines.Routine, week int, results []tm.AmrapResult) ([]tm.Adjustment, error)
}

type FinishResult struct {
	Session     *Session        `json:"session"`
	Adjustments []tm.Adjustment `json:"tmAdjustments"`
}

type Service struct {
	repo     sessionsRepo
	routines routinesGetter
	adjuster autoAdjuster
	metrics  *metrics.Manager
	now      func() time.Time
}

func NewService(repo sessionsRepo, routines routinesGetter, adjuster autoAdjuster, metrics *metrics.Manager) *Service {
	return &Service{
		repo:     repo,
		routines: routines,
		adjuster: adjuster,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Start opens a session on the routine, tagged with the program week the
// routine is in right now.
func (s *Service) Start(ctx context.Context, userID, routineID string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sessions.start")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("routine.id", routineID))

	routine, err := s.routines.GetOwned(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	week := routine.CurrentWeek(now)
	session, err := s.repo.Create(ctx, Session{
		UserID:       userID,
		RoutineID:    routineID,
		ProgramWeek:  &week,
		IsDeloadWeek: routine.ProgramConfig().IsDeload(week),
		StartedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ErrActiveSessionExists) {
			return nil, apperr.Wrap(apperr.KindBadRequest, err, "a session is already in progress")
		}
		return nil, fmt.Errorf("start session: %w", err)
	}

	log.Debugf("user [%s] started session [%s], program week %d", userID, session.ID, week)
	return session, nil
}

func (s *Service) Active(ctx context.Context, userID string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sessions.active")
	defer tracing.EndSpanWithErrCheck(span, &err)

	session, err := s.repo.Active(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "no active session")
		}
		return nil, err
	}
	return session, nil
}

// Finish stores the sets and completes the session. TM auto adjustment runs
// afterwards and never fails the call.
func (s *Service) Finish(ctx context.Context, userID, sessionID string, params FinishParams) (_ *FinishResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sessions.finish")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("session.id", sessionID))

	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "session not found")
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperr.NotFound("session not found")
	}
	if session.Status != StatusInProgress {
		return nil, apperr.Wrap(apperr.KindBadRequest, ErrSessionNotActive, "session is not in progress")
	}

	routine, err := s.routines.GetOwned(ctx, userID, session.RoutineID)
	if err != nil {
		return nil, err
	}

	sets := make([]SetLog, 0, len(params.Sets))
	for _, set := range params.Sets {
		ex, ok := routine.Exercise(set.ExerciseID)
		if !ok {
			return nil, apperr.BadRequest("exercise %s not in routine", set.ExerciseID)
		}
		if set.Reps < 0 || set.WeightKg < 0 || set.SetNumber < 1 {
			return nil, apperr.BadRequest("invalid set %d of %s", set.SetNumber, set.ExerciseID)
		}
		set.RoutineExerciseID = ex.ID
		sets = append(sets, set)
	}

	finishedAt := s.now().UTC()
	if err := s.repo.Finish(ctx, sessionID, sets, finishedAt); err != nil {
		if errors.Is(err, ErrSessionNotActive) {
			return nil, apperr.Wrap(apperr.KindBadRequest, err, "session is not in progress")
		}
		return nil, fmt.Errorf("finish session: %w", err)
	}

	session.Status = StatusCompleted
	session.FinishedAt = &finishedAt
	session.UpdatedAt = finishedAt
	session.Sets = sets

	return &FinishResult{
		Session:     session,
		Adjustments: s.autoAdjust(ctx, routine, session),
	}, nil
}

func (s *Service) autoAdjust(ctx context.Context, routine *routines.Routine, session *Session) []tm.Adjustment {
	if session.ProgramWeek == nil {
		return nil
	}
	results := AmrapResults(routine, session.Sets)
	if len(results) == 0 {
		return nil
	}

	adjustments, err := s.adjuster.AutoAdjust(ctx, routine, *session.ProgramWeek, results)
	if err != nil {
		s.metrics.CounterAutoAdjustFailures.Inc()
		log.Errorf("session [%s] finished, tm auto adjust failed: %s", session.ID, err)
	}
	return adjustments
}

// AmrapResults picks the AMRAP set of every programmed exercise. A set counts
// when it is flagged as AMRAP or is the set after the fixed sets of the style.
func AmrapResults(routine *routines.Routine, sets []SetLog) []tm.AmrapResult {
	best := make(map[string]int)
	order := make([]string, 0)
	for _, set := range sets {
		ex, ok := routine.Exercise(set.ExerciseID)
		if !ok || !ex.IsProgrammed() {
			continue
		}
		style := ex.ProgramStyle
		if style == "" {
			style = program.StyleStandard
		}
		if !set.IsAmrap && set.SetNumber != style.FixedSets()+1 {
			continue
		}
		reps, seen := best[set.ExerciseID]
		if !seen {
			order = append(order, set.ExerciseID)
		}
		if !seen || set.Reps > reps {
			best[set.ExerciseID] = set.Reps
		}
	}

	results := make([]tm.AmrapResult, 0, len(order))
	for _, exID := range order {
		results = append(results, tm.AmrapResult{ExerciseID: exID, Reps: best[exID]})
	}
	return results
}
