package routines

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymprogram/internal/apperr"
	"github.com/2beens/gymprogram/internal/gymstats/program"
	"github.com/2beens/gymprogram/internal/telemetry/tracing"
)

type routinesRepo interface {
	Get(ctx context.Context, id string) (*Routine, error)
	EnableProgram(ctx context.Context, id string, update ProgramUpdate) error
	Delete(ctx context.Context, id string) error
}

type cacheInvalidator interface {
	InvalidateRoutine(ctx context.Context, routineID string) int
}

type Service struct {
	repo  routinesRepo
	cache cacheInvalidator
	now   func() time.Time
}

func NewService(repo routinesRepo, cache cacheInvalidator) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

// WithClock replaces the clock used for start dates and week forwarding.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Now() time.Time {
	return s.now()
}

// GetOwned loads the routine and checks it belongs to userID. An absent
// routine is NotFound, a foreign one Forbidden wrapping ErrNotOwner.
func (s *Service) GetOwned(ctx context.Context, userID, routineID string) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.routines.getowned")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("routine.id", routineID))

	routine, err := s.repo.Get(ctx, routineID)
	if err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "routine not found")
		}
		return nil, fmt.Errorf("get routine %s: %w", routineID, err)
	}
	if routine.UserID != userID {
		return nil, apperr.Wrap(apperr.KindForbidden, ErrNotOwner, "routine not accessible")
	}
	return routine, nil
}

// EnableProgram enrolls the listed exercises into the RtF program. The
// schedule snapshot is pinned on the first enrollment only.
func (s *Service) EnableProgram(ctx context.Context, userID, routineID string, params EnableProgramParams) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.routines.enableprogram")
	defer tracing.EndSpanWithErrCheck(span, &err)

	routine, err := s.GetOwned(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	if err := validateEnableParams(routine, params); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	startDate := now
	if params.StartDate != nil {
		startDate = params.StartDate.UTC()
	}
	startWeek := params.StartWeek
	if startWeek == 0 {
		startWeek = 1
	}

	update := ProgramUpdate{
		WithDeloads: params.WithDeloads,
		StartWeek:   startWeek,
		StartDate:   startDate,
		Snapshot:    program.BuildSnapshot(params.WithDeloads, now),
		Exercises:   params.Exercises,
	}
	if err := s.repo.EnableProgram(ctx, routineID, update); err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			return nil, apperr.Wrap(apperr.KindBadRequest, err, "exercise not in routine")
		}
		return nil, fmt.Errorf("enable program for routine %s: %w", routineID, err)
	}

	removed := s.cache.InvalidateRoutine(ctx, routineID)
	log.Debugf("routine [%s] enrolled in program, %d cached entries dropped", routineID, removed)

	return s.repo.Get(ctx, routineID)
}

func validateEnableParams(routine *Routine, params EnableProgramParams) error {
	total := program.TotalWeeks(params.WithDeloads)
	if params.StartWeek < 0 || params.StartWeek > total {
		return apperr.BadRequest("start week must be within 1..%d", total)
	}
	if len(params.Exercises) == 0 {
		return apperr.BadRequest("no exercises to enroll")
	}

	seen := make(map[string]bool, len(params.Exercises))
	for _, ex := range params.Exercises {
		if _, ok := routine.Exercise(ex.ExerciseID); !ok {
			return apperr.BadRequest("exercise %s not in routine", ex.ExerciseID)
		}
		if seen[ex.ExerciseID] {
			return apperr.BadRequest("exercise %s listed twice", ex.ExerciseID)
		}
		seen[ex.ExerciseID] = true
		if !ex.Style.IsValid() {
			return apperr.BadRequest("unknown program style %q", ex.Style)
		}
		if ex.TMKg <= 0 {
			return apperr.BadRequest("training max of %s must be positive", ex.ExerciseID)
		}
		if ex.RoundingKg < 0 {
			return apperr.BadRequest("rounding of %s must not be negative", ex.ExerciseID)
		}
	}
	return nil
}

// Delete removes the routine and every cached value derived from it.
func (s *Service) Delete(ctx context.Context, userID, routineID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.routines.delete")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if _, err := s.GetOwned(ctx, userID, routineID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, routineID); err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			return apperr.Wrap(apperr.KindNotFound, err, "routine not found")
		}
		return fmt.Errorf("delete routine %s: %w", routineID, err)
	}

	s.cache.InvalidateRoutine(ctx, routineID)
	return nil
}
