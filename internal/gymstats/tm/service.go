package tm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/2beens/gymprogram/internal/apperr"
	"github.com/2beens/gymprogram/internal/gymstats/program"
	"github.com/2beens/gymprogram/internal/gymstats/routines"
	"github.com/2beens/gymprogram/internal/telemetry/metrics"
	"github.com/2beens/gymprogram/internal/telemetry/tracing"
)

var (
	ErrMathMismatch = errors.New("math mismatch")
	ErrGuardrail    = errors.New("guardrail rejection")
)

type adjustmentsRepo interface {
	Create(ctx context.Context, adj Adjustment) (*Adjustment, error)
	List(ctx context.Context, routineID, exerciseID string) ([]Adjustment, error)
}

type routinesGetter interface {
	GetOwned(ctx context.Context, userID, routineID string) (*routines.Routine, error)
}

type cacheInvalidator interface {
	InvalidateRoutine(ctx context.Context, routineID string) int
}

type ServiceParams struct {
	Repo       adjustmentsRepo
	Routines   routinesGetter
	Cache      cacheInvalidator
	Metrics    *metrics.Manager
	MaxDeltaKg float64
	Strategy   StepStrategy
}

type Service struct {
	repo       adjustmentsRepo
	routines   routinesGetter
	cache      cacheInvalidator
	metrics    *metrics.Manager
	maxDeltaKg float64
	strategy   StepStrategy
	now        func() time.Time
}

func NewService(params ServiceParams) *Service {
	maxDelta := params.MaxDeltaKg
	if maxDelta <= 0 {
		maxDelta = DefaultMaxDeltaKg
	}
	strategy := params.Strategy
	if strategy == nil {
		strategy = OneRoundingUnit
	}
	return &Service{
		repo:       params.Repo,
		routines:   params.Routines,
		cache:      params.Cache,
		metrics:    params.Metrics,
		maxDeltaKg: maxDelta,
		strategy:   strategy,
		now:        time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// owned loads the routine for a ledger operation. Foreign routines are
// reported as absent.
func (s *Service) owned(ctx context.Context, userID, routineID string) (*routines.Routine, error) {
	routine, err := s.routines.GetOwned(ctx, userID, routineID)
	if err == nil {
		return routine, nil
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindForbidden:
		s.metrics.CounterTMOwnershipRejections.Inc()
		return nil, apperr.Wrap(apperr.KindNotFound, routines.ErrRoutineNotFound, "routine not found")
	default:
		return nil, err
	}
}

// Create validates and records a manual TM change, then drops every cached
// value of the routine.
func (s *Service) Create(ctx context.Context, userID, routineID string, params CreateParams) (_ *Adjustment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.tm.create")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(
		attribute.String("routine.id", routineID),
		attribute.String("exercise.id", params.ExerciseID),
	)

	routine, err := s.owned(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	ex, ok := routine.Exercise(params.ExerciseID)
	if !ok || !ex.IsProgrammed() {
		s.metrics.CounterTMUnknownExerciseRejections.Inc()
		return nil, apperr.BadRequest("exercise %s is not a PROGRAMMED_RTF member of the routine", params.ExerciseID)
	}

	total := routine.ProgramConfig().TotalWeeks()
	if params.WeekNumber < 1 || params.WeekNumber > total {
		return nil, apperr.Wrap(apperr.KindBadRequest, program.ErrWeekOutOfRange, fmt.Sprintf("week must be within 1..%d", total))
	}

	if math.Abs(params.PreTMKg+params.DeltaKg-params.PostTMKg) > mathTolerance {
		return nil, apperr.Wrap(apperr.KindBadRequest, ErrMathMismatch, "math mismatch")
	}

	if math.Abs(params.DeltaKg) > s.maxDeltaKg {
		s.metrics.CounterTMGuardrailRejections.Inc()
		return nil, apperr.Wrap(
			apperr.KindBadRequest,
			ErrGuardrail,
			fmt.Sprintf("guardrail rejection: |delta| must not exceed %g kg", s.maxDeltaKg),
		)
	}

	adj, err := s.repo.Create(ctx, Adjustment{
		RoutineID:  routineID,
		ExerciseID: params.ExerciseID,
		WeekNumber: params.WeekNumber,
		DeltaKg:    params.DeltaKg,
		PreTMKg:    params.PreTMKg,
		PostTMKg:   params.PostTMKg,
		Reason:     params.Reason,
		Style:      styleOf(ex),
		Source:     SourceManual,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create tm adjustment: %w", err)
	}

	s.metrics.CounterTMAdjustments.WithLabelValues(SourceManual).Inc()
	s.cache.InvalidateRoutine(ctx, routineID)
	log.Debugf("tm of [%s] in routine [%s]: %g -> %g", adj.ExerciseID, routineID, adj.PreTMKg, adj.PostTMKg)

	return adj, nil
}

// AutoAdjust raises the TM of every programmed exercise whose AMRAP set met
// the week's target. Deload weeks never adjust. Failures of single exercises
// do not stop the others and are returned combined.
func (s *Service) AutoAdjust(ctx context.Context, routine *routines.Routine, week int, results []AmrapResult) (_ []Adjustment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.tm.autoadjust")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(
		attribute.String("routine.id", routine.ID),
		attribute.Int("week", week),
	)

	cfg := routine.ProgramConfig()
	if week < 1 || week > cfg.TotalWeeks() || cfg.IsDeload(week) {
		return nil, nil
	}

	var created []Adjustment
	for _, res := range results {
		ex, ok := routine.Exercise(res.ExerciseID)
		if !ok || !ex.IsProgrammed() || ex.ProgramTMKg == nil {
			continue
		}

		goal, resolveErr := program.Resolve(cfg, ex.Config(), week)
		if resolveErr != nil {
			err = multierr.Append(err, fmt.Errorf("resolve %s: %w", ex.ExerciseID, resolveErr))
			continue
		}
		if goal.IsDeload || goal.AmrapTarget == nil || res.Reps < *goal.AmrapTarget {
			continue
		}

		step := s.strategy(StepInput{
			Reps:        res.Reps,
			AmrapTarget: *goal.AmrapTarget,
			RoundingKg:  ex.RoundingKg(),
			MaxDeltaKg:  s.maxDeltaKg,
		})
		if step <= 0 {
			continue
		}
		if step > s.maxDeltaKg {
			step = s.maxDeltaKg
		}

		pre := *ex.ProgramTMKg
		adj, createErr := s.repo.Create(ctx, Adjustment{
			RoutineID:  routine.ID,
			ExerciseID: ex.ExerciseID,
			WeekNumber: week,
			DeltaKg:    step,
			PreTMKg:    pre,
			PostTMKg:   round3(pre + step),
			Reason:     ReasonAuto,
			Style:      styleOf(ex),
			Source:     SourceAuto,
			CreatedAt:  s.now().UTC(),
		})
		if createErr != nil {
			err = multierr.Append(err, fmt.Errorf("auto adjust %s: %w", ex.ExerciseID, createErr))
			continue
		}
		s.metrics.CounterTMAdjustments.WithLabelValues(SourceAuto).Inc()
		created = append(created, *adj)
	}

	if len(created) > 0 {
		s.cache.InvalidateRoutine(ctx, routine.ID)
		log.Debugf("routine [%s] week %d: %d tm auto adjustments", routine.ID, week, len(created))
	}
	return created, err
}

func (s *Service) List(ctx context.Context, userID, routineID, exerciseID string) (_ []Adjustment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.tm.list")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if _, err := s.owned(ctx, userID, routineID); err != nil {
		return nil, err
	}
	adjustments, err := s.repo.List(ctx, routineID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("list tm adjustments: %w", err)
	}
	return adjustments, nil
}

func (s *Service) Summary(ctx context.Context, userID, routineID string) (_ []ExerciseSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.tm.summary")
	defer tracing.EndSpanWithErrCheck(span, &err)

	adjustments, err := s.List(ctx, userID, routineID, "")
	if err != nil {
		return nil, err
	}
	return Summarize(adjustments), nil
}

func styleOf(ex *routines.RoutineExercise) program.Style {
	if ex.ProgramStyle == "" {
		return program.StyleStandard
	}
	return ex.ProgramStyle
}
