package rtf

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymprogram/internal/apperr"
	"github.com/2beens/gymprogram/internal/cache"
	"github.com/2beens/gymprogram/internal/gymstats/program"
	"github.com/2beens/gymprogram/internal/gymstats/routines"
	"github.com/2beens/gymprogram/internal/telemetry/tracing"
)

const (
	CacheHit  = "HIT"
	CacheMiss = "MISS"
)

type routinesGetter interface {
	GetOwned(ctx context.Context, userID, routineID string) (*routines.Routine, error)
}

type WeekGoals struct {
	Week    int                `json:"week"`
	Goals   []program.WeekGoal `json:"goals"`
	Version int                `json:"version"`
	Cache   string             `json:"_cache"`
}

type CacheStats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

type Timeline struct {
	Weeks      int                    `json:"weeks"`
	FromWeek   int                    `json:"fromWeek"`
	Timeline   []program.TimelineWeek `json:"timeline"`
	CacheStats CacheStats             `json:"cacheStats"`
}

type Forecast struct {
	RoutineID   string                 `json:"routineId"`
	Weeks       int                    `json:"weeks"`
	Version     int                    `json:"version"`
	WithDeloads bool                   `json:"withDeloads"`
	FromWeek    int                    `json:"fromWeek"`
	Forecast    []program.ForecastWeek `json:"forecast"`
}

// cachedWeekGoals is the cached form of one week, the routine version is
// stored with the goals so a hit answers without recomputing it.
type cachedWeekGoals struct {
	Goals   []program.WeekGoal `json:"goals"`
	Version int                `json:"version"`
}

type Service struct {
	routines routinesGetter
	cache    *cache.Provider
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates the read side of the program. A zero ttl uses the
// cache driver default.
func NewService(routines routinesGetter, provider *cache.Provider, ttl time.Duration) *Service {
	return &Service{
		routines: routines,
		cache:    provider,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WeekGoals resolves the goals of every programmed exercise of the routine.
// A nil week means the week the routine is in today. With remaining set, that
// default never falls before the routine's start week, which happens while
// the start date is still ahead.
func (s *Service) WeekGoals(ctx context.Context, userID, routineID string, week *int, remaining bool) (_ *WeekGoals, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.rtf.weekgoals")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("routine.id", routineID))

	routine, err := s.routines.GetOwned(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	total := routine.ProgramConfig().TotalWeeks()
	w := routine.CurrentWeek(s.now())
	if week != nil {
		w = *week
	} else if remaining {
		w = max(w, program.FromWeek(routine.ProgramStartWeek, true, total))
	}
	if w < 1 || w > total {
		return nil, apperr.Wrap(apperr.KindBadRequest, program.ErrWeekOutOfRange, fmt.Sprintf("week must be within 1..%d", total))
	}
	span.SetAttributes(attribute.Int("week", w))

	cached, hit, err := s.weekGoals(ctx, userID, routine.ID, w)
	if err != nil {
		return nil, err
	}

	res := &WeekGoals{
		Week:    w,
		Goals:   cached.Goals,
		Version: cached.Version,
		Cache:   CacheMiss,
	}
	if hit {
		res.Cache = CacheHit
	}
	return res, nil
}

// weekGoals reads the routine inside the flight, so a TM write landing
// before the flight is registered is never cached stale.
func (s *Service) weekGoals(ctx context.Context, userID, routineID string, week int) (cachedWeekGoals, bool, error) {
	return cache.GetOrCompute(
		ctx,
		s.cache,
		cache.WeekGoalsKey(routineID, week),
		s.ttl,
		func(ctx context.Context) (cachedWeekGoals, error) {
			routine, err := s.routines.GetOwned(ctx, userID, routineID)
			if err != nil {
				return cachedWeekGoals{}, err
			}
			cfg := routine.ProgramConfig()
			goals, err := program.WeekGoals(cfg, routine.ExerciseConfigs(), week)
			if err != nil {
				return cachedWeekGoals{}, err
			}
			return cachedWeekGoals{Goals: goals, Version: cfg.Version()}, nil
		},
	)
}

// Timeline lists the week goals from the first week of the view to the end
// of the program. Every week goes through the week goals cache.
func (s *Service) Timeline(ctx context.Context, userID, routineID string, remaining bool) (_ *Timeline, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.rtf.timeline")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("routine.id", routineID))

	routine, err := s.routines.GetOwned(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	total := routine.ProgramConfig().TotalWeeks()
	fromWeek := program.FromWeek(routine.ProgramStartWeek, remaining, total)

	res := &Timeline{
		Weeks:    total,
		FromWeek: fromWeek,
		Timeline: make([]program.TimelineWeek, 0, total-fromWeek+1),
	}
	for w := fromWeek; w <= total; w++ {
		cached, hit, err := s.weekGoals(ctx, userID, routine.ID, w)
		if err != nil {
			return nil, err
		}
		if hit {
			res.CacheStats.Hits++
		} else {
			res.CacheStats.Misses++
		}
		res.Timeline = append(res.Timeline, program.TimelineWeek{Week: w, Goals: cached.Goals})
	}
	return res, nil
}

// Forecast returns the schedule of both styles. The whole program is cached
// once per schedule version and sliced to the requested view.
func (s *Service) Forecast(ctx context.Context, userID, routineID string, remaining bool) (_ *Forecast, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.rtf.forecast")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("routine.id", routineID))

	routine, err := s.routines.GetOwned(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	cfg := routine.ProgramConfig()
	total := cfg.TotalWeeks()
	fromWeek := program.FromWeek(routine.ProgramStartWeek, remaining, total)

	weeks, _, err := cache.GetOrCompute(
		ctx,
		s.cache,
		cache.ForecastKey(routine.ID, cfg.Version()),
		s.ttl,
		func(ctx context.Context) ([]program.ForecastWeek, error) {
			fresh, err := s.routines.GetOwned(ctx, userID, routineID)
			if err != nil {
				return nil, err
			}
			return program.Forecast(fresh.ProgramConfig(), 1), nil
		},
	)
	if err != nil {
		return nil, err
	}

	sliced := make([]program.ForecastWeek, 0, len(weeks))
	for _, fw := range weeks {
		if fw.Week >= fromWeek {
			sliced = append(sliced, fw)
		}
	}

	return &Forecast{
		RoutineID:   routine.ID,
		Weeks:       total,
		Version:     cfg.Version(),
		WithDeloads: routine.ProgramWithDeloads,
		FromWeek:    fromWeek,
		Forecast:    sliced,
	}, nil
}
