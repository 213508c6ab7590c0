package sessions

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymprogram/internal/telemetry/metrics"
)

type idleAborter interface {
	AbortIdle(ctx context.Context, idleSince, now time.Time) (int64, error)
}

// Sweeper periodically aborts sessions left in progress for too long.
type Sweeper struct {
	repo       idleAborter
	abortAfter time.Duration
	interval   time.Duration
	metrics    *metrics.Manager
	now        func() time.Time
}

func NewSweeper(repo idleAborter, abortAfter, interval time.Duration, metrics *metrics.Manager) *Sweeper {
	return &Sweeper{
		repo:       repo,
		abortAfter: abortAfter,
		interval:   interval,
		metrics:    metrics,
		now:        time.Now,
	}
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Sweep runs one pass and returns the number of aborted sessions.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	n, err := s.repo.AbortIdle(ctx, now.Add(-s.abortAfter), now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.CounterSessionsAborted.Add(float64(n))
		log.Printf("sessions sweeper: %d idle sessions aborted", n)
	}
	return n, nil
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Debugf("sessions sweeper started, interval %s, abort after %s", s.interval, s.abortAfter)
	for {
		select {
		case <-ctx.Done():
			log.Debugln("sessions sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				log.Errorf("sessions sweeper: %s", err)
			}
		}
	}
}
