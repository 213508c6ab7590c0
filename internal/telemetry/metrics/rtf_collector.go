package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymprogram/internal/cache"
)

type CacheStatsSource interface {
	Stats() cache.ProviderStats
}

// RtfCollector copies cache stats into gauges on a fixed interval, so scrapes
// only read the last snapshot. The stampede counters read it too.
type RtfCollector struct {
	source   CacheStatsSource
	interval time.Duration

	mu   sync.RWMutex
	last cache.ProviderStats
	at   time.Time

	weekGoalsHitRate prometheus.Gauge
	forecastHitRate  prometheus.Gauge
	cacheHitRate     *prometheus.GaugeVec
	l1Entries        prometheus.Gauge
	stampedeWaits    prometheus.CounterFunc
	stampedeBypasses prometheus.CounterFunc
}

func NewRtfCollector(source CacheStatsSource, interval time.Duration, reg prometheus.Registerer) *RtfCollector {
	factory := promauto.With(reg)
	c := &RtfCollector{
		source:   source,
		interval: interval,
		weekGoalsHitRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rtf_week_goals_hit_rate",
			Help: "Cache hit rate of week goal lookups",
		}),
		forecastHitRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rtf_forecast_hit_rate",
			Help: "Cache hit rate of forecast lookups",
		}),
		cacheHitRate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rtf_cache_hit_rate",
			Help: "Cache hit rate per tier (all, l1, l2)",
		}, []string{"tier"}),
		l1Entries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rtf_cache_l1_entries",
			Help: "Entries held by the in-process cache tier",
		}),
	}
	c.stampedeWaits = factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "rtf_stampede_wait_total",
		Help: "Callers that waited on an in-flight computation",
	}, func() float64 {
		last, _ := c.Last()
		return float64(last.Loader.Waits)
	})
	c.stampedeBypasses = factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "rtf_stampede_bypass_total",
		Help: "Callers that started a computation",
	}, func() float64 {
		last, _ := c.Last()
		return float64(last.Loader.Bypasses)
	})
	return c
}

// Run snapshots until ctx is done.
func (c *RtfCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Snapshot()
	for {
		select {
		case <-ctx.Done():
			log.Debugln("rtf metrics collector stopped")
			return
		case <-ticker.C:
			c.Snapshot()
		}
	}
}

func (c *RtfCollector) Snapshot() {
	stats := c.source.Stats()

	c.weekGoalsHitRate.Set(stats.WeekGoals.HitRate())
	c.forecastHitRate.Set(stats.Forecast.HitRate())
	c.cacheHitRate.WithLabelValues("all").Set(stats.Cache.HitRate())

	switch {
	case stats.Cache.L1 != nil:
		c.cacheHitRate.WithLabelValues("l1").Set(stats.Cache.L1.HitRate())
		c.l1Entries.Set(float64(stats.Cache.L1.Entries))
	case stats.Cache.Driver == cache.DriverMemory:
		c.l1Entries.Set(float64(stats.Cache.Entries))
	}
	if stats.Cache.L2 != nil {
		c.cacheHitRate.WithLabelValues("l2").Set(stats.Cache.L2.HitRate())
	}

	c.mu.Lock()
	c.last = stats
	c.at = time.Now()
	c.mu.Unlock()
}

// Last returns the latest snapshot and when it was taken.
func (c *RtfCollector) Last() (cache.ProviderStats, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.at
}
