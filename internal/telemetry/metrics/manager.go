package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	SourceManual = "manual"
	SourceAuto   = "auto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	CounterSessionsAborted     prometheus.Counter
	CounterAutoAdjustFailures  prometheus.Counter

	// rtf ledger counters, registered without namespace so dashboards can
	// rely on the exact names
	CounterTMAdjustments               *prometheus.CounterVec
	CounterTMGuardrailRejections       prometheus.Counter
	CounterTMOwnershipRejections       prometheus.Counter
	CounterTMUnknownExerciseRejections prometheus.Counter

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("backend", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("backend", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterSessionsAborted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_auto_aborted",
		Help:      "Workout sessions aborted by the idle sweeper",
	})
	counterAutoAdjustFailures := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "auto_adjust_failures",
		Help:      "Failed TM auto adjustments on session finish",
	})

	counterTMAdjustments := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "rtf_tm_adjustments_total",
		Help: "Recorded training max adjustments",
	}, []string{"source"})
	counterTMGuardrailRejections := factory.NewCounter(prometheus.CounterOpts{
		Name: "rtf_tm_guardrail_rejections_total",
		Help: "TM adjustments rejected for exceeding the max delta",
	})
	counterTMOwnershipRejections := factory.NewCounter(prometheus.CounterOpts{
		Name: "rtf_tm_ownership_rejections_total",
		Help: "TM adjustments rejected because the routine is absent or not owned",
	})
	counterTMUnknownExerciseRejections := factory.NewCounter(prometheus.CounterOpts{
		Name: "rtf_tm_unknown_exercise_rejections_total",
		Help: "TM adjustments rejected because the exercise is not a programmed member of the routine",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterRequests:                    counterRequests,
		CounterHandleRequestPanic:          counterHandleRequestPanic,
		CounterRateLimitedRequests:         counterRateLimitedRequests,
		CounterSessionsAborted:             counterSessionsAborted,
		CounterAutoAdjustFailures:          counterAutoAdjustFailures,
		CounterTMAdjustments:               counterTMAdjustments,
		CounterTMGuardrailRejections:       counterTMGuardrailRejections,
		CounterTMOwnershipRejections:       counterTMOwnershipRejections,
		CounterTMUnknownExerciseRejections: counterTMUnknownExerciseRejections,
		GaugeRequests:                      gaugeRequests,
		GaugeLifeSignal:                    gaugeLifeSignal,
		HistogramRequestDuration:           histogramRequestDuration,
	}
}
