package almanac

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal holds the Prometheus metrics for Almanac.
// It owns its registry so tests can create as many as they like.
// All Rec methods are safe on a nil receiver.
type StatsInternal struct {
	Registry     *prometheus.Registry
	WWWResponses *prometheus.CounterVec   // HTTP responses by code and method
	Estimates    *prometheus.CounterVec   // estimator results served, by kind
	FetchTimer   *prometheus.HistogramVec // upstream call duration, by api
	FetchErrors  *prometheus.CounterVec   // upstream failures, by api
	CacheLookups *prometheus.CounterVec   // chart cache lookups, by result
}

func NewStatsInternal() *StatsInternal {
	s := &StatsInternal{
		Registry: prometheus.NewRegistry(),
		WWWResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "almanac_http_responses_total",
				Help: "HTTP responses served, by status code and method",
			},
			[]string{"code", "method"},
		),
		Estimates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "almanac_estimates_total",
				Help: "Lunar estimates served, by kind (day, month)",
			},
			[]string{"kind"},
		),
		FetchTimer: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "almanac_upstream_fetch_seconds",
				Help:    "Duration of calls to external APIs",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"api"},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "almanac_upstream_errors_total",
				Help: "Failed calls to external APIs",
			},
			[]string{"api"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "almanac_chart_cache_lookups_total",
				Help: "Chart cache lookups, by result (hit, miss, error)",
			},
			[]string{"result"},
		),
	}

	s.Registry.MustRegister(
		s.WWWResponses,
		s.Estimates,
		s.FetchTimer,
		s.FetchErrors,
		s.CacheLookups,
		collectors.NewGoCollector(),
	)
	return s
}

// Handler serves this registry at /metrics, a nil StatsInternal serves 404
func (s *StatsInternal) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}

func (s *StatsInternal) RecWWW(code, method string) {
	if s == nil {
		return
	}
	s.WWWResponses.WithLabelValues(code, method).Inc()
}

func (s *StatsInternal) RecEstimate(kind string) {
	if s == nil {
		return
	}
	s.Estimates.WithLabelValues(kind).Inc()
}

// RecFetchTimer takes the duration in seconds
func (s *StatsInternal) RecFetchTimer(api string, seconds float64) {
	if s == nil {
		return
	}
	s.FetchTimer.WithLabelValues(api).Observe(seconds)
}

func (s *StatsInternal) RecFetchError(api string) {
	if s == nil {
		return
	}
	s.FetchErrors.WithLabelValues(api).Inc()
}

func (s *StatsInternal) RecCache(result string) {
	if s == nil {
		return
	}
	s.CacheLookups.WithLabelValues(result).Inc()
}
