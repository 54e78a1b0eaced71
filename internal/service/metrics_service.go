package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for report runs.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	profileDuration prometheus.Histogram
	jobsTotal       *prometheus.CounterVec
	jobDuration     prometheus.Histogram
}

// NewMetricsService registers the worker's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "email_cache_hits_total",
		Help: "Email lookups answered from the cache",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "email_cache_misses_total",
		Help: "Email lookups that required a profile API call",
	})

	profileDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "profile_lookup_duration_seconds",
		Help:    "Duration of Canvas profile lookups",
		Buckets: prometheus.DefBuckets,
	})

	jobsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_jobs_total",
		Help: "Report jobs processed by outcome",
	}, []string{"outcome"})

	jobDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_job_duration_seconds",
		Help:    "Duration of full report runs",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 1800},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(cacheHits, cacheMisses, profileDuration, jobsTotal, jobDuration, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		profileDuration: profileDuration,
		jobsTotal:       jobsTotal,
		jobDuration:     jobDuration,
	}
}

// Handler exposes the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// RecordCacheLookup counts one cache-aside decision.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	if s == nil {
		return
	}
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
}

// ObserveProfileLookup records the latency of one profile API call.
func (s *MetricsService) ObserveProfileLookup(d time.Duration) {
	if s == nil {
		return
	}
	s.profileDuration.Observe(d.Seconds())
}

// RecordJob counts a completed report run and its duration.
func (s *MetricsService) RecordJob(outcome string, d time.Duration) {
	if s == nil {
		return
	}
	s.jobsTotal.WithLabelValues(outcome).Inc()
	s.jobDuration.Observe(d.Seconds())
}
