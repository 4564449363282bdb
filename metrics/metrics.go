// Package metrics exposes Prometheus collectors for the recommendation API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for recommendation requests
const (
	OutcomeMatched   = "matched"
	OutcomeBroadened = "broadened"
	OutcomeEmpty     = "empty"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Default buckets
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultCandidateBuckets    = []float64{0, 1, 5, 10, 20, 30, 40, 50}
)

// Metrics holds the application collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	RecommendationsTotal   *prometheus.CounterVec
	RecommendationDuration prometheus.Histogram
	CandidatesRetrieved    prometheus.Histogram
	LawyersExcluded        prometheus.Counter
	RateLimitedTotal       prometheus.Counter
}

// New creates the collectors on a fresh registry under namespace
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   DefaultHTTPDurationBuckets,
		}, []string{"method", "path"}),
		RecommendationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Lawyer recommendation requests by outcome",
		}, []string{"outcome"}),
		RecommendationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Time spent retrieving and ranking candidates",
			Buckets:   DefaultHTTPDurationBuckets,
		}),
		CandidatesRetrieved: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_candidates",
			Help:      "Candidates returned by storage per request",
			Buckets:   DefaultCandidateBuckets,
		}),
		LawyersExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lawyers_excluded_total",
			Help:      "Lawyer records dropped because a field could not be normalised",
		}),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RecommendationsTotal,
		m.RecommendationDuration,
		m.CandidatesRetrieved,
		m.LawyersExcluded,
		m.RateLimitedTotal,
	)
	return m
}

// Registry returns the registry backing m
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRecommendation records one finished recommendation request
func (m *Metrics) ObserveRecommendation(outcome string, candidates int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RecommendationsTotal.WithLabelValues(outcome).Inc()
	m.RecommendationDuration.Observe(elapsed.Seconds())
	if candidates >= 0 {
		m.CandidatesRetrieved.Observe(float64(candidates))
	}
}

// ObserveExcluded counts lawyer records dropped during ranking
func (m *Metrics) ObserveExcluded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LawyersExcluded.Add(float64(n))
}

// ObserveRateLimited counts one rejected request
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// RecordHTTPRequest records one served HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Middleware records every request handled by the router. Unmatched routes
// are labelled "unmatched" to bound label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
