// Package metrics exposes Prometheus collectors for scoring, timing integrity and the AI
// graders. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pte"

type Metrics struct {
	registry *prometheus.Registry

	httpDuration     *prometheus.SummaryVec
	httpRequests     *prometheus.CounterVec
	attemptsScored   *prometheus.CounterVec
	overallScore     *prometheus.HistogramVec
	timingViolations *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
	sessionsStarted  *prometheus.CounterVec
	graderRequests   *prometheus.CounterVec
	graderLatency    *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, together with the Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpDuration: factory.NewSummaryVec(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "http_request_duration_seconds",
			Help:       "HTTP request duration in seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"method", "path", "status_code"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		attemptsScored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_scored_total",
			Help:      "Attempts scored and persisted",
		}, []string{"section", "type", "status"}),
		overallScore: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Distribution of overall scores on the 0-90 scale",
			Buckets:   []float64{10, 20, 30, 36, 50, 65, 76, 85, 90},
		}, []string{"section"}),
		timingViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timing_violations_total",
			Help:      "Submissions rejected by the timed-session check",
		}, []string{"reason"}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Submissions rejected by the hourly limit",
		}, []string{"section"}),
		sessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Timed sessions issued",
		}, []string{"section"}),
		graderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grader_requests_total",
			Help:      "AI grader calls by provider and outcome",
		}, []string{"provider", "outcome"}),
		graderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grader_latency_seconds",
			Help:      "AI grader call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

func (m *Metrics) AttemptScored(section, questionType, status string, overall int) {
	if m == nil {
		return
	}
	m.attemptsScored.WithLabelValues(section, questionType, status).Inc()
	m.overallScore.WithLabelValues(section).Observe(float64(overall))
}

func (m *Metrics) TimingViolation(reason string) {
	if m == nil {
		return
	}
	m.timingViolations.WithLabelValues(reason).Inc()
}

func (m *Metrics) RateLimited(section string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(section).Inc()
}

func (m *Metrics) SessionStarted(section string) {
	if m == nil {
		return
	}
	m.sessionsStarted.WithLabelValues(section).Inc()
}

// GraderResult records one provider call. outcome is "ok", "error" or "timeout".
func (m *Metrics) GraderResult(provider, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.graderRequests.WithLabelValues(provider, outcome).Inc()
	m.graderLatency.WithLabelValues(provider).Observe(took.Seconds())
}
