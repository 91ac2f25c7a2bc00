package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Flow metric engine
	MalformedStageEvents prometheus.Counter
	ResolvedDeals        *prometheus.HistogramVec
	ResolveFailures      *prometheus.CounterVec

	// Sync
	SyncRuns          *prometheus.CounterVec
	SyncedStageEvents prometheus.Counter

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New registers the metrics on the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		MalformedStageEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "flow_metrics_malformed_stage_events_total",
			Help: "Stage events excluded because left_at precedes entered_at",
		}),
		ResolvedDeals: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flow_metrics_resolved_deals",
				Help:    "Number of deals resolved per canonical stage request",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"canonical_stage"},
		),
		ResolveFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flow_metrics_resolve_failures_total",
				Help: "Canonical stage resolutions that failed on a store error",
			},
			[]string{"canonical_stage"},
		),

		SyncRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stage_event_sync_runs_total",
				Help: "Stage event sync runs by source and status",
			},
			[]string{"source", "status"},
		),
		SyncedStageEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "stage_event_sync_upserts_total",
			Help: "Stage events written by the sync job",
		}),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}
}

// Middleware records request count and latency per route pattern
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Route().Path is the pattern (/api/flow-metrics-config/:id), not the raw URL
		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		labels := []string{c.Method(), path, strconv.Itoa(status)}
		m.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		m.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

		return err
	}
}

func (m *Metrics) RecordMalformedStageEvent() {
	m.MalformedStageEvents.Inc()
}

func (m *Metrics) RecordResolvedDeals(canonicalStage string, count int) {
	m.ResolvedDeals.WithLabelValues(canonicalStage).Observe(float64(count))
}

func (m *Metrics) RecordResolveFailure(canonicalStage string) {
	m.ResolveFailures.WithLabelValues(canonicalStage).Inc()
}

func (m *Metrics) RecordSyncRun(source string, success bool, upserts int) {
	status := "failed"
	if success {
		status = "success"
	}
	m.SyncRuns.WithLabelValues(source, status).Inc()
	m.SyncedStageEvents.Add(float64(upserts))
}

func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
