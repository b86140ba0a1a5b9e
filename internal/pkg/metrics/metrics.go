package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diadiem",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "diadiem",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "diadiem",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Search metrics
	ProviderFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diadiem",
		Subsystem: "search",
		Name:      "provider_fetches_total",
		Help:      "Provider queries by outcome (success, error)",
	}, []string{"outcome"})

	ProviderFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "diadiem",
		Subsystem: "search",
		Name:      "provider_fetch_duration_seconds",
		Help:      "Duration of provider queries",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	StaleCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "diadiem",
		Subsystem: "search",
		Name:      "stale_completions_total",
		Help:      "Fetch completions discarded because a newer request was issued",
	})

	SkippedFetches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "diadiem",
		Subsystem: "search",
		Name:      "skipped_fetches_total",
		Help:      "Filter changes answered without a provider query",
	})

	DebounceEmissions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "diadiem",
		Subsystem: "search",
		Name:      "debounce_emissions_total",
		Help:      "Settled keyword edits",
	})

	StalledFetches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "diadiem",
		Subsystem: "search",
		Name:      "stalled_fetches_total",
		Help:      "Fetches that exceeded the stall threshold",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "diadiem",
		Subsystem: "explore",
		Name:      "active_sessions",
		Help:      "Current number of explore sessions",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diadiem",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diadiem",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	DealTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diadiem",
		Subsystem: "deals",
		Name:      "transitions_total",
		Help:      "Deal status changes applied by the sweeper",
	}, []string{"to"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "diadiem",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "diadiem",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "diadiem",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// ObserveFetch records one provider query.
func ObserveFetch(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ProviderFetches.WithLabelValues(outcome).Inc()
	ProviderFetchDuration.Observe(d.Seconds())
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path // route pattern keeps :id out of the labels
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}) {
	DBPoolConnsAcquired.Set(float64(stat.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(stat.IdleConns()))
	DBPoolConnsOpen.Set(float64(stat.TotalConns()))
}
