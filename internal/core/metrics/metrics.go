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

const namespace = "imsystem"

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics owns a private registry so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	fetchTotal      *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	snapshotRecords prometheus.Gauge
	sharedFetches   prometheus.Counter
	httpRequests    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inventory_fetch_total",
				Help:      "Inventory snapshot fetches by outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inventory_fetch_duration_seconds",
				Help:      "Time taken to fetch an inventory snapshot",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		snapshotRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "inventory_snapshot_records",
				Help:      "Number of records in the last fetched snapshot",
			},
		),
		sharedFetches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inventory_fetch_shared_total",
				Help:      "Refresh requests that joined a fetch already in flight",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
	}

	m.registry.MustRegister(
		m.fetchTotal,
		m.fetchDuration,
		m.snapshotRecords,
		m.sharedFetches,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// FetchCompleted records one finished fetch. The snapshot gauge only moves
// on success because a failed fetch keeps the previous snapshot.
func (m *Metrics) FetchCompleted(duration time.Duration, records int, err error) {
	m.fetchDuration.Observe(duration.Seconds())
	if err != nil {
		m.fetchTotal.WithLabelValues(outcomeFailure).Inc()
		return
	}
	m.fetchTotal.WithLabelValues(outcomeSuccess).Inc()
	m.snapshotRecords.Set(float64(records))
}

func (m *Metrics) FetchShared() {
	m.sharedFetches.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RegisterRoutes(router gin.IRouter) {
	router.GET("/metrics", gin.WrapH(m.Handler()))
}

// Middleware counts requests by matched route so path parameters do not
// explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
