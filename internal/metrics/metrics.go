package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Decodes counts polyline decodes by execution mode (worker, fallback) and status (ok, error, timeout)
	Decodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "polyline_decodes_total", Help: "Polyline decodes by mode and status."},
		[]string{"mode", "status"},
	)
	// DecodeDuration tracks end-to-end decode latency per mode
	DecodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "polyline_decode_duration_seconds", Help: "Polyline decode latency in seconds.", Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}},
		[]string{"mode"},
	)
	// PointsDecoded and PointsReturned show how much simplification removes
	PointsDecoded = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "polyline_points_decoded", Help: "Points per decoded polyline before simplification.", Buckets: prometheus.ExponentialBuckets(10, 4, 7)},
	)
	PointsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "polyline_points_returned", Help: "Points per polyline after simplification.", Buckets: prometheus.ExponentialBuckets(10, 4, 7)},
	)
	// PendingDecodes is the number of requests waiting on the shared worker
	PendingDecodes = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "polyline_pending_decodes", Help: "Decode requests in flight on the shared worker."},
	)
	// WorkerStarts counts lazy creations of the shared worker
	WorkerStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "polyline_worker_starts_total", Help: "Shared decode worker creation attempts by result."},
		[]string{"result"},
	)

	// CacheHits and CacheMisses count decode cache lookups by backend
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "polyline_cache_hits_total", Help: "Decode cache hits."},
		[]string{"backend"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "polyline_cache_misses_total", Help: "Decode cache misses."},
		[]string{"backend"},
	)
)

// RegisterDefault registers collectors to Registry. Safe to call repeatedly.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Decodes)
		Registry.MustRegister(DecodeDuration)
		Registry.MustRegister(PointsDecoded)
		Registry.MustRegister(PointsReturned)
		Registry.MustRegister(PendingDecodes)
		Registry.MustRegister(WorkerStarts)
		Registry.MustRegister(CacheHits)
		Registry.MustRegister(CacheMisses)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
