// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the MetricsCollector port using Prometheus.
type Collector struct {
	layerLoads          *prometheus.CounterVec
	layerLoadDuration   *prometheus.HistogramVec
	layerFeatures       *prometheus.GaugeVec
	layersLoaded        prometheus.Gauge
	storageOperations   *prometheus.CounterVec
	storageDuration     *prometheus.HistogramVec
	dataSourceFallbacks *prometheus.CounterVec
	transformCacheSize  prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a new Prometheus metrics collector registered with
// reg, or with the default registry when reg is nil.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if namespace == "" {
		namespace = "envmap"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		layerLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "layer_loads_total",
				Help:      "Total number of layer load attempts",
			},
			[]string{"layer", "status"},
		),

		layerLoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "layer_load_duration_seconds",
				Help:      "Layer fetch and decode duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"layer"},
		),

		layerFeatures: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "layer_features",
				Help:      "Features of the latest load per layer",
			},
			[]string{"layer", "stage"},
		),

		layersLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "layers_loaded",
				Help:      "Number of successfully loaded layers",
			},
		),

		storageOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),

		storageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		dataSourceFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "data_source_fallbacks_total",
				Help:      "Number of times mock data replaced the live API",
			},
			[]string{"dataset"},
		),

		transformCacheSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "transform_cache_entries",
				Help:      "Memoized coordinates of the latest loading run",
			},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// IncLayerLoad counts a layer load attempt.
func (c *Collector) IncLayerLoad(layer string, success bool) {
	c.layerLoads.WithLabelValues(layer, successLabel(success)).Inc()
}

// ObserveLayerLoadDuration records the time spent loading a layer.
func (c *Collector) ObserveLayerLoadDuration(layer string, duration time.Duration) {
	c.layerLoadDuration.WithLabelValues(layer).Observe(duration.Seconds())
}

// SetLayerFeatures records decoded and kept feature counts of a layer.
func (c *Collector) SetLayerFeatures(layer string, total, kept int) {
	c.layerFeatures.WithLabelValues(layer, "decoded").Set(float64(total))
	c.layerFeatures.WithLabelValues(layer, "kept").Set(float64(kept))
}

// SetLayersLoaded sets the number of loaded layers.
func (c *Collector) SetLayersLoaded(count int) {
	c.layersLoaded.Set(float64(count))
}

// IncStorageOperations increments storage operation counter.
func (c *Collector) IncStorageOperations(operation string, success bool) {
	c.storageOperations.WithLabelValues(operation, successLabel(success)).Inc()
}

// ObserveStorageDuration records storage operation duration.
func (c *Collector) ObserveStorageDuration(operation string, duration time.Duration) {
	c.storageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncDataSourceFallback counts a switch to mock environmental data.
func (c *Collector) IncDataSourceFallback(dataset string) {
	c.dataSourceFallbacks.WithLabelValues(dataset).Inc()
}

// SetTransformCacheSize records the size of the projection cache.
func (c *Collector) SetTransformCacheSize(size int) {
	c.transformCacheSize.Set(float64(size))
}

// IncHTTPRequests increments the HTTP request counter.
func (c *Collector) IncHTTPRequests(method, path, status string) {
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveHTTPDuration records HTTP request duration.
func (c *Collector) ObserveHTTPDuration(method, path string, duration time.Duration) {
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns HTTP middleware for metrics collection.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		path := routePath(r)
		status := statusToString(wrapped.statusCode)

		c.IncHTTPRequests(r.Method, path, status)
		c.ObserveHTTPDuration(r.Method, path, duration)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// routePath labels a request by its route template so layer names and
// feature indexes do not create new series.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath truncates unmatched paths.
func normalizePath(path string) string {
	switch {
	case len(path) > 20:
		return path[:20] + "..."
	default:
		return path
	}
}

// statusToString converts HTTP status code to string category.
func statusToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

func successLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
