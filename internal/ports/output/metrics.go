package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncLayerLoad counts a layer load attempt.
	IncLayerLoad(layer string, success bool)

	// ObserveLayerLoadDuration records the time spent loading a layer.
	ObserveLayerLoadDuration(layer string, duration time.Duration)

	// SetLayerFeatures records decoded and kept feature counts of a layer.
	SetLayerFeatures(layer string, total, kept int)

	// SetLayersLoaded sets the number of loaded layers.
	SetLayersLoaded(count int)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)

	// IncDataSourceFallback counts a switch to mock environmental data.
	IncDataSourceFallback(dataset string)

	// SetTransformCacheSize records the size of the projection cache.
	SetTransformCacheSize(size int)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncLayerLoad implements MetricsCollector.
func (n *NoOpMetrics) IncLayerLoad(_ string, _ bool) {}

// ObserveLayerLoadDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveLayerLoadDuration(_ string, _ time.Duration) {}

// SetLayerFeatures implements MetricsCollector.
func (n *NoOpMetrics) SetLayerFeatures(_ string, _, _ int) {}

// SetLayersLoaded implements MetricsCollector.
func (n *NoOpMetrics) SetLayersLoaded(_ int) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}

// IncDataSourceFallback implements MetricsCollector.
func (n *NoOpMetrics) IncDataSourceFallback(_ string) {}

// SetTransformCacheSize implements MetricsCollector.
func (n *NoOpMetrics) SetTransformCacheSize(_ int) {}
