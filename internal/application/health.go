package application

import (
	"context"

	"github.com/jobrunner/envmap/internal/ports/input"
)

// HealthService provides health check functionality.
type HealthService struct {
	layers *LayerService
	mode   string
}

// NewHealthService creates a new health service. mode names the
// environmental data mode reported as a component.
func NewHealthService(layers *LayerService, mode string) *HealthService {
	return &HealthService{
		layers: layers,
		mode:   mode,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true // Basic health check
}

// IsReady returns true once the first layer load has finished. Failed
// layers do not affect readiness.
func (s *HealthService) IsReady(_ context.Context) bool {
	return s.layers.Report() != nil
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	total := s.layers.Registry().Len()
	loaded := 0
	components := map[string]string{
		"layers":      "pending",
		"environment": s.mode,
	}

	if report := s.layers.Report(); report != nil {
		loaded = report.LoadedCount()
		switch {
		case loaded == total:
			components["layers"] = "ok"
		case loaded == 0 && total > 0:
			components["layers"] = "failed"
		default:
			components["layers"] = "degraded"
		}
	}

	return input.HealthDetails{
		Healthy:      s.IsHealthy(ctx),
		Ready:        s.IsReady(ctx),
		LayersTotal:  total,
		LayersLoaded: loaded,
		Components:   components,
	}
}
