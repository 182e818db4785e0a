package application

import (
	"context"

	"github.com/jobrunner/envmap/internal/domain"
)

// MapService assembles the combined map view.
type MapService struct {
	layers      *LayerService
	environment *EnvironmentService
}

// NewMapService creates a new map service.
func NewMapService(layers *LayerService, environment *EnvironmentService) *MapService {
	return &MapService{
		layers:      layers,
		environment: environment,
	}
}

// View returns the overlays of loaded layers together with the flood and
// tourism markers. Load failures and mock data notices are reported in the
// view instead of failing it.
func (s *MapService) View(ctx context.Context) *domain.MapView {
	flood := s.environment.FloodRisks(ctx, "")
	tourism := s.environment.EcoTourism(ctx, "")

	view := &domain.MapView{
		Center:         [2]float64{domain.DominicaLat, domain.DominicaLng},
		Overlays:       s.layers.Overlays(),
		FloodMarkers:   domain.FloodMarkers(flood.Data),
		TourismMarkers: domain.TourismMarkers(tourism.Data),
		Notice:         JoinNotices(flood.Notice, tourism.Notice),
	}
	if report := s.layers.Report(); report != nil {
		view.Error = report.ErrorSummary()
	}
	return view
}
