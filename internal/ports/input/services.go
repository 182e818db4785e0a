// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/envmap/internal/domain"
)

// LayerQuery defines the primary port for loaded map layers.
type LayerQuery interface {
	// Configs returns the configured layers in registry order.
	Configs() []domain.LayerConfig

	// Report returns the latest load report, or nil before the first load.
	Report() *domain.LoadReport

	// Layer returns the load result of a layer by name.
	Layer(ctx context.Context, name string) (*domain.LayerResult, error)

	// Feature returns the detail view of one feature of a loaded layer.
	Feature(ctx context.Context, name string, index int) (*domain.FeatureDetail, error)
}

// EnvironmentQuery defines the primary port for environmental datasets.
type EnvironmentQuery interface {
	FloodRisks(ctx context.Context, query string) domain.Dataset[[]domain.FloodRisk]
	EcoTourism(ctx context.Context, query string) domain.Dataset[[]domain.EcoTourismPressure]
	HistoricalComparison(ctx context.Context, id, kind string) (domain.Dataset[*domain.HistoricalComparison], error)
	Predictions(ctx context.Context) domain.Dataset[[]domain.Prediction]
	Rankings(ctx context.Context) domain.Dataset[[]domain.Ranking]
	Articles(ctx context.Context) domain.Dataset[[]domain.Article]
	Heatmap(kind string) ([]domain.HeatmapPoint, error)
}

// MapQuery defines the primary port for the combined map view.
type MapQuery interface {
	// View assembles overlays and markers for the render surface.
	View(ctx context.Context) *domain.MapView
}

// ReloadTrigger defines the primary port for manual layer reloads.
type ReloadTrigger interface {
	// TriggerReload reloads all layers, subject to rate limiting.
	TriggerReload(ctx context.Context) (*domain.LoadReport, error)
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy      bool              // Overall health status
	Ready        bool              // Ready to accept requests
	LayersTotal  int               // Number of configured layers
	LayersLoaded int               // Number of loaded layers
	Components   map[string]string // Component statuses
}
