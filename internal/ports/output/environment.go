package output

import (
	"context"

	"github.com/jobrunner/envmap/internal/domain"
)

// EnvironmentalDataSource provides environmental point datasets.
type EnvironmentalDataSource interface {
	// Name identifies the source in logs and responses.
	Name() string

	FloodRisks(ctx context.Context) ([]domain.FloodRisk, error)
	EcoTourismPressures(ctx context.Context) ([]domain.EcoTourismPressure, error)
	HistoricalComparison(ctx context.Context, id, kind string) (*domain.HistoricalComparison, error)
	Predictions(ctx context.Context) ([]domain.Prediction, error)
	Rankings(ctx context.Context) ([]domain.Ranking, error)
	Articles(ctx context.Context) ([]domain.Article, error)
}
