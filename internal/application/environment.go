package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

// Dataset names used in notices, logs and metrics.
const (
	datasetFloodRisk  = "flood risk"
	datasetEcoTourism = "eco-tourism"
	datasetHistory    = "historical comparison"
	datasetPrediction = "predictions"
	datasetRanking    = "rankings"
	datasetArticle    = "articles"
)

// EnvironmentService serves environmental datasets from the live API and
// falls back to the static mock source when the API fails.
type EnvironmentService struct {
	live    output.EnvironmentalDataSource // nil in static mode
	static  output.EnvironmentalDataSource
	heatmap *domain.HeatmapGenerator
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewEnvironmentService creates a new environment service. A nil live
// source serves static data only.
func NewEnvironmentService(
	live output.EnvironmentalDataSource,
	static output.EnvironmentalDataSource,
	heatmap *domain.HeatmapGenerator,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *EnvironmentService {
	if heatmap == nil {
		heatmap = domain.NewHeatmapGenerator(nil)
	}
	return &EnvironmentService{
		live:    live,
		static:  static,
		heatmap: heatmap,
		metrics: metrics,
		logger:  logger,
	}
}

// MockNotice returns the notice attached to mock data of a dataset.
func MockNotice(dataset string) string {
	return fmt.Sprintf("Using mock %s data", dataset)
}

// JoinNotices joins non-empty notices with "; ".
func JoinNotices(notices ...string) string {
	parts := make([]string, 0, len(notices))
	for _, n := range notices {
		if n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "; ")
}

// fetch loads a dataset live first and falls back to the static source.
func fetch[T any](
	ctx context.Context,
	s *EnvironmentService,
	dataset string,
	get func(context.Context, output.EnvironmentalDataSource) (T, error),
) (domain.Dataset[T], error) {
	if s.live != nil {
		v, err := get(ctx, s.live)
		if err == nil {
			return domain.Dataset[T]{Data: v, Source: s.live.Name()}, nil
		}
		s.logger.Warn("environmental API unavailable, using mock data",
			"dataset", dataset,
			"error", err,
		)
		s.metrics.IncDataSourceFallback(dataset)
	}

	v, err := get(ctx, s.static)
	if err != nil {
		return domain.Dataset[T]{Source: s.static.Name()}, err
	}
	return domain.Dataset[T]{Data: v, Source: s.static.Name(), Notice: MockNotice(dataset)}, nil
}

// FloodRisks returns flood risk regions whose name contains query.
func (s *EnvironmentService) FloodRisks(ctx context.Context, query string) domain.Dataset[[]domain.FloodRisk] {
	ds, err := fetch(ctx, s, datasetFloodRisk, func(ctx context.Context, src output.EnvironmentalDataSource) ([]domain.FloodRisk, error) {
		return src.FloodRisks(ctx)
	})
	if err != nil {
		s.logger.Error("mock flood risk data unavailable", "error", err)
	}
	ds.Data = domain.FilterFloodRisks(ds.Data, query)
	if ds.Data == nil {
		ds.Data = []domain.FloodRisk{}
	}
	return ds
}

// EcoTourism returns eco-tourism sites whose name contains query.
func (s *EnvironmentService) EcoTourism(ctx context.Context, query string) domain.Dataset[[]domain.EcoTourismPressure] {
	ds, err := fetch(ctx, s, datasetEcoTourism, func(ctx context.Context, src output.EnvironmentalDataSource) ([]domain.EcoTourismPressure, error) {
		return src.EcoTourismPressures(ctx)
	})
	if err != nil {
		s.logger.Error("mock eco-tourism data unavailable", "error", err)
	}
	ds.Data = domain.FilterEcoTourism(ds.Data, query)
	if ds.Data == nil {
		ds.Data = []domain.EcoTourismPressure{}
	}
	return ds
}

// HistoricalComparison returns the history of a region or site. kind is
// "flood-risk" or "eco-tourism".
func (s *EnvironmentService) HistoricalComparison(ctx context.Context, id, kind string) (domain.Dataset[*domain.HistoricalComparison], error) {
	if strings.TrimSpace(id) == "" {
		return domain.Dataset[*domain.HistoricalComparison]{}, &domain.ValidationError{
			Field:      "id",
			Constraint: "required",
			Message:    "id parameter is required",
		}
	}
	if kind != domain.ComparisonFloodRisk && kind != domain.ComparisonEcoTourism {
		return domain.Dataset[*domain.HistoricalComparison]{}, &domain.ValidationError{
			Field:      "type",
			Value:      kind,
			Constraint: "flood-risk|eco-tourism",
			Message:    "type must be flood-risk or eco-tourism",
		}
	}

	return fetch(ctx, s, datasetHistory, func(ctx context.Context, src output.EnvironmentalDataSource) (*domain.HistoricalComparison, error) {
		return src.HistoricalComparison(ctx, id, kind)
	})
}

// Predictions returns environmental forecast summaries.
func (s *EnvironmentService) Predictions(ctx context.Context) domain.Dataset[[]domain.Prediction] {
	ds, err := fetch(ctx, s, datasetPrediction, func(ctx context.Context, src output.EnvironmentalDataSource) ([]domain.Prediction, error) {
		return src.Predictions(ctx)
	})
	if err != nil || ds.Data == nil {
		ds.Data = []domain.Prediction{}
	}
	return ds
}

// Rankings returns regional environmental scores.
func (s *EnvironmentService) Rankings(ctx context.Context) domain.Dataset[[]domain.Ranking] {
	ds, err := fetch(ctx, s, datasetRanking, func(ctx context.Context, src output.EnvironmentalDataSource) ([]domain.Ranking, error) {
		return src.Rankings(ctx)
	})
	if err != nil || ds.Data == nil {
		ds.Data = []domain.Ranking{}
	}
	return ds
}

// Articles returns story teasers.
func (s *EnvironmentService) Articles(ctx context.Context) domain.Dataset[[]domain.Article] {
	ds, err := fetch(ctx, s, datasetArticle, func(ctx context.Context, src output.EnvironmentalDataSource) ([]domain.Article, error) {
		return src.Articles(ctx)
	})
	if err != nil || ds.Data == nil {
		ds.Data = []domain.Article{}
	}
	return ds
}

// Heatmap returns synthetic points for a heatmap kind.
func (s *EnvironmentService) Heatmap(kind string) ([]domain.HeatmapPoint, error) {
	k, err := domain.ParseHeatmapKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, kind)
	}
	return s.heatmap.Generate(k)
}
