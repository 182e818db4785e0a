package envapi

import (
	"context"
	"fmt"

	"github.com/jobrunner/envmap/internal/domain"
)

// StaticSource implements output.EnvironmentalDataSource with built-in mock
// datasets. Every call returns fresh copies.
type StaticSource struct{}

// NewStaticSource creates the mock data source.
func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

// Name implements output.EnvironmentalDataSource.
func (s *StaticSource) Name() string {
	return domain.SourceStatic
}

// FloodRisks implements output.EnvironmentalDataSource.
func (s *StaticSource) FloodRisks(_ context.Context) ([]domain.FloodRisk, error) {
	return mockFloodRisks(), nil
}

// EcoTourismPressures implements output.EnvironmentalDataSource.
func (s *StaticSource) EcoTourismPressures(_ context.Context) ([]domain.EcoTourismPressure, error) {
	return mockEcoTourism(), nil
}

// HistoricalComparison implements output.EnvironmentalDataSource. Levels of
// known regions and sites are taken from the mock datasets.
func (s *StaticSource) HistoricalComparison(_ context.Context, id, kind string) (*domain.HistoricalComparison, error) {
	if kind == domain.ComparisonFloodRisk {
		level := domain.RiskModerate
		for _, r := range mockFloodRisks() {
			if r.RegionName == id {
				level = r.FloodRiskLevel
				break
			}
		}
		return &domain.HistoricalComparison{
			ID:             id,
			Type:           domain.ComparisonFloodRisk,
			FloodRiskLevel: level,
			Details:        fmt.Sprintf("Historical comparison for %s region", id),
			AffectedAreas:  []string{"Sample Area 1", "Sample Area 2"},
			HistoricalData: []domain.HistoricalPoint{
				{Date: "2023-05-01", FloodRiskLevel: domain.RiskLow, ConfidenceScore: 0.85},
				{Date: "2023-05-15", FloodRiskLevel: domain.RiskModerate, ConfidenceScore: 0.82},
				{Date: "2023-06-01", FloodRiskLevel: domain.RiskModerate, ConfidenceScore: 0.88},
			},
			TrendInfo: domain.TrendInfo{
				Direction:   "stable",
				Magnitude:   0.5,
				Description: "Flood risk is relatively stable with moderate fluctuation.",
			},
		}, nil
	}

	name, load := "Unknown Site", domain.RiskModerate
	for _, site := range mockEcoTourism() {
		if site.SiteID == id {
			name, load = site.SiteName, site.ExpectedVisitorLoad
			break
		}
	}
	return &domain.HistoricalComparison{
		ID:                  id,
		Type:                domain.ComparisonEcoTourism,
		SiteName:            name,
		ExpectedVisitorLoad: load,
		Recommendation:      fmt.Sprintf("Visit %s during off-peak hours for the best experience.", id),
		ContributingFactors: []string{"Seasonal trends", "Weather conditions", "Local events"},
		HistoricalData: []domain.HistoricalPoint{
			{Date: "2023-05-01", ExpectedVisitorLoad: domain.RiskLow, ConfidenceScore: 0.80},
			{Date: "2023-05-15", ExpectedVisitorLoad: domain.RiskModerate, ConfidenceScore: 0.85},
			{Date: "2023-06-01", ExpectedVisitorLoad: domain.RiskHigh, ConfidenceScore: 0.90},
		},
		TrendInfo: domain.TrendInfo{
			Direction:   "increasing",
			Magnitude:   0.7,
			Description: "Visitor numbers are trending upward with moderate fluctuation.",
		},
	}, nil
}

// Predictions implements output.EnvironmentalDataSource.
func (s *StaticSource) Predictions(_ context.Context) ([]domain.Prediction, error) {
	return []domain.Prediction{
		{
			ID:         "flood-roseau",
			Type:       "Flood Alert",
			Location:   "Roseau Valley",
			Timeframe:  "Next 48 hours",
			Prediction: "Elevated river levels expected after heavy rainfall.",
			Details:    "Residents near the Roseau River should monitor official advisories.",
			Confidence: "Medium",
			IconName:   "alert",
			ColorTheme: &domain.ColorTheme{Bg: "bg-red-500/10", Text: "text-red-600", Border: "border-red-500/30"},
		},
		{
			ID:         "air-quality-north",
			Type:       "Air Quality",
			Location:   "Portsmouth",
			Timeframe:  "This week",
			Prediction: "Good air quality with light Saharan dust on Thursday.",
			Details:    "Sensitive groups may notice reduced visibility late in the week.",
			Confidence: "High",
			IconName:   "chart",
			ColorTheme: &domain.ColorTheme{Bg: "bg-green-500/10", Text: "text-green-600", Border: "border-green-500/30"},
		},
		{
			ID:         "reef-east",
			Type:       "Coral Health",
			Location:   "East Coast",
			Timeframe:  "Next month",
			Prediction: "Moderate bleaching risk as sea temperatures rise.",
			Details:    "Dive operators are asked to report bleaching observations.",
			Confidence: "Low",
			IconName:   "chart",
		},
	}, nil
}

// Rankings implements output.EnvironmentalDataSource.
func (s *StaticSource) Rankings(_ context.Context) ([]domain.Ranking, error) {
	return []domain.Ranking{
		{ID: "st-david", Name: "St. David", Score: 88, Trend: "up"},
		{ID: "st-andrew", Name: "St. Andrew", Score: 82, Trend: "stable"},
		{ID: "st-joseph", Name: "St. Joseph", Score: 76, Trend: "up"},
		{ID: "st-george", Name: "St. George", Score: 64, Trend: "down"},
		{ID: "st-john", Name: "St. John", Score: 58, Trend: "stable"},
	}, nil
}

// Articles implements output.EnvironmentalDataSource.
func (s *StaticSource) Articles(_ context.Context) ([]domain.Article, error) {
	return []domain.Article{
		{
			ID:          "1",
			Title:       "Mapping Landslide Risk After Hurricane Maria",
			Summary:     "How CHARIM hazard maps guide rebuilding in the interior.",
			Category:    "Climate Resilience",
			Author:      "Environment Direct",
			PublishedAt: "2025-06-12",
			Tags:        []string{"landslides", "hazards"},
		},
		{
			ID:          "2",
			Title:       "Protecting the Morne Trois Pitons Watersheds",
			Summary:     "Forest cover and river health in Dominica's national park.",
			Category:    "Conservation",
			Author:      "Environment Direct",
			PublishedAt: "2025-05-28",
			Tags:        []string{"watersheds", "forests"},
		},
		{
			ID:          "3",
			Title:       "Balancing Visitors at the Boiling Lake",
			Summary:     "Trail pressure data and what it means for eco-tourism.",
			Category:    "Eco-Tourism",
			Author:      "Environment Direct",
			PublishedAt: "2025-05-02",
			Tags:        []string{"tourism"},
		},
	}, nil
}

func mockFloodRisks() []domain.FloodRisk {
	return []domain.FloodRisk{
		{
			RegionName:     "Portsmouth",
			FloodRiskLevel: domain.RiskLow,
			Details:        "Coastal area with moderate elevation changes.",
			AffectedAreas:  []string{"Lower Reach Area"},
		},
		{
			RegionName:     "Roseau South",
			FloodRiskLevel: domain.RiskModerate,
			Details:        "Urban area with some low-lying sections.",
			AffectedAreas:  []string{"Newtown", "Loubiere"},
		},
		{
			RegionName:     "Layou Valley",
			FloodRiskLevel: domain.RiskHigh,
			Details:        "Valley area with river prone to flooding.",
			AffectedAreas:  []string{"River Banks", "Lower Valley"},
		},
		{
			RegionName:     "Marigot Area",
			FloodRiskLevel: domain.RiskLow,
			Details:        "Coastal area with good drainage.",
			AffectedAreas:  []string{"Coastal Road"},
		},
	}
}

func mockEcoTourism() []domain.EcoTourismPressure {
	busy := []string{"Base popularity", "High season", "Weekend"}
	quiet := []string{"Base popularity", "Off season", "Weekday"}
	return []domain.EcoTourismPressure{
		{
			SiteID:              "boiling-lake",
			SiteName:            "Boiling Lake Trail",
			ExpectedVisitorLoad: domain.RiskHigh,
			Recommendation:      "Visit Boiling Lake Trail before 10 AM or after 3 PM for a less crowded experience.",
			ContributingFactors: append([]string(nil), busy...),
		},
		{
			SiteID:              "trafalgar-falls",
			SiteName:            "Trafalgar Falls",
			ExpectedVisitorLoad: domain.RiskHigh,
			Recommendation:      "Visit Trafalgar Falls before 10 AM or after 3 PM for a less crowded experience.",
			ContributingFactors: append([]string(nil), busy...),
		},
		{
			SiteID:              "middleham-falls",
			SiteName:            "Middleham Falls",
			ExpectedVisitorLoad: domain.RiskModerate,
			Recommendation:      "Middleham Falls should have manageable crowds. Morning visits are still recommended for the best experience.",
			ContributingFactors: append([]string(nil), quiet...),
		},
		{
			SiteID:              "emerald-pool",
			SiteName:            "Emerald Pool",
			ExpectedVisitorLoad: domain.RiskModerate,
			Recommendation:      "Emerald Pool should have manageable crowds. Morning visits are still recommended for the best experience.",
			ContributingFactors: append([]string(nil), quiet...),
		},
	}
}
