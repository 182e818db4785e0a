package domain

import "strings"

// RiskLevel grades flood risk and visitor load.
type RiskLevel string

// Risk levels used by the prediction API.
const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "Very High"
)

// Severity orders risk levels, zero for unknown values.
func (l RiskLevel) Severity() int {
	switch RiskLevel(strings.TrimSpace(string(l))) {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	case RiskVeryHigh:
		return 4
	default:
		return 0
	}
}

// FloodRisk is the flood risk prediction for a region.
type FloodRisk struct {
	RegionName     string    `json:"regionName"`
	FloodRiskLevel RiskLevel `json:"floodRiskLevel"`
	Details        string    `json:"details"`
	AffectedAreas  []string  `json:"affectedAreas"`
}

// EcoTourismPressure is the expected visitor load at a tourism site.
type EcoTourismPressure struct {
	SiteID              string    `json:"siteId"`
	SiteName            string    `json:"siteName"`
	ExpectedVisitorLoad RiskLevel `json:"expectedVisitorLoad"`
	Recommendation      string    `json:"recommendation"`
	ContributingFactors []string  `json:"contributingFactors"`
}

// Comparison types accepted by the historical comparison endpoint.
const (
	ComparisonFloodRisk  = "flood-risk"
	ComparisonEcoTourism = "eco-tourism"
)

// HistoricalPoint is one dated observation in a historical comparison.
type HistoricalPoint struct {
	Date                string    `json:"date"`
	FloodRiskLevel      RiskLevel `json:"floodRiskLevel,omitempty"`
	ExpectedVisitorLoad RiskLevel `json:"expectedVisitorLoad,omitempty"`
	ConfidenceScore     float64   `json:"confidenceScore"`
}

// TrendInfo summarizes the direction of a historical series.
type TrendInfo struct {
	Direction   string  `json:"direction"`
	Magnitude   float64 `json:"magnitude"`
	Description string  `json:"description"`
}

// HistoricalComparison compares the current prediction with past ones.
type HistoricalComparison struct {
	ID                  string            `json:"id"`
	Type                string            `json:"type"`
	FloodRiskLevel      RiskLevel         `json:"floodRiskLevel,omitempty"`
	Details             string            `json:"details,omitempty"`
	AffectedAreas       []string          `json:"affectedAreas,omitempty"`
	SiteName            string            `json:"siteName,omitempty"`
	ExpectedVisitorLoad RiskLevel         `json:"expectedVisitorLoad,omitempty"`
	Recommendation      string            `json:"recommendation,omitempty"`
	ContributingFactors []string          `json:"contributingFactors,omitempty"`
	HistoricalData      []HistoricalPoint `json:"historicalData"`
	TrendInfo           TrendInfo         `json:"trendInfo"`
}

// ColorTheme carries display hints for a prediction card.
type ColorTheme struct {
	Bg     string `json:"bg,omitempty"`
	Text   string `json:"text,omitempty"`
	Border string `json:"border,omitempty"`
}

// Prediction is an environmental forecast summary.
type Prediction struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Location   string      `json:"location"`
	Timeframe  string      `json:"timeframe"`
	Prediction string      `json:"prediction"`
	Details    string      `json:"details"`
	Confidence string      `json:"confidence"`
	IconName   string      `json:"iconName,omitempty"`
	ColorTheme *ColorTheme `json:"colorTheme,omitempty"`
}

// Ranking is a region's environmental score.
type Ranking struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Trend string  `json:"trend"` // up, down or stable
}

// Article is a published story teaser.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Category    string   `json:"category"`
	Author      string   `json:"author"`
	PublishedAt string   `json:"publishedAt"`
	Tags        []string `json:"tags,omitempty"`
}

// FilterFloodRisks keeps records whose region name contains the query,
// ignoring case. An empty query returns the input unchanged.
func FilterFloodRisks(records []FloodRisk, query string) []FloodRisk {
	if query == "" {
		return records
	}
	q := strings.ToLower(query)
	out := make([]FloodRisk, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.RegionName), q) {
			out = append(out, r)
		}
	}
	return out
}

// FilterEcoTourism keeps records whose site name contains the query,
// ignoring case. An empty query returns the input unchanged.
func FilterEcoTourism(records []EcoTourismPressure, query string) []EcoTourismPressure {
	if query == "" {
		return records
	}
	q := strings.ToLower(query)
	out := make([]EcoTourismPressure, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.SiteName), q) {
			out = append(out, r)
		}
	}
	return out
}

var regionPositions = map[string]Coordinate{
	"Portsmouth":   {X: -61.4667, Y: 15.5833},
	"Roseau South": {X: -61.3833, Y: 15.2833},
	"Layou Valley": {X: -61.4167, Y: 15.3833},
	"Marigot Area": {X: -61.2833, Y: 15.5333},
}

var sitePositions = map[string]Coordinate{
	"boiling-lake":    {X: -61.2833, Y: 15.3167},
	"trafalgar-falls": {X: -61.3333, Y: 15.3167},
	"middleham-falls": {X: -61.3667, Y: 15.3500},
	"emerald-pool":    {X: -61.3000, Y: 15.4000},
}

// DominicaCenter is the default marker position.
var DominicaCenter = Coordinate{X: DominicaLng, Y: DominicaLat}

// RegionPosition returns the marker position of a flood risk region.
func RegionPosition(regionName string) Coordinate {
	if c, ok := regionPositions[regionName]; ok {
		return c
	}
	return DominicaCenter
}

// SitePosition returns the marker position of a tourism site.
func SitePosition(siteID string) Coordinate {
	if c, ok := sitePositions[siteID]; ok {
		return c
	}
	return DominicaCenter
}

// Data source names reported with every dataset.
const (
	SourceLive   = "live"
	SourceStatic = "static"
)

// Dataset wraps environmental records with their provenance. Notice is set
// when mock data was served.
type Dataset[T any] struct {
	Data   T      `json:"data"`
	Source string `json:"source"`
	Notice string `json:"notice,omitempty"`
}
