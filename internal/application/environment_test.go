package application

import (
	"context"
	"errors"
	"testing"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

var staticFloods = []domain.FloodRisk{
	{RegionName: "Portsmouth", FloodRiskLevel: domain.RiskLow},
	{RegionName: "Roseau South", FloodRiskLevel: domain.RiskModerate},
}

var staticSites = []domain.EcoTourismPressure{
	{SiteID: "boiling-lake", SiteName: "Boiling Lake Trail", ExpectedVisitorLoad: domain.RiskHigh},
	{SiteID: "emerald-pool", SiteName: "Emerald Pool", ExpectedVisitorLoad: domain.RiskModerate},
}

func newTestEnvironment(live output.EnvironmentalDataSource) (*EnvironmentService, *recordingMetrics) {
	metrics := newRecordingMetrics()
	static := &mockSource{name: domain.SourceStatic, floods: staticFloods, sites: staticSites}
	return NewEnvironmentService(live, static, nil, metrics, testLogger()), metrics
}

func TestFloodRisksLive(t *testing.T) {
	live := &mockSource{name: domain.SourceLive, floods: []domain.FloodRisk{{RegionName: "Castle Bruce", FloodRiskLevel: domain.RiskHigh}}}
	svc, metrics := newTestEnvironment(live)

	ds := svc.FloodRisks(context.Background(), "")

	if ds.Source != domain.SourceLive || ds.Notice != "" {
		t.Errorf("Source/Notice = %q/%q, want live without notice", ds.Source, ds.Notice)
	}
	if len(ds.Data) != 1 || ds.Data[0].RegionName != "Castle Bruce" {
		t.Errorf("Data = %+v", ds.Data)
	}
	if len(metrics.fallbacks) != 0 {
		t.Errorf("unexpected fallbacks: %v", metrics.fallbacks)
	}
}

func TestFloodRisksFallback(t *testing.T) {
	live := &mockSource{name: domain.SourceLive, err: errors.New("connection refused")}
	svc, metrics := newTestEnvironment(live)

	ds := svc.FloodRisks(context.Background(), "")

	if ds.Source != domain.SourceStatic {
		t.Errorf("Source = %q, want static", ds.Source)
	}
	if ds.Notice != "Using mock flood risk data" {
		t.Errorf("Notice = %q", ds.Notice)
	}
	if len(ds.Data) != len(staticFloods) {
		t.Errorf("len(Data) = %d, want %d", len(ds.Data), len(staticFloods))
	}
	if len(metrics.fallbacks) != 1 || metrics.fallbacks[0] != datasetFloodRisk {
		t.Errorf("fallbacks = %v", metrics.fallbacks)
	}
}

func TestStaticModeSkipsLive(t *testing.T) {
	svc, metrics := newTestEnvironment(nil)

	ds := svc.EcoTourism(context.Background(), "")

	if ds.Source != domain.SourceStatic || ds.Notice != "Using mock eco-tourism data" {
		t.Errorf("Source/Notice = %q/%q", ds.Source, ds.Notice)
	}
	if len(metrics.fallbacks) != 0 {
		t.Error("static mode should not count fallbacks")
	}
}

func TestEnvironmentFilters(t *testing.T) {
	svc, _ := newTestEnvironment(nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		floodQ    string
		siteQ     string
		wantFlood int
		wantSites int
	}{
		{"empty filter returns everything", "", "", 2, 2},
		{"case insensitive match", "roseau", "LAKE", 1, 1},
		{"no match returns empty", "Soufriere", "Champagne", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			floods := svc.FloodRisks(ctx, tt.floodQ)
			sites := svc.EcoTourism(ctx, tt.siteQ)

			if floods.Data == nil || sites.Data == nil {
				t.Fatal("filtered data should never be nil")
			}
			if len(floods.Data) != tt.wantFlood {
				t.Errorf("flood len = %d, want %d", len(floods.Data), tt.wantFlood)
			}
			if len(sites.Data) != tt.wantSites {
				t.Errorf("sites len = %d, want %d", len(sites.Data), tt.wantSites)
			}
		})
	}
}

func TestHistoricalComparisonValidation(t *testing.T) {
	svc, _ := newTestEnvironment(nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		id    string
		kind  string
		field string
	}{
		{"missing id", "", domain.ComparisonFloodRisk, "id"},
		{"unknown type", "Portsmouth", "wildfire", "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HistoricalComparison(ctx, tt.id, tt.kind)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}

	ds, err := svc.HistoricalComparison(ctx, "Portsmouth", domain.ComparisonFloodRisk)
	if err != nil {
		t.Fatalf("HistoricalComparison() error = %v", err)
	}
	if ds.Data.ID != "Portsmouth" || ds.Notice != "Using mock historical comparison data" {
		t.Errorf("dataset = %+v", ds)
	}
}

func TestListsNeverNil(t *testing.T) {
	live := &mockSource{name: domain.SourceLive, err: errors.New("timeout")}
	svc, _ := newTestEnvironment(live)
	ctx := context.Background()

	if ds := svc.Articles(ctx); ds.Data == nil {
		t.Error("Articles() data should not be nil")
	}
	if ds := svc.Predictions(ctx); len(ds.Data) != 1 || ds.Notice == "" {
		t.Errorf("Predictions() = %+v", ds)
	}
	if ds := svc.Rankings(ctx); len(ds.Data) != 1 {
		t.Errorf("Rankings() = %+v", ds)
	}
}

func TestHeatmap(t *testing.T) {
	svc, _ := newTestEnvironment(nil)

	points, err := svc.Heatmap("population")
	if err != nil || len(points) != 3*domain.HeatmapPointsPerAnchor {
		t.Errorf("Heatmap(population) = %d points, %v", len(points), err)
	}
	if _, err := svc.Heatmap("noise"); !errors.Is(err, domain.ErrUnsupportedHeatmap) {
		t.Errorf("Heatmap(noise) error = %v", err)
	}
}

func TestJoinNotices(t *testing.T) {
	got := JoinNotices("Using mock flood risk data", "", "Using mock eco-tourism data")
	if got != "Using mock flood risk data; Using mock eco-tourism data" {
		t.Errorf("JoinNotices() = %q", got)
	}
	if JoinNotices("", "") != "" {
		t.Error("JoinNotices of empty notices should be empty")
	}
}
