package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/envmap/internal/application"
	"github.com/jobrunner/envmap/internal/config"
	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/input"
)

// mockLayerQuery implements input.LayerQuery for testing.
type mockLayerQuery struct {
	configs   []domain.LayerConfig
	report    *domain.LoadReport
	layer     *domain.LayerResult
	layerErr  error
	detail    *domain.FeatureDetail
	detailErr error
	gotIndex  int
}

func (m *mockLayerQuery) Configs() []domain.LayerConfig { return m.configs }
func (m *mockLayerQuery) Report() *domain.LoadReport    { return m.report }

func (m *mockLayerQuery) Layer(_ context.Context, _ string) (*domain.LayerResult, error) {
	return m.layer, m.layerErr
}

func (m *mockLayerQuery) Feature(_ context.Context, _ string, index int) (*domain.FeatureDetail, error) {
	m.gotIndex = index
	return m.detail, m.detailErr
}

// mockEnvironment implements input.EnvironmentQuery for testing.
type mockEnvironment struct {
	query      string
	history    domain.Dataset[*domain.HistoricalComparison]
	historyErr error
	heatmapErr error
	panicOn    string
}

func (m *mockEnvironment) FloodRisks(_ context.Context, query string) domain.Dataset[[]domain.FloodRisk] {
	if m.panicOn == "flood" {
		panic("boom")
	}
	m.query = query
	return domain.Dataset[[]domain.FloodRisk]{
		Data:   []domain.FloodRisk{{RegionName: "Roseau Valley", FloodRiskLevel: domain.RiskHigh}},
		Source: domain.SourceStatic,
		Notice: "Using mock flood risk data",
	}
}

func (m *mockEnvironment) EcoTourism(_ context.Context, query string) domain.Dataset[[]domain.EcoTourismPressure] {
	m.query = query
	return domain.Dataset[[]domain.EcoTourismPressure]{Data: []domain.EcoTourismPressure{}, Source: domain.SourceLive}
}

func (m *mockEnvironment) HistoricalComparison(_ context.Context, _, _ string) (domain.Dataset[*domain.HistoricalComparison], error) {
	return m.history, m.historyErr
}

func (m *mockEnvironment) Predictions(_ context.Context) domain.Dataset[[]domain.Prediction] {
	return domain.Dataset[[]domain.Prediction]{Data: []domain.Prediction{{ID: "p1"}}, Source: domain.SourceLive}
}

func (m *mockEnvironment) Rankings(_ context.Context) domain.Dataset[[]domain.Ranking] {
	return domain.Dataset[[]domain.Ranking]{Data: []domain.Ranking{{ID: "r1", Score: 8.2}}, Source: domain.SourceLive}
}

func (m *mockEnvironment) Articles(_ context.Context) domain.Dataset[[]domain.Article] {
	return domain.Dataset[[]domain.Article]{Data: []domain.Article{{ID: "a1"}}, Source: domain.SourceLive}
}

func (m *mockEnvironment) Heatmap(_ string) ([]domain.HeatmapPoint, error) {
	if m.heatmapErr != nil {
		return nil, m.heatmapErr
	}
	return []domain.HeatmapPoint{{Lat: 15.3, Lng: -61.38, Intensity: 0.8}}, nil
}

// mockMapQuery implements input.MapQuery for testing.
type mockMapQuery struct {
	view *domain.MapView
}

func (m *mockMapQuery) View(_ context.Context) *domain.MapView { return m.view }

// mockReloadTrigger implements input.ReloadTrigger for testing.
type mockReloadTrigger struct {
	report *domain.LoadReport
	err    error
}

func (m *mockReloadTrigger) TriggerReload(_ context.Context) (*domain.LoadReport, error) {
	return m.report, m.err
}

// mockHealthChecker implements input.HealthChecker for testing.
type mockHealthChecker struct {
	healthy bool
	ready   bool
}

func (m *mockHealthChecker) IsHealthy(_ context.Context) bool { return m.healthy }
func (m *mockHealthChecker) IsReady(_ context.Context) bool   { return m.ready }

func (m *mockHealthChecker) GetHealthDetails(_ context.Context) input.HealthDetails {
	return input.HealthDetails{
		Healthy:      m.healthy,
		Ready:        m.ready,
		LayersTotal:  2,
		LayersLoaded: 1,
		Components:   map[string]string{"storage": "local"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleReport() *domain.LoadReport {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.LineString{{-61.38, 15.30}, {-61.37, 15.31}})
	f.Properties["name"] = "Roseau River"
	fc.Append(f)

	now := time.Now()
	return &domain.LoadReport{
		Results: []domain.LayerResult{
			{Name: "Rivers", Loaded: true, Collection: fc, Total: 2, Kept: 1, Duration: 12 * time.Millisecond},
			{Name: "Roads", Err: errors.New("fetching Roads.kmz: not found")},
		},
		StartedAt:  now.Add(-time.Second),
		FinishedAt: now,
	}
}

type testDeps struct {
	layers *mockLayerQuery
	env    *mockEnvironment
	mapq   *mockMapQuery
	reload *mockReloadTrigger
	health *mockHealthChecker
}

func newTestDeps() *testDeps {
	return &testDeps{
		layers: &mockLayerQuery{
			configs: []domain.LayerConfig{
				{Name: "Rivers", Source: "Rivers.kmz", Format: domain.FormatKMZ},
				{Name: "Roads", Source: "Roads.kmz", Format: domain.FormatKMZ},
				{Name: "Parishes", Source: "parishp.shp", Format: domain.FormatShapefile},
			},
		},
		env:    &mockEnvironment{},
		mapq:   &mockMapQuery{view: &domain.MapView{Center: [2]float64{15.415, -61.371}}},
		reload: &mockReloadTrigger{},
		health: &mockHealthChecker{healthy: true, ready: true},
	}
}

func (d *testDeps) server(cfg config.ServerConfig, metrics *MetricsOptions) *Server {
	services := Services{
		Layers:      d.layers,
		Environment: d.env,
		Map:         d.mapq,
		Health:      d.health,
	}
	if d.reload != nil {
		services.Reload = d.reload
	}
	return NewServer(cfg, services, metrics, testLogger())
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		health  mockHealthChecker
		path    string
		want    int
		wantMsg string
	}{
		{"healthy", mockHealthChecker{healthy: true, ready: true}, "/health", http.StatusOK, "ok"},
		{"unhealthy", mockHealthChecker{}, "/health", http.StatusServiceUnavailable, "unhealthy"},
		{"live", mockHealthChecker{healthy: true}, "/health/live", http.StatusOK, "ok"},
		{"ready", mockHealthChecker{healthy: true, ready: true}, "/health/ready", http.StatusOK, "ok"},
		{"loading", mockHealthChecker{healthy: true}, "/health/ready", http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.health = &tt.health
			rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodGet, tt.path)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if got := decode(t, rr)["status"]; got != tt.wantMsg {
				t.Errorf("status field = %v, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestHealthDetails(t *testing.T) {
	rr := do(t, newTestDeps().server(config.ServerConfig{}, nil), http.MethodGet, "/health")
	body := decode(t, rr)

	if body["layers_total"] != float64(2) || body["layers_loaded"] != float64(1) {
		t.Errorf("layer counts = %v/%v", body["layers_loaded"], body["layers_total"])
	}
	components, _ := body["components"].(map[string]interface{})
	if components["storage"] != "local" {
		t.Errorf("components = %v", body["components"])
	}
}

func TestListLayers(t *testing.T) {
	deps := newTestDeps()
	deps.layers.report = sampleReport()

	rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodGet, "/api/v1/layers")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	body := decode(t, rr)
	if body["count"] != float64(3) || body["loaded"] != float64(1) {
		t.Errorf("count = %v, loaded = %v", body["count"], body["loaded"])
	}
	if summary, _ := body["error"].(string); !strings.Contains(summary, "Roads") {
		t.Errorf("error = %q, want summary naming Roads", summary)
	}

	layers := body["layers"].([]interface{})
	want := []struct {
		name   string
		status string
	}{
		{"Rivers", "loaded"},
		{"Roads", "failed"},
		{"Parishes", "pending"},
	}
	for i, w := range want {
		layer := layers[i].(map[string]interface{})
		if layer["name"] != w.name || layer["status"] != w.status {
			t.Errorf("layers[%d] = %v %v, want %s %s", i, layer["name"], layer["status"], w.name, w.status)
		}
	}
	if rivers := layers[0].(map[string]interface{}); rivers["features"] != float64(1) || rivers["decoded"] != float64(2) {
		t.Errorf("Rivers counts = %v/%v", rivers["features"], rivers["decoded"])
	}
}

func TestListLayersBeforeFirstLoad(t *testing.T) {
	rr := do(t, newTestDeps().server(config.ServerConfig{}, nil), http.MethodGet, "/api/v1/layers")
	body := decode(t, rr)

	if _, ok := body["loaded"]; ok {
		t.Error("loaded should be absent before the first load")
	}
	for _, l := range body["layers"].([]interface{}) {
		if l.(map[string]interface{})["status"] != "pending" {
			t.Errorf("layer = %v, want pending", l)
		}
	}
}

func TestGetLayer(t *testing.T) {
	rivers := sampleReport().Results[0]

	tests := []struct {
		name       string
		layer      *domain.LayerResult
		err        error
		wantStatus int
	}{
		{"loaded", &rivers, nil, http.StatusOK},
		{"unknown", nil, fmt.Errorf("%w: Lakes", domain.ErrLayerNotFound), http.StatusNotFound},
		{"failed", nil, fmt.Errorf("%w: 404", domain.ErrLayerNotLoaded), http.StatusFailedDependency},
		{"loading", nil, domain.ErrNotReady, http.StatusServiceUnavailable},
		{"internal", nil, errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.layers.layer = tt.layer
			deps.layers.layerErr = tt.err

			rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodGet, "/api/v1/layers/Rivers")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			if ct := rr.Header().Get("Content-Type"); ct != "application/geo+json" {
				t.Errorf("Content-Type = %q", ct)
			}
			fc, err := geojson.UnmarshalFeatureCollection(rr.Body.Bytes())
			if err != nil {
				t.Fatalf("invalid GeoJSON: %v", err)
			}
			if len(fc.Features) != 1 {
				t.Errorf("features = %d, want 1", len(fc.Features))
			}
		})
	}
}

func TestGetFeature(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"found", "/api/v1/layers/Rivers/features/3", nil, http.StatusOK},
		{"out of range", "/api/v1/layers/Rivers/features/99", fmt.Errorf("%w: Rivers[99]", domain.ErrFeatureNotFound), http.StatusNotFound},
		{"non numeric", "/api/v1/layers/Rivers/features/first", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.layers.detail = &domain.FeatureDetail{Title: "Roseau River", Layer: "Rivers"}
			deps.layers.detailErr = tt.err

			rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodGet, tt.path)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if deps.layers.gotIndex != 3 {
					t.Errorf("index = %d, want 3", deps.layers.gotIndex)
				}
				if decode(t, rr)["title"] != "Roseau River" {
					t.Errorf("body = %s", rr.Body.String())
				}
			}
		})
	}
}

func TestMap(t *testing.T) {
	deps := newTestDeps()
	deps.mapq.view.Error = "Roads: not found"

	rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodGet, "/api/v1/map")
	body := decode(t, rr)

	if body["error"] != "Roads: not found" {
		t.Errorf("error = %v", body["error"])
	}
	if center := body["center"].([]interface{}); center[0] != 15.415 {
		t.Errorf("center = %v", center)
	}
}

func TestReload(t *testing.T) {
	tests := []struct {
		name       string
		trigger    *mockReloadTrigger
		wantStatus int
	}{
		{"completed", &mockReloadTrigger{report: sampleReport()}, http.StatusOK},
		{"rate limited", &mockReloadTrigger{err: application.ErrRateLimited}, http.StatusTooManyRequests},
		{"failed", &mockReloadTrigger{err: context.Canceled}, http.StatusInternalServerError},
		{"disabled", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.reload = tt.trigger

			rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodPost, "/api/v1/reload")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}

			switch tt.wantStatus {
			case http.StatusTooManyRequests:
				if got := rr.Header().Get("Retry-After"); got != "30" {
					t.Errorf("Retry-After = %q, want 30", got)
				}
			case http.StatusOK:
				body := decode(t, rr)
				if body["loaded"] != float64(1) {
					t.Errorf("loaded = %v", body["loaded"])
				}
				if failed := body["failed"].([]interface{}); len(failed) != 1 || failed[0] != "Roads" {
					t.Errorf("failed = %v", failed)
				}
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/reload", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/v1/layers/Rivers", http.StatusMethodNotAllowed},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	s := newTestDeps().server(config.ServerConfig{}, nil)
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := do(t, s, tt.method, tt.path)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusMethodNotAllowed {
				if msg, _ := decode(t, rr)["message"].(string); !strings.Contains(msg, tt.method) {
					t.Errorf("message = %q, should name the method", msg)
				}
			}
		})
	}
}

func TestPreflightThroughRouter(t *testing.T) {
	cfg := config.ServerConfig{CORS: config.CORSConfig{AllowedOrigins: []string{"https://map.example.dm"}}}
	s := newTestDeps().server(cfg, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reload", nil)
	req.Header.Set("Origin", "https://map.example.dm")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://map.example.dm" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	// Without CORS a preflight is an unsupported method.
	rr = do(t, newTestDeps().server(config.ServerConfig{}, nil), http.MethodOptions, "/api/v1/layers")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status without CORS = %d, want 405", rr.Code)
	}
}

func TestDatasets(t *testing.T) {
	tests := []struct {
		path       string
		wantSource string
	}{
		{"/api/v1/flood-risk", "static"},
		{"/api/v1/eco-tourism", "live"},
		{"/api/v1/predictions", "live"},
		{"/api/v1/rankings", "live"},
		{"/api/v1/articles", "live"},
	}

	s := newTestDeps().server(config.ServerConfig{}, nil)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := do(t, s, http.MethodGet, tt.path)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			body := decode(t, rr)
			if body["source"] != tt.wantSource {
				t.Errorf("source = %v, want %s", body["source"], tt.wantSource)
			}
			if _, ok := body["data"].([]interface{}); !ok {
				t.Errorf("data = %v, want array", body["data"])
			}
		})
	}
}

func TestFloodRiskNotice(t *testing.T) {
	deps := newTestDeps()
	rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodGet, "/api/v1/flood-risk?q=roseau")

	if deps.env.query != "roseau" {
		t.Errorf("query = %q, want roseau", deps.env.query)
	}
	if got := decode(t, rr)["notice"]; got != "Using mock flood risk data" {
		t.Errorf("notice = %v", got)
	}
}

func TestHistoricalComparison(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"found", nil, http.StatusOK},
		{"invalid type", &domain.ValidationError{Field: "type", Message: "type must be flood-risk or eco-tourism"}, http.StatusBadRequest},
		{"unknown id", fmt.Errorf("history of x: %w", domain.ErrNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.env.history = domain.Dataset[*domain.HistoricalComparison]{
				Data:   &domain.HistoricalComparison{ID: "roseau", Type: domain.ComparisonFloodRisk},
				Source: domain.SourceLive,
			}
			deps.env.historyErr = tt.err

			rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodGet,
				"/api/v1/historical-comparison?id=roseau&type=flood-risk")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusBadRequest {
				if msg := decode(t, rr)["message"]; msg != "type must be flood-risk or eco-tourism" {
					t.Errorf("message = %v", msg)
				}
			}
		})
	}
}

func TestHeatmap(t *testing.T) {
	deps := newTestDeps()
	s := deps.server(config.ServerConfig{}, nil)

	rr := do(t, s, http.MethodGet, "/api/v1/heatmap/population")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decode(t, rr); body["kind"] != "population" || body["count"] != float64(1) {
		t.Errorf("body = %v", body)
	}

	deps.env.heatmapErr = fmt.Errorf("%w: %q", domain.ErrUnsupportedHeatmap, "noise")
	if rr := do(t, s, http.MethodGet, "/api/v1/heatmap/noise"); rr.Code != http.StatusBadRequest {
		t.Errorf("unsupported kind status = %d, want 400", rr.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	deps := newTestDeps()
	deps.env.panicOn = "flood"

	rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodGet, "/api/v1/flood-risk")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if msg := decode(t, rr)["message"]; msg != "Something went wrong while rendering the map" {
		t.Errorf("message = %v", msg)
	}
}

func TestOpenAPI(t *testing.T) {
	rr := do(t, newTestDeps().server(config.ServerConfig{}, nil), http.MethodGet, "/openapi.json")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	body := decode(t, rr)
	paths, _ := body["paths"].(map[string]interface{})
	for _, p := range []string{"/api/v1/layers", "/api/v1/layers/{name}", "/api/v1/reload", "/api/v1/heatmap/{kind}"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("OpenAPI document misses %s", p)
		}
	}
}

func TestOpenAPIDocumentsEveryRoute(t *testing.T) {
	doc, err := openAPIDocument()
	if err != nil {
		t.Fatalf("openAPIDocument() error = %v", err)
	}
	var body struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(doc, &body); err != nil {
		t.Fatal(err)
	}

	pattern := regexp.MustCompile(`\{(\w+):[^}]*\}`)
	s := newTestDeps().server(config.ServerConfig{}, nil)
	err = s.Router().Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil || !(strings.HasPrefix(tpl, "/api/") || strings.HasPrefix(tpl, "/health")) {
			return nil
		}
		if _, err := route.GetMethods(); err != nil {
			return nil // path prefix of a subrouter
		}
		if p := pattern.ReplaceAllString(tpl, "{$1}"); body.Paths[p] == nil {
			t.Errorf("route %s is not documented", p)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBuildOpenAPI(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		version string
		want    string
		wantErr bool
	}{
		{
			name:    "stamps version",
			src:     "openapi: 3.0.3\ninfo: {title: Envmap, version: 1.0.0}\npaths: {/health: {}}\n",
			version: "v1.4.2",
			want:    `"version": "1.4.2"`,
		},
		{
			name: "keeps document version",
			src:  "openapi: 3.0.3\ninfo: {title: Envmap, version: 1.0.0}\npaths: {/health: {}}\n",
			want: `"version": "1.0.0"`,
		},
		{
			name: "unquoted response codes",
			src:  "openapi: 3.1.0\ninfo: {version: 1.0.0}\npaths:\n  /health:\n    get:\n      responses:\n        200: {description: ok}\n",
			want: `"200": {`,
		},
		{name: "swagger 2", src: "swagger: '2.0'\ninfo: {version: 1.0.0}\npaths: {/health: {}}\n", wantErr: true},
		{name: "no paths", src: "openapi: 3.0.3\ninfo: {version: 1.0.0}\n", wantErr: true},
		{name: "no info", src: "openapi: 3.0.3\npaths: {/health: {}}\n", wantErr: true},
		{name: "invalid yaml", src: "openapi: [3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildOpenAPI([]byte(tt.src), tt.version)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildOpenAPI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !strings.Contains(string(got), tt.want) {
				t.Errorf("buildOpenAPI() = %s, want it to contain %s", got, tt.want)
			}
		})
	}
}

func TestFrontend(t *testing.T) {
	deps := newTestDeps()

	rr := do(t, deps.server(config.ServerConfig{FrontendEnabled: true}, nil), http.MethodGet, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "/api/v1/map") {
		t.Error("viewer page does not load the map view")
	}

	if rr := do(t, deps.server(config.ServerConfig{}, nil), http.MethodGet, "/"); rr.Code != http.StatusNotFound {
		t.Errorf("disabled frontend status = %d, want 404", rr.Code)
	}
}

func TestMetricsOptions(t *testing.T) {
	var instrumented []string
	metrics := &MetricsOptions{
		Path: "/metrics",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "envmap_layers_loaded 1\n")
		}),
		Middleware: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				instrumented = append(instrumented, r.URL.Path)
				next.ServeHTTP(w, r)
			})
		},
	}
	s := newTestDeps().server(config.ServerConfig{}, metrics)

	rr := do(t, s, http.MethodGet, "/metrics")
	if !strings.Contains(rr.Body.String(), "envmap_layers_loaded") {
		t.Errorf("metrics body = %q", rr.Body.String())
	}
	do(t, s, http.MethodGet, "/health")

	if len(instrumented) != 2 || instrumented[1] != "/health" {
		t.Errorf("instrumented = %v", instrumented)
	}
}
