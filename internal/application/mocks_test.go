package application

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Sentinel eastings understood by mockTransformer.
const (
	rejectX  = -999.0 // transformer rejects the coordinate
	garbageX = 999.0  // transformer accepts it but yields NaN
)

// mockTransformer keeps in-range coordinates, rejects rejectX and turns
// garbageX into NaN. Other out-of-range input is rejected.
type mockTransformer struct {
	calls atomic.Int64
}

func (m *mockTransformer) Transform(c domain.Coordinate) (domain.Coordinate, bool) {
	m.calls.Add(1)
	switch {
	case c.X == garbageX:
		return domain.NewCoordinate(math.NaN(), math.NaN()), true
	case c.X == rejectX:
		return domain.Coordinate{}, false
	case c.InWGS84Bounds():
		return c, true
	default:
		return domain.Coordinate{}, false
	}
}

func (m *mockTransformer) CacheSize() int { return 0 }

func newMockSession() output.TransformSession { return &mockTransformer{} }

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	files       map[string][]byte
	objects     []output.StorageObject
	downloadErr error
	listErr     error
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.objects, nil
}

func (m *mockStorage) Download(_ context.Context, _, _ string) error {
	return m.downloadErr
}

func (m *mockStorage) GetReader(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.files[key]
	if !ok {
		return nil, &domain.StorageError{Operation: "get", Key: key, Err: domain.ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.files[key]
	return ok, nil
}

// mockDecoder implements output.LayerDecoder for testing. Collections and
// errors are keyed by layer name.
type mockDecoder struct {
	format      domain.LayerFormat
	collections map[string]*geojson.FeatureCollection
	errs        map[string]error
	panics      map[string]string
	delay       time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	decoded     []string
}

func (m *mockDecoder) Format() domain.LayerFormat { return m.format }

func (m *mockDecoder) Decode(ctx context.Context, layer domain.LayerConfig, _ output.ObjectStorage) (*geojson.FeatureCollection, error) {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.decoded = append(m.decoded, layer.Name)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	if msg, ok := m.panics[layer.Name]; ok {
		panic(msg)
	}
	if err := m.errs[layer.Name]; err != nil {
		return nil, err
	}
	if fc, ok := m.collections[layer.Name]; ok {
		return fc, nil
	}
	return geojson.NewFeatureCollection(), nil
}

func (m *mockDecoder) peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// recordingMetrics implements output.MetricsCollector and records layer loads.
type recordingMetrics struct {
	output.NoOpMetrics

	mu        sync.Mutex
	loads     map[string]bool
	loaded    int
	fallbacks []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{loads: make(map[string]bool)}
}

func (m *recordingMetrics) IncLayerLoad(layer string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads[layer] = success
}

func (m *recordingMetrics) SetLayersLoaded(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = count
}

func (m *recordingMetrics) IncDataSourceFallback(dataset string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append(m.fallbacks, dataset)
}

// mockSource implements output.EnvironmentalDataSource for testing.
type mockSource struct {
	name       string
	err        error
	floods     []domain.FloodRisk
	sites      []domain.EcoTourismPressure
	comparison *domain.HistoricalComparison
	calls      atomic.Int64
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) FloodRisks(_ context.Context) ([]domain.FloodRisk, error) {
	m.calls.Add(1)
	return m.floods, m.err
}

func (m *mockSource) EcoTourismPressures(_ context.Context) ([]domain.EcoTourismPressure, error) {
	m.calls.Add(1)
	return m.sites, m.err
}

func (m *mockSource) HistoricalComparison(_ context.Context, id, kind string) (*domain.HistoricalComparison, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if m.comparison != nil {
		return m.comparison, nil
	}
	return &domain.HistoricalComparison{ID: id, Type: kind}, nil
}

func (m *mockSource) Predictions(_ context.Context) ([]domain.Prediction, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Prediction{{ID: "p1", Type: "flood"}}, nil
}

func (m *mockSource) Rankings(_ context.Context) ([]domain.Ranking, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Ranking{{ID: "r1", Name: "Roseau", Score: 82, Trend: "up"}}, nil
}

func (m *mockSource) Articles(_ context.Context) ([]domain.Article, error) {
	m.calls.Add(1)
	return nil, m.err
}
