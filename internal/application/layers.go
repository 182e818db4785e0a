// Package application contains the application services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

// SessionFactory creates a transformation session for one loading run.
type SessionFactory func() output.TransformSession

// LayerServiceOptions tunes layer loading.
type LayerServiceOptions struct {
	Concurrency int           // Parallel layer loads, 0 = one per layer
	Timeout     time.Duration // Per layer, 0 = none
}

// LayerService loads the configured layers and serves the latest results.
type LayerService struct {
	registry   *domain.Registry
	storage    output.ObjectStorage
	decoders   map[domain.LayerFormat]output.LayerDecoder
	newSession SessionFactory
	metrics    output.MetricsCollector
	logger     *slog.Logger
	opts       LayerServiceOptions

	// Serializes LoadAll runs
	loadMu sync.Mutex

	mu     sync.RWMutex
	report *domain.LoadReport
}

// NewLayerService creates a new layer service.
func NewLayerService(
	registry *domain.Registry,
	storage output.ObjectStorage,
	decoders []output.LayerDecoder,
	newSession SessionFactory,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	opts LayerServiceOptions,
) *LayerService {
	byFormat := make(map[domain.LayerFormat]output.LayerDecoder, len(decoders))
	for _, d := range decoders {
		byFormat[d.Format()] = d
	}
	return &LayerService{
		registry:   registry,
		storage:    storage,
		decoders:   byFormat,
		newSession: newSession,
		metrics:    metrics,
		logger:     logger,
		opts:       opts,
	}
}

// LoadAll loads every configured layer concurrently. A failing layer never
// affects its siblings; its result carries the error instead. The report is
// kept for serving unless ctx was canceled.
func (s *LayerService) LoadAll(ctx context.Context) (*domain.LoadReport, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	layers := s.registry.All()
	report := &domain.LoadReport{
		Results:   make([]domain.LayerResult, len(layers)),
		StartedAt: time.Now(),
	}

	session := s.newSession()
	cleaner := NewCleaner(session, s.logger)

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}
	for i, layer := range layers {
		g.Go(func() error {
			report.Results[i] = s.loadLayer(gctx, layer, cleaner)
			return nil
		})
	}
	_ = g.Wait()
	report.FinishedAt = time.Now()

	s.metrics.SetLayersLoaded(report.LoadedCount())
	s.metrics.SetTransformCacheSize(session.CacheSize())

	if err := ctx.Err(); err != nil {
		return report, err
	}

	s.mu.Lock()
	s.report = report
	s.mu.Unlock()

	s.logger.Info(fmt.Sprintf("loaded %d/%d layers", report.LoadedCount(), len(layers)),
		"failed", report.Failed(),
		"cached_coordinates", session.CacheSize(),
		"duration", report.Duration(),
	)
	if summary := report.ErrorSummary(); summary != "" {
		s.logger.Warn("some layers failed to load", "errors", summary)
	}

	return report, nil
}

// loadLayer runs fetch, decode, tag and clean for one layer.
func (s *LayerService) loadLayer(ctx context.Context, layer domain.LayerConfig, cleaner *Cleaner) domain.LayerResult {
	start := time.Now()
	res := domain.LayerResult{Name: layer.Name, Config: layer}

	fail := func(err error) domain.LayerResult {
		res.Err = &domain.LayerError{Layer: layer.Name, Source: layer.Source, Err: err}
		res.Duration = time.Since(start)
		s.metrics.IncLayerLoad(layer.Name, false)
		s.metrics.ObserveLayerLoadDuration(layer.Name, res.Duration)
		s.logger.Warn("failed to load layer",
			"layer", layer.Name,
			"source", layer.Source,
			"error", err,
		)
		return res
	}

	decoder, ok := s.decoders[layer.Format]
	if !ok {
		return fail(fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, layer.Format))
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	s.logger.Debug("loading layer", "layer", layer.Name, "source", layer.Source, "format", layer.Format)

	fc, err := s.decode(ctx, decoder, layer)
	if err != nil {
		return fail(err)
	}
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}

	domain.TagLayer(fc, layer.Name)
	cleaned := cleaner.CleanCollection(layer.Name, fc)

	res.Collection = cleaned
	res.Loaded = true
	res.Total = len(fc.Features)
	res.Kept = len(cleaned.Features)
	res.Duration = time.Since(start)

	s.metrics.IncLayerLoad(layer.Name, true)
	s.metrics.ObserveLayerLoadDuration(layer.Name, res.Duration)
	s.metrics.SetLayerFeatures(layer.Name, res.Total, res.Kept)

	return res
}

// decode runs the decoder and turns a panic into an error of this layer.
func (s *LayerService) decode(ctx context.Context, decoder output.LayerDecoder, layer domain.LayerConfig) (fc *geojson.FeatureCollection, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("layer decoder panicked",
				"layer", layer.Name,
				"format", layer.Format,
				"panic", r,
			)
			fc, err = nil, fmt.Errorf("%w: decoder panic: %v", domain.ErrInternal, r)
		}
	}()
	return decoder.Decode(ctx, layer, s.storage)
}

// Registry returns the layer registry.
func (s *LayerService) Registry() *domain.Registry {
	return s.registry
}

// Configs returns the configured layers in registry order.
func (s *LayerService) Configs() []domain.LayerConfig {
	return s.registry.All()
}

// Report returns the latest load report, or nil before the first load.
func (s *LayerService) Report() *domain.LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Layer returns the load result of a layer. Unknown names yield
// ErrLayerNotFound; failed layers yield their result and ErrLayerNotLoaded.
func (s *LayerService) Layer(_ context.Context, name string) (*domain.LayerResult, error) {
	if _, ok := s.registry.Get(name); !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, name)
	}

	report := s.Report()
	if report == nil {
		return nil, domain.ErrNotReady
	}

	res, ok := report.Result(name)
	if !ok {
		return nil, domain.ErrNotReady
	}
	if !res.Loaded {
		return &res, fmt.Errorf("%w: %s", domain.ErrLayerNotLoaded, res.Error())
	}
	return &res, nil
}

// Feature returns the detail view of the feature at index in a loaded layer.
func (s *LayerService) Feature(ctx context.Context, name string, index int) (*domain.FeatureDetail, error) {
	res, err := s.Layer(ctx, name)
	if err != nil {
		return nil, err
	}

	features := res.Collection.Features
	if index < 0 || index >= len(features) {
		return nil, fmt.Errorf("%w: %s[%d]", domain.ErrFeatureNotFound, name, index)
	}

	detail := domain.NewFeatureDetail(features[index].Properties, domain.DefaultDetailLimit)
	return &detail, nil
}

// Overlays returns the styled overlays of all loaded layers in registry order.
func (s *LayerService) Overlays() []domain.Overlay {
	report := s.Report()
	if report == nil {
		return []domain.Overlay{}
	}

	overlays := make([]domain.Overlay, 0, len(report.Results))
	for _, res := range report.Results {
		if !res.Loaded || res.Collection == nil {
			continue
		}
		overlays = append(overlays, domain.Overlay{
			Name:        res.Name,
			Description: res.Config.Description,
			Style:       res.Config.Style,
			Collection:  res.Collection,
		})
	}
	return overlays
}
