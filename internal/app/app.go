// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jobrunner/envmap/internal/adapters/envapi"
	"github.com/jobrunner/envmap/internal/adapters/geojsonfile"
	"github.com/jobrunner/envmap/internal/adapters/geopackage"
	httpAdapter "github.com/jobrunner/envmap/internal/adapters/http"
	"github.com/jobrunner/envmap/internal/adapters/kmz"
	"github.com/jobrunner/envmap/internal/adapters/metrics"
	"github.com/jobrunner/envmap/internal/adapters/projection"
	"github.com/jobrunner/envmap/internal/adapters/shapefile"
	"github.com/jobrunner/envmap/internal/adapters/storage"
	tlsAdapter "github.com/jobrunner/envmap/internal/adapters/tls"
	"github.com/jobrunner/envmap/internal/adapters/watcher"
	"github.com/jobrunner/envmap/internal/application"
	"github.com/jobrunner/envmap/internal/config"
	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Storage       output.ObjectStorage
	Layers        *application.LayerService
	Environment   *application.EnvironmentService
	MapService    *application.MapService
	ReloadService *application.ReloadService
	HealthService *application.HealthService
	HTTPServer    *httpAdapter.Server
	Listener      *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector

	// Initial layer load running in the background
	mu         sync.Mutex
	stopped    bool
	loadCancel context.CancelFunc
	loadWG     sync.WaitGroup
}

// New creates and initializes the server application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app, err := NewLoader(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var metricsCollector output.MetricsCollector = &output.NoOpMetrics{}
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	}

	// Environmental data
	var live output.EnvironmentalDataSource
	if cfg.API.Mode == config.APIModeLive {
		live = envapi.NewLiveSource(envapi.LiveConfig{
			BaseURL: cfg.API.URL,
			Timeout: cfg.API.Timeout,
		})
	}
	app.Environment = application.NewEnvironmentService(
		live,
		envapi.NewStaticSource(),
		nil,
		metricsCollector,
		logger,
	)

	app.MapService = application.NewMapService(app.Layers, app.Environment)
	app.ReloadService = application.NewReloadService(app.Layers, cfg.Layers.ReloadInterval, logger)
	app.HealthService = application.NewHealthService(app.Layers, cfg.API.Mode)

	var metricsOpts *httpAdapter.MetricsOptions
	if app.Metrics != nil {
		metricsOpts = &httpAdapter.MetricsOptions{
			Path:       cfg.Metrics.Path,
			Handler:    metrics.Handler(),
			Middleware: app.Metrics.Middleware,
		}
	}

	app.HTTPServer = httpAdapter.NewServer(
		cfg.Server,
		httpAdapter.Services{
			Layers:      app.Layers,
			Environment: app.Environment,
			Map:         app.MapService,
			Reload:      app.ReloadService,
			Health:      app.HealthService,
		},
		metricsOpts,
		logger,
	)

	listener, err := tlsAdapter.NewServer(
		tlsAdapter.Config{
			Enabled:  cfg.TLS.Enabled,
			Domains:  cfg.TLS.Domains,
			Email:    cfg.TLS.Email,
			CacheDir: cfg.TLS.CacheDir,
			Staging:  cfg.TLS.Staging,
			DNS: tlsAdapter.DNSConfig{
				SubscriptionID:    cfg.TLS.DNS.SubscriptionID,
				ResourceGroupName: cfg.TLS.DNS.ResourceGroupName,
				ClientID:          cfg.TLS.DNS.ClientID,
			},
		},
		app.HTTPServer.Router(),
		tlsAdapter.Timeouts{
			Read:  cfg.Server.ReadTimeout,
			Write: cfg.Server.WriteTimeout,
			Idle:  cfg.Server.IdleTimeout,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("initializing listener: %w", err)
	}
	app.Listener = listener

	// Initialize file watcher for hot-reload
	if cfg.Storage.Type == "local" && cfg.Watch.Enabled {
		w, err := watcher.New(
			watcher.Config{
				Paths:    []string{cfg.Storage.LocalPath},
				Debounce: cfg.Watch.Debounce,
			},
			app.handleFileEvents,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// NewLoader creates an application with storage and layer loading only, as
// used by the one-shot commands.
func NewLoader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("envmap", nil)
	}

	var metricsCollector output.MetricsCollector = &output.NoOpMetrics{}
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	}

	registry, err := cfg.Layers.Registry()
	if err != nil {
		return nil, fmt.Errorf("building layer registry: %w", err)
	}

	store, err := initStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	app.Storage = storage.NewInstrumentedStorage(store, metricsCollector)

	projector := projection.NewProjector(cfg.Projection.UTMZone, cfg.Projection.Northern)

	app.Layers = application.NewLayerService(
		registry,
		app.Storage,
		decoders(cfg, logger),
		func() output.TransformSession { return projector.NewSession() },
		metricsCollector,
		logger,
		application.LayerServiceOptions{
			Concurrency: cfg.Layers.Concurrency,
			Timeout:     cfg.Layers.Timeout,
		},
	)

	return app, nil
}

// decoders returns one decoder per supported layer format.
func decoders(cfg *config.Config, logger *slog.Logger) []output.LayerDecoder {
	return []output.LayerDecoder{
		kmz.NewDecoder(),
		shapefile.NewDecoder(),
		geojsonfile.NewDecoder(),
		geopackage.NewDecoder(cfg.Layers.TempDir, logger),
	}
}

// Start serves HTTP until Shutdown. The initial layer load runs in the
// background; the service reports ready once it completes.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	loadCtx, cancel := context.WithCancel(ctx)
	a.loadCancel = cancel
	a.loadWG.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.loadWG.Done()
		a.initialLoad(loadCtx)
	}()

	return a.Listener.ListenAndServe(a.Config.Server.Address())
}

func (a *App) initialLoad(ctx context.Context) {
	report, err := a.Layers.LoadAll(ctx)
	if err != nil {
		a.Logger.Warn("initial layer load aborted", "error", err)
		return
	}
	if summary := report.ErrorSummary(); summary != "" {
		a.Logger.Warn("some layers failed to load", "error", summary)
	}

	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	a.ReloadService.Start(ctx)
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	a.mu.Lock()
	a.stopped = true
	if a.loadCancel != nil {
		a.loadCancel()
	}
	a.mu.Unlock()
	a.loadWG.Wait()

	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	if a.ReloadService != nil {
		a.ReloadService.Stop()
	}

	if a.Listener != nil {
		if err := a.Listener.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", "error", err)
			return err
		}
	}

	return nil
}

// handleFileEvents reloads all layers after local assets changed.
func (a *App) handleFileEvents(ctx context.Context, events []watcher.Event) error {
	for _, e := range events {
		a.Logger.Info("file event", "path", e.Path, "operation", e.Operation.String())
	}

	report, err := a.ReloadService.Reload(ctx)
	if err != nil {
		return err
	}
	if summary := report.ErrorSummary(); summary != "" {
		a.Logger.Warn("some layers failed to reload", "error", summary)
	}
	return nil
}

// initStorage initializes the appropriate storage adapter.
func initStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch output.StorageType(cfg.Type) {
	case output.StorageTypeLocal:
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case output.StorageTypeS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case output.StorageTypeAzure:
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case output.StorageTypeHTTP:
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, &domain.ConfigError{Field: "storage.type", Message: fmt.Sprintf("unknown storage type: %s", cfg.Type)}
	}
}
