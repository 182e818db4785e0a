// Package http provides the HTTP router and handlers.
package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jobrunner/envmap/internal/config"
	"github.com/jobrunner/envmap/internal/ports/input"
)

const apiPrefix = "/api/v1"

// Services bundles the primary ports served over HTTP. Reload may be nil.
type Services struct {
	Layers      input.LayerQuery
	Environment input.EnvironmentQuery
	Map         input.MapQuery
	Reload      input.ReloadTrigger
	Health      input.HealthChecker
}

// MetricsOptions exposes a metrics endpoint and request instrumentation.
type MetricsOptions struct {
	Path       string
	Handler    http.Handler
	Middleware mux.MiddlewareFunc
}

// Server routes HTTP requests to the application services.
type Server struct {
	router      *mux.Router
	layers      input.LayerQuery
	environment input.EnvironmentQuery
	mapView     input.MapQuery
	reload      input.ReloadTrigger
	health      input.HealthChecker
	metrics     *MetricsOptions
	logger      *slog.Logger
	config      config.ServerConfig
}

// NewServer creates the router. metrics may be nil.
func NewServer(cfg config.ServerConfig, services Services, metrics *MetricsOptions, logger *slog.Logger) *Server {
	s := &Server{
		layers:      services.Layers,
		environment: services.Environment,
		mapView:     services.Map,
		reload:      services.Reload,
		health:      services.Health,
		metrics:     metrics,
		logger:      logger,
		config:      cfg,
	}

	s.router = s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	// Add middleware
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if s.metrics != nil && s.metrics.Middleware != nil {
		r.Use(s.metrics.Middleware)
	}

	// Add CORS middleware if configured
	if s.config.CORS.Enabled() {
		r.Use(s.corsMiddleware)
	}

	// Health endpoints
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/live", s.handleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.handleReadiness).Methods(http.MethodGet)

	// API routes sit on the root router: subrouter routes share a prefix
	// matcher that hides method mismatches. Routes do not list OPTIONS, so
	// CORS preflights arrive as method mismatches too.
	methodNotAllowed := http.Handler(http.HandlerFunc(s.handleMethodNotAllowed))
	if s.config.CORS.Enabled() {
		methodNotAllowed = s.corsMiddleware(methodNotAllowed)
	}
	r.MethodNotAllowedHandler = methodNotAllowed

	// Map layers
	r.HandleFunc(apiPrefix+"/layers", s.handleListLayers).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/layers/{name}", s.handleGetLayer).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/layers/{name}/features/{index:[0-9]+}", s.handleGetFeature).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/map", s.handleMap).Methods(http.MethodGet)

	if s.reload != nil {
		r.HandleFunc(apiPrefix+"/reload", s.handleReload).Methods(http.MethodPost)
	}

	// Environmental datasets
	r.HandleFunc(apiPrefix+"/flood-risk", s.handleFloodRisk).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/eco-tourism", s.handleEcoTourism).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/historical-comparison", s.handleHistoricalComparison).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/heatmap/{kind}", s.handleHeatmap).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/predictions", s.handlePredictions).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/rankings", s.handleRankings).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/articles", s.handleArticles).Methods(http.MethodGet)

	// OpenAPI spec
	r.HandleFunc("/openapi.json", s.handleOpenAPI).Methods(http.MethodGet)

	if s.metrics != nil && s.metrics.Handler != nil {
		r.Handle(s.metrics.Path, s.metrics.Handler).Methods(http.MethodGet)
	}

	// Map viewer
	if s.config.FrontendEnabled {
		r.HandleFunc("/", s.handleFrontend).Methods(http.MethodGet)
	}

	return r
}

// Router returns the mux router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// loggingMiddleware logs incoming requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoveryMiddleware turns handler panics into a static 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				s.writeError(w, http.StatusInternalServerError, "Something went wrong while rendering the map")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
