package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jobrunner/envmap/internal/application"
	"github.com/jobrunner/envmap/internal/domain"
)

// retryAfterSeconds is sent with 429 responses of the reload endpoint.
var retryAfterSeconds = strconv.Itoa(int(application.ReloadCooldown.Seconds()))

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":        boolToStatus(details.Healthy),
		"ready":         details.Ready,
		"layers_total":  details.LayersTotal,
		"layers_loaded": details.LayersLoaded,
		"components":    details.Components,
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

// handleListLayers returns the configured layers with their load status.
func (s *Server) handleListLayers(w http.ResponseWriter, _ *http.Request) {
	configs := s.layers.Configs()
	report := s.layers.Report()

	layers := make([]map[string]interface{}, len(configs))
	for i, cfg := range configs {
		entry := map[string]interface{}{
			"name":        cfg.Name,
			"source":      cfg.Source,
			"format":      cfg.Format,
			"description": cfg.Description,
			"style":       cfg.Style,
			"status":      domain.StatusPending,
		}
		if report != nil {
			if res, ok := report.Result(cfg.Name); ok {
				entry["status"] = res.Status()
				entry["loaded"] = res.Loaded
				entry["features"] = res.Kept
				entry["decoded"] = res.Total
				entry["duration_ms"] = res.Duration.Milliseconds()
				if res.Err != nil {
					entry["error"] = res.Error()
				}
			}
		}
		layers[i] = entry
	}

	response := map[string]interface{}{
		"layers": layers,
		"count":  len(layers),
	}
	if report != nil {
		response["loaded"] = report.LoadedCount()
		if summary := report.ErrorSummary(); summary != "" {
			response["error"] = summary
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleGetLayer returns the cleaned features of a layer as GeoJSON.
func (s *Server) handleGetLayer(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	res, err := s.layers.Layer(r.Context(), name)
	if err != nil {
		s.handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(res.Collection)
}

// handleGetFeature returns the detail panel content of one feature.
func (s *Server) handleGetFeature(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid feature index")
		return
	}

	detail, err := s.layers.Feature(r.Context(), vars["name"], index)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, detail)
}

// handleMap returns the assembled map view.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.mapView.View(r.Context()))
}

func (s *Server) handleFloodRisk(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.environment.FloodRisks(r.Context(), r.URL.Query().Get("q")))
}

func (s *Server) handleEcoTourism(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.environment.EcoTourism(r.Context(), r.URL.Query().Get("q")))
}

// handleHistoricalComparison expects id and type query parameters.
func (s *Server) handleHistoricalComparison(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ds, err := s.environment.HistoricalComparison(r.Context(), q.Get("id"), q.Get("type"))
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.environment.Predictions(r.Context()))
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.environment.Rankings(r.Context()))
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.environment.Articles(r.Context()))
}

// handleHeatmap returns synthetic heatmap points.
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]

	points, err := s.environment.Heatmap(kind)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"kind":   kind,
		"points": points,
		"count":  len(points),
	})
}

// handleReload triggers a reload of all layers.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	report, err := s.reload.TriggerReload(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRateLimited) {
			w.Header().Set("Retry-After", retryAfterSeconds)
			s.writeError(w, http.StatusTooManyRequests, "Reload rate limit exceeded. Please wait before retrying.")
			return
		}
		s.logger.Error("reload failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Reload failed")
		return
	}

	response := map[string]interface{}{
		"status":      "completed",
		"loaded":      report.LoadedCount(),
		"failed":      report.Failed(),
		"duration_ms": report.Duration().Milliseconds(),
	}
	if summary := report.ErrorSummary(); summary != "" {
		response["error"] = summary
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleMethodNotAllowed answers requests whose path matched a route but
// whose method did not.
func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" is not allowed on "+r.URL.Path)
}

// handleOpenAPI returns the OpenAPI document.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	doc, err := openAPIDocument()
	if err != nil {
		s.logger.Error("failed to build OpenAPI document", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load OpenAPI specification")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

// handleError maps domain errors to HTTP status codes.
func (s *Server) handleError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		s.writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrLayerNotFound):
		s.writeError(w, http.StatusNotFound, "Layer not found")
	case errors.Is(err, domain.ErrFeatureNotFound):
		s.writeError(w, http.StatusNotFound, "Feature not found")
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrLayerNotLoaded):
		s.writeError(w, http.StatusFailedDependency, err.Error())
	case errors.Is(err, domain.ErrNotReady):
		s.writeError(w, http.StatusServiceUnavailable, "Layers are still loading")
	case errors.Is(err, domain.ErrUnsupported):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Request failed")
	}
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}
