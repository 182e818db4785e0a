package app

import (
	"encoding/json"
	"io"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/envmap/internal/domain"
)

// LayerReport is the JSON form of one layer result.
type LayerReport struct {
	Name       string                     `json:"name"`
	Source     string                     `json:"source"`
	Format     domain.LayerFormat         `json:"format"`
	Loaded     bool                       `json:"loaded"`
	Error      string                     `json:"error,omitempty"`
	Decoded    int                        `json:"decoded"`
	Features   int                        `json:"features"`
	DurationMS int64                      `json:"duration_ms"`
	Collection *geojson.FeatureCollection `json:"data,omitempty"`
}

// Report is the JSON form of a load report.
type Report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Loaded     int           `json:"loaded"`
	Failed     []string      `json:"failed"`
	Error      string        `json:"error,omitempty"`
	Layers     []LayerReport `json:"layers"`
}

// NewReport converts a load report. Feature collections are included only
// when withFeatures is set.
func NewReport(r *domain.LoadReport, withFeatures bool) Report {
	out := Report{
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		Loaded:     r.LoadedCount(),
		Failed:     r.Failed(),
		Error:      r.ErrorSummary(),
		Layers:     make([]LayerReport, len(r.Results)),
	}
	if out.Failed == nil {
		out.Failed = []string{}
	}

	for i, res := range r.Results {
		lr := LayerReport{
			Name:       res.Name,
			Source:     res.Config.Source,
			Format:     res.Config.Format,
			Loaded:     res.Loaded,
			Error:      res.Error(),
			Decoded:    res.Total,
			Features:   res.Kept,
			DurationMS: res.Duration.Milliseconds(),
		}
		if withFeatures && res.Loaded {
			lr.Collection = res.Collection
		}
		out.Layers[i] = lr
	}
	return out
}

// WriteReport writes the report as indented JSON.
func WriteReport(w io.Writer, r *domain.LoadReport, withFeatures bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(r, withFeatures))
}
