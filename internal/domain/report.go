package domain

import (
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
)

// LayerResult is the outcome of loading one layer.
type LayerResult struct {
	Name       string
	Config     LayerConfig
	Collection *geojson.FeatureCollection // nil when Loaded is false
	Loaded     bool
	Err        error
	Total      int // features decoded
	Kept       int // features surviving the cleaner
	Duration   time.Duration
}

// Status returns the load status of the result.
func (r LayerResult) Status() LayerStatus {
	if r.Loaded {
		return StatusLoaded
	}
	if r.Err != nil {
		return StatusFailed
	}
	return StatusPending
}

// Error returns the failure message or an empty string.
func (r LayerResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// LayerCollection pairs a layer name with its cleaned features.
type LayerCollection struct {
	Name       string                     `json:"name"`
	Collection *geojson.FeatureCollection `json:"data"`
}

// LoadReport holds per-layer results in registry order.
type LoadReport struct {
	Results    []LayerResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns the names of layers that did not load.
func (r *LoadReport) Failed() []string {
	var names []string
	for _, res := range r.Results {
		if !res.Loaded {
			names = append(names, res.Name)
		}
	}
	return names
}

// LoadedCount returns the number of layers that loaded.
func (r *LoadReport) LoadedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Loaded {
			n++
		}
	}
	return n
}

// ErrorSummary joins the failure messages of all failed layers with "; ".
// Each message starts with the layer name.
func (r *LoadReport) ErrorSummary() string {
	var parts []string
	for _, res := range r.Results {
		if res.Loaded || res.Err == nil {
			continue
		}
		msg := res.Err.Error()
		if !strings.HasPrefix(msg, res.Name+": ") {
			msg = res.Name + ": " + msg
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

// Collections returns the collections of loaded layers in registry order.
func (r *LoadReport) Collections() []LayerCollection {
	out := make([]LayerCollection, 0, len(r.Results))
	for _, res := range r.Results {
		if !res.Loaded || res.Collection == nil {
			continue
		}
		out = append(out, LayerCollection{Name: res.Name, Collection: res.Collection})
	}
	return out
}

// Result returns the result for a layer by name.
func (r *LoadReport) Result(name string) (LayerResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return LayerResult{}, false
}

// Duration returns the wall time of the load.
func (r *LoadReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
