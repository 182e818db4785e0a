package domain

import (
	"math"
	"math/rand/v2"
)

// HeatmapKind selects a synthetic heatmap.
type HeatmapKind string

// Heatmap kinds.
const (
	HeatmapPopulation HeatmapKind = "population"
	HeatmapPollution  HeatmapKind = "pollution"
	HeatmapClimate    HeatmapKind = "climate"
)

// HeatmapPointsPerAnchor is the number of points scattered around each anchor.
const HeatmapPointsPerAnchor = 50

// kmPerDegree approximates the length of one degree of latitude.
const kmPerDegree = 111.0

// HeatmapPoint is a weighted position; intensity is in [0, 1].
type HeatmapPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
}

// HeatmapAnchor is the centre and radius of one point cloud.
type HeatmapAnchor struct {
	Lat    float64
	Lng    float64
	Radius float64
}

var heatmapAnchors = map[HeatmapKind][]HeatmapAnchor{
	HeatmapPopulation: {
		{Lat: 15.3, Lng: -61.38, Radius: 0.1},   // Roseau
		{Lat: 15.58, Lng: -61.46, Radius: 0.08}, // Portsmouth
		{Lat: 15.45, Lng: -61.35, Radius: 0.05}, // Central
	},
	HeatmapPollution: {
		{Lat: 15.3, Lng: -61.38, Radius: 0.12},
		{Lat: 15.58, Lng: -61.46, Radius: 0.1},
		{Lat: 15.35, Lng: -61.4, Radius: 0.08}, // Industrial
	},
	HeatmapClimate: {
		{Lat: 15.4, Lng: -61.37, Radius: 0.15},
		{Lat: 15.3, Lng: -61.3, Radius: 0.12},  // East coast
		{Lat: 15.5, Lng: -61.45, Radius: 0.1}, // Northwest
	},
}

// HeatmapKinds returns the supported kinds in display order.
func HeatmapKinds() []HeatmapKind {
	return []HeatmapKind{HeatmapPopulation, HeatmapPollution, HeatmapClimate}
}

// ParseHeatmapKind validates a heatmap kind name.
func ParseHeatmapKind(s string) (HeatmapKind, error) {
	k := HeatmapKind(s)
	if _, ok := heatmapAnchors[k]; !ok {
		return "", ErrUnsupportedHeatmap
	}
	return k, nil
}

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// HeatmapGenerator scatters synthetic points around fixed anchors.
// The output is illustrative only.
type HeatmapGenerator struct {
	rnd RandomSource
}

// NewHeatmapGenerator creates a generator. A nil source uses the global one.
func NewHeatmapGenerator(rnd RandomSource) *HeatmapGenerator {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &HeatmapGenerator{rnd: rnd}
}

// Generate returns HeatmapPointsPerAnchor points per anchor of the kind.
func (g *HeatmapGenerator) Generate(kind HeatmapKind) ([]HeatmapPoint, error) {
	anchors, ok := heatmapAnchors[kind]
	if !ok {
		return nil, ErrUnsupportedHeatmap
	}
	points := make([]HeatmapPoint, 0, len(anchors)*HeatmapPointsPerAnchor)
	for _, a := range anchors {
		points = append(points, g.scatter(kind, a)...)
	}
	return points, nil
}

func (g *HeatmapGenerator) scatter(kind HeatmapKind, a HeatmapAnchor) []HeatmapPoint {
	points := make([]HeatmapPoint, HeatmapPointsPerAnchor)
	cosLat := math.Cos(a.Lat * math.Pi / 180)
	for i := range points {
		angle := g.rnd.Float64() * 2 * math.Pi
		d := g.rnd.Float64() * a.Radius
		falloff := 1 - d/a.Radius

		var intensity float64
		switch kind {
		case HeatmapPopulation:
			intensity = falloff + g.rnd.Float64()*0.3
		case HeatmapPollution:
			intensity = 0.3 + g.rnd.Float64()*0.7*falloff
		case HeatmapClimate:
			intensity = 0.2 + g.rnd.Float64()*0.8*falloff
		}

		points[i] = HeatmapPoint{
			Lat:       a.Lat + d*math.Cos(angle)/kmPerDegree,
			Lng:       a.Lng + d*math.Sin(angle)/(kmPerDegree*cosLat),
			Intensity: math.Min(1, math.Max(0, intensity)),
		}
	}
	return points
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
