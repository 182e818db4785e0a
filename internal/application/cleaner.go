package application

import (
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

// Cleaner normalizes feature geometries to WGS84 and drops features whose
// coordinates cannot be used.
type Cleaner struct {
	transformer output.CoordinateTransformer
	logger      *slog.Logger
}

// NewCleaner creates a cleaner around a transformation session.
func NewCleaner(transformer output.CoordinateTransformer, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		transformer: transformer,
		logger:      logger,
	}
}

// CleanGeometry transforms every leaf coordinate of g. Leaves the transformer
// rejects are removed from their parent; emptied parents are kept. Only the
// first remaining leaf is range checked, so a geometry with a valid first
// coordinate survives as a whole. Collection members are cleaned one by one:
// an invalid first member rejects the collection, later invalid members are
// removed. Bounds are rejected.
func (c *Cleaner) CleanGeometry(g orb.Geometry) (orb.Geometry, bool) {
	switch g := g.(type) {
	case nil:
		return nil, false
	case orb.Point:
		p, ok := c.point(g)
		if !ok {
			return nil, false
		}
		return p, validPoint(p)
	case orb.MultiPoint:
		out := orb.MultiPoint(c.points(g))
		return out, len(out) > 0 && validPoint(out[0])
	case orb.LineString:
		out := orb.LineString(c.points(g))
		return out, len(out) > 0 && validPoint(out[0])
	case orb.Ring:
		out := orb.Ring(c.points(g))
		return out, len(out) > 0 && validPoint(out[0])
	case orb.Polygon:
		out := c.polygon(g)
		return out, len(out) > 0 && len(out[0]) > 0 && validPoint(out[0][0])
	case orb.MultiLineString:
		out := make(orb.MultiLineString, 0, len(g))
		for _, ls := range g {
			out = append(out, orb.LineString(c.points(ls)))
		}
		return out, len(out) > 0 && len(out[0]) > 0 && validPoint(out[0][0])
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, 0, len(g))
		for _, p := range g {
			out = append(out, c.polygon(p))
		}
		return out, len(out) > 0 && len(out[0]) > 0 && len(out[0][0]) > 0 && validPoint(out[0][0][0])
	case orb.Collection:
		out := make(orb.Collection, 0, len(g))
		for i, member := range g {
			cm, ok := c.CleanGeometry(member)
			if !ok {
				if i == 0 {
					return nil, false
				}
				continue
			}
			out = append(out, cm)
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}

// CleanCollection returns a new collection holding the cleaned surviving
// features of fc. The input is left untouched.
func (c *Cleaner) CleanCollection(layer string, fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	start := time.Now()
	out := geojson.NewFeatureCollection()
	if fc == nil {
		return out
	}

	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		g, ok := c.CleanGeometry(f.Geometry)
		if !ok {
			continue
		}
		cleaned := *f
		cleaned.Geometry = g
		cleaned.Properties = f.Properties.Clone()
		out.Append(&cleaned)
	}

	c.logger.Info("layer cleaned",
		"layer", layer,
		"total", len(fc.Features),
		"kept", len(out.Features),
		"duration", time.Since(start),
	)

	return out
}

func (c *Cleaner) point(p orb.Point) (orb.Point, bool) {
	out, ok := c.transformer.Transform(domain.NewCoordinate(p[0], p[1]))
	if !ok {
		return orb.Point{}, false
	}
	return orb.Point{out.X, out.Y}, true
}

func (c *Cleaner) points(in []orb.Point) []orb.Point {
	out := make([]orb.Point, 0, len(in))
	for _, p := range in {
		if tp, ok := c.point(p); ok {
			out = append(out, tp)
		}
	}
	return out
}

func (c *Cleaner) polygon(in orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, 0, len(in))
	for _, r := range in {
		out = append(out, orb.Ring(c.points(r)))
	}
	return out
}

func validPoint(p orb.Point) bool {
	return domain.NewCoordinate(p[0], p[1]).InWGS84Bounds()
}
