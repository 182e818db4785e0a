// Package shapefile decodes ESRI shapefiles and their dBASE attribute tables
// into GeoJSON.
package shapefile

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

// Decoder implements output.LayerDecoder for shapefiles.
type Decoder struct{}

// NewDecoder creates a new shapefile decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Format implements output.LayerDecoder.
func (d *Decoder) Format() domain.LayerFormat {
	return domain.FormatShapefile
}

// Decode implements output.LayerDecoder. The .dbf sibling is optional;
// without it features carry no attributes.
func (d *Decoder) Decode(ctx context.Context, layer domain.LayerConfig, storage output.ObjectStorage) (*geojson.FeatureCollection, error) {
	shpRC, err := storage.GetReader(ctx, layer.Source)
	if err != nil {
		return nil, err
	}

	dbfKey := domain.SidecarKey(layer.Source, ".dbf")
	dbfRC, err := storage.GetReader(ctx, dbfKey)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		dbfRC = nil
	case err != nil:
		shpRC.Close()
		return nil, err
	}

	defer shpRC.Close()
	if dbfRC != nil {
		defer dbfRC.Close()
	} else {
		dbfRC = emptyTable()
	}

	r := shp.SequentialReaderFromExt(shpRC, dbfRC)

	fc, err := Read(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &domain.DecodeError{Format: domain.FormatShapefile, Key: layer.Source, Err: err}
	}
	return fc, nil
}

// emptyTable returns a dBASE table without fields whose rows never end.
// The sequential reader requires an attribute row per shape.
func emptyTable() io.ReadCloser {
	header := make([]byte, 33)
	header[0] = 0x03
	binary.LittleEndian.PutUint16(header[8:], 33) // header length
	binary.LittleEndian.PutUint16(header[10:], 1) // record length: deletion flag only
	header[32] = 0x0d
	return io.NopCloser(io.MultiReader(bytes.NewReader(header), blankRows{}))
}

// blankRows yields undeleted one-byte records.
type blankRows struct{}

func (blankRows) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = ' '
	}
	return len(p), nil
}

// Read converts every non-null shape of r into a feature.
func Read(ctx context.Context, r shp.SequentialReader) (*geojson.FeatureCollection, error) {
	fields := r.Fields()
	fc := geojson.NewFeatureCollection()

	for r.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, shape := r.Shape()
		g := Geometry(shape)
		if g == nil {
			continue
		}

		f := geojson.NewFeature(g)
		for i, field := range fields {
			if v, ok := attribute(field, r.Attribute(i)); ok {
				f.Properties[field.String()] = v
			}
		}
		fc.Append(f)
	}

	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading shapes: %w", err)
	}
	return fc, nil
}

// attribute types a raw dBASE value. Empty values are dropped.
func attribute(field shp.Field, raw string) (any, bool) {
	v := strings.TrimSpace(strings.Trim(raw, "\x00"))
	if v == "" {
		return nil, false
	}

	switch field.Fieldtype {
	case 'N', 'F':
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n, true
		}
	case 'L':
		switch strings.ToUpper(v) {
		case "T", "Y":
			return true, true
		case "F", "N":
			return false, true
		case "?":
			return nil, false
		}
	}
	return v, true
}

// Geometry maps a shape to an orb geometry. Null and empty shapes yield nil.
// M and Z values are dropped.
func Geometry(s shp.Shape) orb.Geometry {
	switch s := s.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	case *shp.PointZ:
		return orb.Point{s.X, s.Y}
	case *shp.PointM:
		return orb.Point{s.X, s.Y}
	case *shp.MultiPoint:
		return multiPoint(s.Points)
	case *shp.MultiPointZ:
		return multiPoint(s.Points)
	case *shp.MultiPointM:
		return multiPoint(s.Points)
	case *shp.PolyLine:
		return lines(s.Parts, s.Points)
	case *shp.PolyLineZ:
		return lines(s.Parts, s.Points)
	case *shp.PolyLineM:
		return lines(s.Parts, s.Points)
	case *shp.Polygon:
		return polygons(s.Parts, s.Points)
	case *shp.PolygonZ:
		return polygons(s.Parts, s.Points)
	case *shp.PolygonM:
		return polygons(s.Parts, s.Points)
	default:
		return nil
	}
}

func multiPoint(pts []shp.Point) orb.Geometry {
	if len(pts) == 0 {
		return nil
	}
	mp := make(orb.MultiPoint, len(pts))
	for i, p := range pts {
		mp[i] = orb.Point{p.X, p.Y}
	}
	return mp
}

// split cuts the flat point array into its parts.
func split(parts []int32, pts []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(pts))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(pts) {
			continue
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range pts[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		if len(part) > 0 {
			out = append(out, part)
		}
	}
	return out
}

func lines(parts []int32, pts []shp.Point) orb.Geometry {
	segs := split(parts, pts)
	switch len(segs) {
	case 0:
		return nil
	case 1:
		return orb.LineString(segs[0])
	}
	mls := make(orb.MultiLineString, len(segs))
	for i, p := range segs {
		mls[i] = orb.LineString(p)
	}
	return mls
}

// polygons groups rings by orientation: a clockwise ring starts a polygon,
// a counter-clockwise ring is a hole of the preceding one.
func polygons(parts []int32, pts []shp.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, part := range split(parts, pts) {
		ring := orb.Ring(part)
		if len(mp) == 0 || ring.Orientation() != orb.CCW {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		last := len(mp) - 1
		mp[last] = append(mp[last], ring)
	}

	switch len(mp) {
	case 0:
		return nil
	case 1:
		return mp[0]
	}
	return mp
}
