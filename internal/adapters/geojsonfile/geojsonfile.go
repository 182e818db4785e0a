// Package geojsonfile decodes stored GeoJSON documents.
package geojsonfile

import (
	"context"
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/envmap/internal/domain"
	"github.com/jobrunner/envmap/internal/ports/output"
)

// Decoder implements output.LayerDecoder for GeoJSON sources.
type Decoder struct{}

// NewDecoder creates a new GeoJSON decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Format implements output.LayerDecoder.
func (d *Decoder) Format() domain.LayerFormat {
	return domain.FormatGeoJSON
}

// Decode implements output.LayerDecoder. A document holding a single
// feature or a bare geometry is wrapped into a collection.
func (d *Decoder) Decode(ctx context.Context, layer domain.LayerConfig, storage output.ObjectStorage) (*geojson.FeatureCollection, error) {
	rc, err := storage.GetReader(ctx, layer.Source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", layer.Source, err)
	}

	fc, err := Parse(data)
	if err != nil {
		return nil, &domain.DecodeError{Format: domain.FormatGeoJSON, Key: layer.Source, Err: err}
	}
	return fc, nil
}

// Parse decodes a FeatureCollection, Feature or Geometry document.
func Parse(data []byte) (*geojson.FeatureCollection, error) {
	fc, fcErr := geojson.UnmarshalFeatureCollection(data)
	if fcErr == nil && fc.Type == "FeatureCollection" {
		return fc, nil
	}

	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Type == "Feature" && f.Geometry != nil {
		out := geojson.NewFeatureCollection()
		return out.Append(f), nil
	}

	if g, err := geojson.UnmarshalGeometry(data); err == nil && g.Geometry() != nil {
		out := geojson.NewFeatureCollection()
		return out.Append(geojson.NewFeature(g.Geometry())), nil
	}

	if fcErr != nil {
		return nil, fcErr
	}
	return nil, fmt.Errorf("unsupported geojson type %q", fc.Type)
}
