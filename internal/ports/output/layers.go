package output

import (
	"context"

	"github.com/paulmach/orb/geojson"

	"github.com/jobrunner/envmap/internal/domain"
)

// CoordinateTransformer normalizes raw coordinates to WGS84.
type CoordinateTransformer interface {
	// Transform returns the WGS84 coordinate, or false when the input
	// cannot be projected and must be dropped.
	Transform(coord domain.Coordinate) (domain.Coordinate, bool)
}

// LayerDecoder turns a stored layer asset into raw GeoJSON features.
type LayerDecoder interface {
	// Format returns the layer format handled by the decoder.
	Format() domain.LayerFormat

	// Decode fetches the layer source from storage and decodes it.
	Decode(ctx context.Context, layer domain.LayerConfig, storage ObjectStorage) (*geojson.FeatureCollection, error)
}

// TransformSession is a transformer scoped to one loading run. Its cache
// lives as long as the session.
type TransformSession interface {
	CoordinateTransformer

	// CacheSize returns the number of memoized coordinates.
	CacheSize() int
}
