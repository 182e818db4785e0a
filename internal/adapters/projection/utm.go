// Package projection converts projected layer coordinates to WGS84.
package projection

import (
	UTM "github.com/im7mortal/UTM"

	"github.com/jobrunner/envmap/internal/domain"
)

// Projector creates transformation sessions for one UTM zone.
type Projector struct {
	zone     int
	northern bool
}

// NewProjector creates a projector for a UTM zone. Dominica lies in zone 20N.
func NewProjector(zone int, northern bool) *Projector {
	if zone <= 0 {
		zone = domain.UTMZone20
	}
	return &Projector{zone: zone, northern: northern}
}

// NewSession returns a transformer with a fresh cache. One session spans a
// single layer loading run.
func (p *Projector) NewSession() *Transformer {
	return &Transformer{zone: p.zone, northern: p.northern, cache: NewCache()}
}

// Transformer normalizes coordinates to WGS84. Positions already inside the
// geographic range are returned unchanged; anything else is treated as a
// UTM easting/northing. It implements output.CoordinateTransformer.
type Transformer struct {
	zone     int
	northern bool
	cache    *Cache
}

// Transform returns the WGS84 position of c. The second result is false when
// the coordinate cannot be projected and should be dropped.
func (t *Transformer) Transform(c domain.Coordinate) (domain.Coordinate, bool) {
	if !c.IsFinite() {
		return domain.Coordinate{}, false
	}
	if c.InWGS84Bounds() {
		return c, true
	}

	if v, ok := t.cache.Get(c.X, c.Y); ok {
		return withHeight(v, c), true
	}

	lat, lon, err := UTM.ToLatLon(c.X, c.Y, t.zone, "", t.northern)
	if err != nil {
		return domain.Coordinate{}, false
	}
	v := domain.NewCoordinate(lon, lat)
	if !v.InWGS84Bounds() {
		return domain.Coordinate{}, false
	}

	t.cache.Put(c.X, c.Y, v)
	return withHeight(v, c), true
}

// Stats returns cache statistics of the session.
func (t *Transformer) Stats() CacheStats {
	return t.cache.Stats()
}

func withHeight(v, src domain.Coordinate) domain.Coordinate {
	v.Z, v.HasZ = src.Z, src.HasZ
	return v
}

// CacheSize returns the number of memoized coordinates.
func (t *Transformer) CacheSize() int {
	return t.cache.Len()
}
