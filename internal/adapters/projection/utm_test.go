package projection

import (
	"math"
	"sync"
	"testing"

	"github.com/jobrunner/envmap/internal/domain"
)

func newTestTransformer() *Transformer {
	return NewProjector(domain.UTMZone20, true).NewSession()
}

func TestTransformIdentityInRange(t *testing.T) {
	tr := newTestTransformer()

	tests := []struct {
		name  string
		coord domain.Coordinate
	}{
		{"roseau", domain.NewCoordinate(-61.3870, 15.3010)},
		{"with height", domain.NewCoordinateZ(-61.37, 15.41, 420)},
		{"origin", domain.NewCoordinate(0, 0)},
		{"upper corner", domain.NewCoordinate(180, 90)},
		{"lower corner", domain.NewCoordinate(-180, -90)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tr.Transform(tt.coord)
			if !ok {
				t.Fatal("in-range coordinate should be accepted")
			}
			if got != tt.coord {
				t.Errorf("Transform() = %+v, want %+v", got, tt.coord)
			}
		})
	}

	if tr.Stats().Size != 0 {
		t.Error("in-range coordinates should not be cached")
	}
}

func TestTransformOutOfRangeStaysInWGS84(t *testing.T) {
	tr := newTestTransformer()

	inputs := []domain.Coordinate{
		domain.NewCoordinate(675000, 1705000),
		domain.NewCoordinate(300000, 1700000),
		domain.NewCoordinate(500000, 0),
		domain.NewCoordinate(999999, 9999999),
		domain.NewCoordinate(100000, 10000000),
		domain.NewCoordinate(200, 100),
		domain.NewCoordinate(-500, 20),
		domain.NewCoordinate(50000, 1700000),
		domain.NewCoordinate(675000, 20000000),
	}

	for _, in := range inputs {
		got, ok := tr.Transform(in)
		if !ok {
			continue
		}
		if !got.InWGS84Bounds() {
			t.Errorf("Transform(%v) = %v, outside WGS84 bounds", in, got)
		}
	}
}

func TestTransformUTMToDominica(t *testing.T) {
	tr := newTestTransformer()

	tests := []struct {
		name    string
		in      domain.Coordinate
		wantLat float64
		wantLng float64
	}{
		{"central", domain.NewCoordinate(675000, 1705000), 15.4160, -61.3692},
		{"south west", domain.NewCoordinate(660000, 1700000), 15.3718, -61.5093},
		{"north east", domain.NewCoordinate(690000, 1720000), 15.5505, -61.2283},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tr.Transform(tt.in)
			if !ok {
				t.Fatalf("Transform(%v) rejected", tt.in)
			}
			if math.Abs(got.Y-tt.wantLat) > 1e-3 || math.Abs(got.X-tt.wantLng) > 1e-3 {
				t.Errorf("Transform(%v) = %.5f,%.5f, want %.4f,%.4f", tt.in, got.Y, got.X, tt.wantLat, tt.wantLng)
			}
			if !domain.DominicaExtent.Contains(got) {
				t.Errorf("Transform(%v) = %v, outside Dominica", tt.in, got)
			}
		})
	}
}

func TestTransformPreservesHeight(t *testing.T) {
	tr := newTestTransformer()

	got, ok := tr.Transform(domain.NewCoordinateZ(675000, 1705000, 1447))
	if !ok {
		t.Fatal("coordinate rejected")
	}
	if !got.HasZ || got.Z != 1447 {
		t.Errorf("height lost: %+v", got)
	}

	// A cached pair must not leak the height of an earlier lookup.
	flat, _ := tr.Transform(domain.NewCoordinate(675000, 1705000))
	if flat.HasZ || flat.Z != 0 {
		t.Errorf("cached result carries height: %+v", flat)
	}
}

func TestTransformRejects(t *testing.T) {
	tr := newTestTransformer()

	tests := []struct {
		name  string
		coord domain.Coordinate
	}{
		{"nan", domain.NewCoordinate(math.NaN(), 15)},
		{"inf", domain.NewCoordinate(math.Inf(1), 1705000)},
		{"easting too small", domain.NewCoordinate(50000, 1700000)},
		{"easting too large", domain.NewCoordinate(1500000, 1700000)},
		{"northing too large", domain.NewCoordinate(675000, 20000000)},
		{"negative northing", domain.NewCoordinate(675000, -5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := tr.Transform(tt.coord); ok {
				t.Errorf("Transform(%v) = %v, want rejection", tt.coord, got)
			}
		})
	}

	if tr.Stats().Size != 0 {
		t.Errorf("failures should not be cached, size = %d", tr.Stats().Size)
	}
}

func TestTransformCache(t *testing.T) {
	tr := newTestTransformer()
	in := domain.NewCoordinate(675000, 1705000)

	first, _ := tr.Transform(in)
	second, _ := tr.Transform(in)

	if first != second {
		t.Errorf("cached result differs: %v vs %v", first, second)
	}

	stats := tr.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, size 1", stats)
	}
}

func TestNewSessionFreshCache(t *testing.T) {
	p := NewProjector(domain.UTMZone20, true)

	a := p.NewSession()
	a.Transform(domain.NewCoordinate(675000, 1705000))

	b := p.NewSession()
	if b.Stats().Size != 0 {
		t.Error("new session should start with an empty cache")
	}
	if a.Stats().Size != 1 {
		t.Error("first session cache should be untouched")
	}
}

func TestNewProjectorDefaultsZone(t *testing.T) {
	if p := NewProjector(0, true); p.zone != domain.UTMZone20 {
		t.Errorf("zone = %d, want %d", p.zone, domain.UTMZone20)
	}
}

func TestTransformConcurrent(t *testing.T) {
	tr := newTestTransformer()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c := domain.NewCoordinate(660000+float64(j*100), 1700000+float64(i*1000))
				if got, ok := tr.Transform(c); ok && !got.InWGS84Bounds() {
					t.Errorf("Transform(%v) out of bounds", c)
				}
			}
		}(i)
	}
	wg.Wait()

	if got := tr.Stats().Size; got != 800 {
		t.Errorf("cache size = %d, want 800", got)
	}
}

func TestCacheStats(t *testing.T) {
	c := NewCache()

	if _, ok := c.Get(1, 2); ok {
		t.Error("empty cache should miss")
	}
	c.Put(1, 2, domain.NewCoordinate(-61, 15))
	if v, ok := c.Get(1, 2); !ok || v.X != -61 {
		t.Errorf("Get() = %v, %v", v, ok)
	}

	want := CacheStats{Hits: 1, Misses: 1, Size: 1}
	if got := c.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}
