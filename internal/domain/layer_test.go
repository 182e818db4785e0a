package domain

import (
	"errors"
	"testing"

	"github.com/paulmach/orb/geojson"
)

func TestFormatFromKey(t *testing.T) {
	tests := []struct {
		key    string
		want   LayerFormat
		wantOK bool
	}{
		{"Coast.kmz", FormatKMZ, true},
		{"dir/Roads.KMZ", FormatKMZ, true},
		{"doc.kml", FormatKMZ, true},
		{"Kevy_Shapefiles/coastp.shp", FormatShapefile, true},
		{"geojson/coast.geojson", FormatGeoJSON, true},
		{"parishes.json", FormatGeoJSON, true},
		{"dominica.gpkg", FormatGeoPackage, true},
		{"readme.txt", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := FormatFromKey(tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FormatFromKey(%q) = %q, %v, want %q, %v", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsLayerAsset(t *testing.T) {
	for _, key := range []string{"Coast.kmz", "a/b/parishp.DBF", "parishp.shx", "parishp.prj", "x.geojson", "x.gpkg"} {
		if !IsLayerAsset(key) {
			t.Errorf("IsLayerAsset(%q) = false, want true", key)
		}
	}
	for _, key := range []string{"index.html", "notes.txt", "parishp", ".DS_Store"} {
		if IsLayerAsset(key) {
			t.Errorf("IsLayerAsset(%q) = true, want false", key)
		}
	}
}

func TestStyleWithDefaults(t *testing.T) {
	s := Style{Color: "#00BFFF"}.WithDefaults()

	if s.FillColor != "#00BFFF" {
		t.Errorf("FillColor = %q, want stroke color", s.FillColor)
	}
	if s.Weight != DefaultStyle.Weight || s.FillOpacity != DefaultStyle.FillOpacity || s.Opacity != DefaultStyle.Opacity {
		t.Errorf("defaults not applied: %+v", s)
	}

	if got := (Style{}).WithDefaults(); got != DefaultStyle {
		t.Errorf("empty style = %+v, want DefaultStyle", got)
	}
}

func TestLayerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LayerConfig
		wantErr bool
	}{
		{"valid", LayerConfig{Name: "Coast", Source: "Coast.kmz", Format: FormatKMZ}, false},
		{"missing name", LayerConfig{Source: "Coast.kmz", Format: FormatKMZ}, true},
		{"missing source", LayerConfig{Name: "Coast", Format: FormatKMZ}, true},
		{"unknown format", LayerConfig{Name: "Coast", Source: "Coast.txt", Format: "txt"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error should wrap ErrInvalidInput: %v", err)
			}
		})
	}
}

func TestLayerConfigNormalize(t *testing.T) {
	c := LayerConfig{Name: "Parishes", Source: "parishp.shp"}.Normalize()

	if c.Format != FormatShapefile {
		t.Errorf("Format = %q, want %q", c.Format, FormatShapefile)
	}
	if c.Style != DefaultStyle {
		t.Errorf("Style = %+v, want DefaultStyle", c.Style)
	}
}

func TestSidecarKey(t *testing.T) {
	if got := SidecarKey("a/b/parishp.shp", ".dbf"); got != "a/b/parishp.dbf" {
		t.Errorf("SidecarKey = %q", got)
	}
}

func TestDefaultLayers(t *testing.T) {
	layers := DefaultLayers()

	reg, err := NewRegistry(layers)
	if err != nil {
		t.Fatalf("default layers should build a registry: %v", err)
	}
	if reg.Len() != 9 {
		t.Errorf("Len() = %d, want 9", reg.Len())
	}

	kmz, shp := 0, 0
	for _, l := range reg.All() {
		switch l.Format {
		case FormatKMZ:
			kmz++
		case FormatShapefile:
			shp++
		}
	}
	if kmz != 4 || shp != 5 {
		t.Errorf("kmz=%d shapefile=%d, want 4 and 5", kmz, shp)
	}

	roads, ok := reg.Get("Roads")
	if !ok {
		t.Fatal("Roads layer missing")
	}
	if roads.Style.Color != "#696969" || roads.Style.Weight != 3 || roads.Style.FillOpacity != 0.7 {
		t.Errorf("Roads style = %+v", roads.Style)
	}
}

func TestNewRegistryDuplicate(t *testing.T) {
	_, err := NewRegistry([]LayerConfig{
		{Name: "Coast", Source: "Coast.kmz"},
		{Name: "Coast", Source: "coastp.shp"},
	})
	if !errors.Is(err, ErrDuplicateLayer) {
		t.Errorf("expected ErrDuplicateLayer, got %v", err)
	}
}

func TestNewRegistryInvalid(t *testing.T) {
	_, err := NewRegistry([]LayerConfig{{Name: "Notes", Source: "notes.txt"}})

	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRegistryOrderAndLookup(t *testing.T) {
	reg, err := NewRegistry([]LayerConfig{
		{Name: "B", Source: "b.kmz"},
		{Name: "A", Source: "a.geojson"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	all := reg.All()
	if all[0].Name != "B" || all[1].Name != "A" {
		t.Errorf("order = %s, %s; want B, A", all[0].Name, all[1].Name)
	}
	if i, ok := reg.IndexOf("A"); !ok || i != 1 {
		t.Errorf("IndexOf(A) = %d, %v", i, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(missing) should be false")
	}

	all[0].Name = "mutated"
	if reg.All()[0].Name != "B" {
		t.Error("All() should return a copy")
	}
}

func TestRegistryStyleFor(t *testing.T) {
	reg, _ := NewRegistry(DefaultLayers())

	rivers := reg.StyleFor(geojson.Properties{LayerNameProperty: "Rivers"})
	if rivers.Color != "#00BFFF" || rivers.FillOpacity != 0.5 {
		t.Errorf("Rivers style = %+v", rivers)
	}

	if got := reg.StyleFor(geojson.Properties{LayerNameProperty: "Unknown"}); got != DefaultStyle {
		t.Errorf("unknown layer style = %+v, want DefaultStyle", got)
	}
	if got := reg.StyleFor(nil); got != DefaultStyle {
		t.Errorf("nil properties style = %+v, want DefaultStyle", got)
	}
}
