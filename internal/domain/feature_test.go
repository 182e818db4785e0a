package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestTagLayer(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{-61.37, 15.41}))
	bare := geojson.NewFeature(orb.Point{-61.38, 15.30})
	bare.Properties = nil
	fc.Append(bare)

	TagLayer(fc, "Rivers")

	for i, f := range fc.Features {
		if got := PropertyString(f.Properties, LayerNameProperty); got != "Rivers" {
			t.Errorf("feature %d layerName = %q, want %q", i, got, "Rivers")
		}
	}
}

func TestPropertyString(t *testing.T) {
	props := geojson.Properties{"name": "Layou", "count": 3}

	if got := PropertyString(props, "name"); got != "Layou" {
		t.Errorf("PropertyString(name) = %q", got)
	}
	if got := PropertyString(props, "count"); got != "" {
		t.Errorf("PropertyString(count) = %q, want empty", got)
	}
	if got := PropertyString(nil, "name"); got != "" {
		t.Errorf("PropertyString on nil = %q, want empty", got)
	}
}

func TestNewFeatureDetail(t *testing.T) {
	tests := []struct {
		name          string
		props         geojson.Properties
		limit         int
		wantTitle     string
		wantKeys      []string
		wantTruncated bool
	}{
		{
			name:      "name used as title and hidden",
			props:     geojson.Properties{"name": "Layou River", "layerName": "Rivers", "length": 12.5},
			wantTitle: "Layou River",
			wantKeys:  []string{"length"},
		},
		{
			name:      "layer name fallback",
			props:     geojson.Properties{"layerName": "Soils", "class": "clay"},
			wantTitle: "Soils",
			wantKeys:  []string{"class"},
		},
		{
			name:      "generic fallback",
			props:     geojson.Properties{},
			wantTitle: "Feature",
			wantKeys:  []string{},
		},
		{
			name:      "empty values skipped",
			props:     geojson.Properties{"a": "", "b": nil, "c": 0},
			wantTitle: "Feature",
			wantKeys:  []string{"c"},
		},
		{
			name:          "limit applied after sorting",
			props:         geojson.Properties{"d": 1, "b": 2, "a": 3, "c": 4},
			limit:         2,
			wantTitle:     "Feature",
			wantKeys:      []string{"a", "b"},
			wantTruncated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewFeatureDetail(tt.props, tt.limit)
			if d.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", d.Title, tt.wantTitle)
			}
			if d.Truncated != tt.wantTruncated {
				t.Errorf("Truncated = %v, want %v", d.Truncated, tt.wantTruncated)
			}
			if len(d.Attributes) != len(tt.wantKeys) {
				t.Fatalf("len(Attributes) = %d, want %d", len(d.Attributes), len(tt.wantKeys))
			}
			for i, k := range tt.wantKeys {
				if d.Attributes[i].Key != k {
					t.Errorf("Attributes[%d].Key = %q, want %q", i, d.Attributes[i].Key, k)
				}
			}
		})
	}
}

func TestNewFeatureDetailFormatsValues(t *testing.T) {
	d := NewFeatureDetail(geojson.Properties{"area": 12.5, "protected": true}, 0)

	want := map[string]string{"area": "12.5", "protected": "true"}
	for _, a := range d.Attributes {
		if want[a.Key] != a.Value {
			t.Errorf("%s = %q, want %q", a.Key, a.Value, want[a.Key])
		}
	}
}
