package domain

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// LayerNameProperty is the feature property that records the owning layer.
const LayerNameProperty = "layerName"

const shapefileRoot = "Kevy_Shapefiles-20250619T204234Z-1-001/Kevy_Shapefiles/"

// DefaultLayers returns the built-in layer set for Dominica.
func DefaultLayers() []LayerConfig {
	return []LayerConfig{
		{
			Name: "Coast", Source: "Coast.kmz", Format: FormatKMZ,
			Style:       Style{Color: "#0077be", FillColor: "#0077be", Weight: 2, FillOpacity: 0.2, Opacity: 1},
			Description: "Coastline of Dominica",
		},
		{
			Name: "Soils", Source: "Soils.kmz", Format: FormatKMZ,
			Style:       Style{Color: "#8B4513", FillColor: "#CD853F", Weight: 1, FillOpacity: 0.3, Opacity: 1},
			Description: "Soil classification",
		},
		{
			Name: "Rivers", Source: "Rivers.kmz", Format: FormatKMZ,
			Style:       Style{Color: "#00BFFF", FillColor: "#00BFFF", Weight: 2, FillOpacity: 0.5, Opacity: 1},
			Description: "River network",
		},
		{
			Name: "Roads", Source: "Roads.kmz", Format: FormatKMZ,
			Style:       Style{Color: "#696969", FillColor: "#A9A9A9", Weight: 3, FillOpacity: 0.7, Opacity: 1},
			Description: "Road network",
		},
		{
			Name: "Coastline", Source: shapefileRoot + "coastp.shp", Format: FormatShapefile,
			Style:       Style{Color: "#0077be", FillColor: "#0077be", Weight: 2, FillOpacity: 0.3, Opacity: 1},
			Description: "Dominica Coastline",
		},
		{
			Name: "Parishes", Source: shapefileRoot + "parishp.shp", Format: FormatShapefile,
			Style:       Style{Color: "#8B4513", FillColor: "#CD853F", Weight: 1, FillOpacity: 0.2, Opacity: 1},
			Description: "Parish Boundaries",
		},
		{
			Name: "Protected Areas", Source: shapefileRoot + "prtareap.shp", Format: FormatShapefile,
			Style:       Style{Color: "#228B22", FillColor: "#90EE90", Weight: 2, FillOpacity: 0.4, Opacity: 1},
			Description: "Protected Conservation Areas",
		},
		{
			Name: "Watersheds", Source: shapefileRoot + "Dominica_watershed/Dominica_Watershed.shp", Format: FormatShapefile,
			Style:       Style{Color: "#00BFFF", FillColor: "#87CEEB", Weight: 2, FillOpacity: 0.3, Opacity: 1},
			Description: "Water Catchment Areas",
		},
		{
			Name: "Landslide Risk", Source: shapefileRoot + "CHARIM_Hazards/Landslide_Susceptibility.shp", Format: FormatShapefile,
			Style:       Style{Color: "#FF4500", FillColor: "#FFA500", Weight: 1, FillOpacity: 0.5, Opacity: 1},
			Description: "Landslide Susceptibility Zones",
		},
	}
}

// Registry is the ordered, immutable set of configured layers.
type Registry struct {
	layers []LayerConfig
	index  map[string]int
}

// NewRegistry validates the configurations and builds a registry.
// Layer names must be unique.
func NewRegistry(configs []LayerConfig) (*Registry, error) {
	r := &Registry{
		layers: make([]LayerConfig, 0, len(configs)),
		index:  make(map[string]int, len(configs)),
	}
	for _, c := range configs {
		c = c.Normalize()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.index[c.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLayer, c.Name)
		}
		r.index[c.Name] = len(r.layers)
		r.layers = append(r.layers, c)
	}
	return r, nil
}

// Get returns a layer configuration by name.
func (r *Registry) Get(name string) (LayerConfig, bool) {
	i, ok := r.index[name]
	if !ok {
		return LayerConfig{}, false
	}
	return r.layers[i], true
}

// IndexOf returns the position of a layer in registry order.
func (r *Registry) IndexOf(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// All returns the configurations in registry order.
func (r *Registry) All() []LayerConfig {
	out := make([]LayerConfig, len(r.layers))
	copy(out, r.layers)
	return out
}

// Len returns the number of configured layers.
func (r *Registry) Len() int {
	return len(r.layers)
}

// StyleFor resolves the style of a feature through its layerName property.
// Unknown layers get DefaultStyle.
func (r *Registry) StyleFor(props geojson.Properties) Style {
	name, _ := props[LayerNameProperty].(string)
	if c, ok := r.Get(name); ok {
		return c.Style
	}
	return DefaultStyle
}
