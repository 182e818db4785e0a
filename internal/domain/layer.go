package domain

import (
	"fmt"
	"path"
	"strings"
)

// LayerFormat identifies how a layer asset is decoded.
type LayerFormat string

// Supported layer formats.
const (
	FormatKMZ        LayerFormat = "kmz"
	FormatShapefile  LayerFormat = "shapefile"
	FormatGeoJSON    LayerFormat = "geojson"
	FormatGeoPackage LayerFormat = "geopackage"
)

// FormatFromKey guesses the layer format from an asset key extension.
func FormatFromKey(key string) (LayerFormat, bool) {
	switch strings.ToLower(path.Ext(key)) {
	case ".kmz", ".kml":
		return FormatKMZ, true
	case ".shp":
		return FormatShapefile, true
	case ".geojson", ".json":
		return FormatGeoJSON, true
	case ".gpkg":
		return FormatGeoPackage, true
	default:
		return "", false
	}
}

// assetExtensions lists the files that make up layer assets, sidecars
// included.
var assetExtensions = map[string]bool{
	".kmz":     true,
	".kml":     true,
	".shp":     true,
	".dbf":     true,
	".shx":     true,
	".prj":     true,
	".geojson": true,
	".json":    true,
	".gpkg":    true,
}

// IsLayerAsset reports whether key names a layer asset or sidecar file.
func IsLayerAsset(key string) bool {
	return assetExtensions[strings.ToLower(path.Ext(key))]
}

// Style holds the rendering attributes of a layer overlay.
type Style struct {
	Color       string  `json:"color" mapstructure:"color"`
	FillColor   string  `json:"fillColor" mapstructure:"fill_color"`
	Weight      float64 `json:"weight" mapstructure:"weight"`
	FillOpacity float64 `json:"fillOpacity" mapstructure:"fill_opacity"`
	Opacity     float64 `json:"opacity" mapstructure:"opacity"`
}

// DefaultStyle is applied to features whose layer has no style.
var DefaultStyle = Style{
	Color:       "#3388ff",
	FillColor:   "#3388ff",
	Weight:      2,
	FillOpacity: 0.2,
	Opacity:     1,
}

// WithDefaults fills unset style fields from DefaultStyle.
func (s Style) WithDefaults() Style {
	if s.Color == "" {
		s.Color = DefaultStyle.Color
	}
	if s.FillColor == "" {
		s.FillColor = s.Color
	}
	if s.Weight == 0 {
		s.Weight = DefaultStyle.Weight
	}
	if s.FillOpacity == 0 {
		s.FillOpacity = DefaultStyle.FillOpacity
	}
	if s.Opacity == 0 {
		s.Opacity = DefaultStyle.Opacity
	}
	return s
}

// LayerConfig describes one map layer. Configurations are static once the
// registry has been built.
type LayerConfig struct {
	Name        string      `json:"name" mapstructure:"name"`
	Source      string      `json:"source" mapstructure:"source"`
	Format      LayerFormat `json:"format" mapstructure:"format"`
	Style       Style       `json:"style" mapstructure:"style"`
	Description string      `json:"description" mapstructure:"description"`
	Table       string      `json:"table,omitempty" mapstructure:"table"` // GeoPackage feature table
}

// Validate checks that the configuration is usable.
func (c LayerConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ConfigError{Field: "layers.name", Message: "layer name is required"}
	}
	if strings.TrimSpace(c.Source) == "" {
		return &ConfigError{Field: "layers.source", Message: fmt.Sprintf("layer %q has no source", c.Name)}
	}
	switch c.Format {
	case FormatKMZ, FormatShapefile, FormatGeoJSON, FormatGeoPackage:
		return nil
	default:
		return &ConfigError{Field: "layers.format", Message: fmt.Sprintf("layer %q has unknown format %q", c.Name, c.Format)}
	}
}

// Normalize fills the format from the source extension and applies default styles.
func (c LayerConfig) Normalize() LayerConfig {
	if c.Format == "" {
		if f, ok := FormatFromKey(c.Source); ok {
			c.Format = f
		}
	}
	c.Style = c.Style.WithDefaults()
	return c
}

// SidecarKey returns the key of a sibling file with the given extension,
// e.g. the .dbf next to a .shp.
func SidecarKey(key, ext string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + ext
}

// LayerStatus represents the load state of a layer.
type LayerStatus string

const (
	StatusPending LayerStatus = "pending"
	StatusLoaded  LayerStatus = "loaded"
	StatusFailed  LayerStatus = "failed"
)
