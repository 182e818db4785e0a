package domain

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb/geojson"
)

// Keys hidden from the feature detail panel.
var hiddenDetailKeys = map[string]bool{
	LayerNameProperty: true,
	"name":            true,
}

// DefaultDetailLimit caps the attribute rows of a feature detail.
const DefaultDetailLimit = 12

// FeatureDetail is the picking result shown for a clicked feature.
type FeatureDetail struct {
	Title       string          `json:"title"`
	Layer       string          `json:"layer"`
	Description string          `json:"description,omitempty"`
	Attributes  []AttributeView `json:"attributes"`
	Truncated   bool            `json:"truncated"`
}

// AttributeView is one key/value row of a feature detail.
type AttributeView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TagLayer sets the layerName property on every feature of the collection.
func TagLayer(fc *geojson.FeatureCollection, layer string) {
	for _, f := range fc.Features {
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties[LayerNameProperty] = layer
	}
}

// PropertyString returns a property as string, or "" when absent or not a string.
func PropertyString(props geojson.Properties, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// NewFeatureDetail builds the detail view of a feature's properties.
// Empty values and the layerName/name keys are skipped, keys are sorted,
// and at most limit rows are kept (limit <= 0 disables the cap).
func NewFeatureDetail(props geojson.Properties, limit int) FeatureDetail {
	d := FeatureDetail{
		Title:       PropertyString(props, "name"),
		Layer:       PropertyString(props, LayerNameProperty),
		Description: PropertyString(props, "description"),
		Attributes:  []AttributeView{},
	}
	if d.Title == "" {
		d.Title = d.Layer
	}
	if d.Title == "" {
		d.Title = "Feature"
	}

	keys := make([]string, 0, len(props))
	for k, v := range props {
		if hiddenDetailKeys[k] || isEmptyValue(v) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
		d.Truncated = true
	}
	for _, k := range keys {
		d.Attributes = append(d.Attributes, AttributeView{Key: k, Value: fmt.Sprint(props[k])})
	}
	return d
}

func isEmptyValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}
