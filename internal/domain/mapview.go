package domain

import "github.com/paulmach/orb/geojson"

// Overlay is one togglable styled layer of the map.
type Overlay struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Style       Style                      `json:"style"`
	Collection  *geojson.FeatureCollection `json:"data"`
}

// Marker is a positioned environmental record.
type Marker struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Level RiskLevel `json:"level"`
	Lat   float64   `json:"lat"`
	Lng   float64   `json:"lng"`
}

// MapView is everything the render surface needs to draw the map.
type MapView struct {
	Center         [2]float64 `json:"center"` // lat, lng
	Overlays       []Overlay  `json:"overlays"`
	FloodMarkers   []Marker   `json:"floodMarkers"`
	TourismMarkers []Marker   `json:"tourismMarkers"`
	Error          string     `json:"error,omitempty"`
	Notice         string     `json:"notice,omitempty"`
}

// FloodMarkers positions flood risk records on the map.
func FloodMarkers(records []FloodRisk) []Marker {
	out := make([]Marker, 0, len(records))
	for _, r := range records {
		pos := RegionPosition(r.RegionName)
		out = append(out, Marker{ID: r.RegionName, Label: r.RegionName, Level: r.FloodRiskLevel, Lat: pos.Y, Lng: pos.X})
	}
	return out
}

// TourismMarkers positions eco-tourism records on the map.
func TourismMarkers(records []EcoTourismPressure) []Marker {
	out := make([]Marker, 0, len(records))
	for _, r := range records {
		pos := SitePosition(r.SiteID)
		out = append(out, Marker{ID: r.SiteID, Label: r.SiteName, Level: r.ExpectedVisitorLoad, Lat: pos.Y, Lng: pos.X})
	}
	return out
}
