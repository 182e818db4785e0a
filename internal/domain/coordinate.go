// Package domain contains the core business entities and value objects.
package domain

import (
	"fmt"
	"math"
)

// Coordinate represents a position with optional height.
type Coordinate struct {
	X    float64 // Longitude or Easting
	Y    float64 // Latitude or Northing
	Z    float64 // Height (optional)
	HasZ bool
}

// NewCoordinate creates a planar coordinate.
func NewCoordinate(x, y float64) Coordinate {
	return Coordinate{X: x, Y: y}
}

// NewCoordinateZ creates a coordinate carrying a height value.
func NewCoordinateZ(x, y, z float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z, HasZ: true}
}

// IsFinite reports whether X and Y are real numbers.
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.X) && !math.IsNaN(c.Y) && !math.IsInf(c.X, 0) && !math.IsInf(c.Y, 0)
}

// InWGS84Bounds reports whether the coordinate is a finite geographic position,
// lng in [-180, 180] and lat in [-90, 90].
func (c Coordinate) InWGS84Bounds() bool {
	return c.IsFinite() && c.X >= -180 && c.X <= 180 && c.Y >= -90 && c.Y <= 90
}

// Validate checks that the coordinate is a valid WGS84 position.
func (c Coordinate) Validate() error {
	if !c.IsFinite() {
		return &ValidationError{
			Field:      "coordinate",
			Value:      c.String(),
			Constraint: "finite",
			Message:    "coordinate must be a finite number pair",
		}
	}
	if c.X < -180 || c.X > 180 {
		return &ValidationError{
			Field:      "longitude",
			Value:      c.X,
			Constraint: "[-180, 180]",
			Message:    "longitude must be between -180 and 180",
		}
	}
	if c.Y < -90 || c.Y > 90 {
		return &ValidationError{
			Field:      "latitude",
			Value:      c.Y,
			Constraint: "[-90, 90]",
			Message:    "latitude must be between -90 and 90",
		}
	}
	return nil
}

// String returns a string representation of the coordinate.
func (c Coordinate) String() string {
	if c.HasZ {
		return fmt.Sprintf("POINT Z(%f %f %f)", c.X, c.Y, c.Z)
	}
	return fmt.Sprintf("POINT(%f %f)", c.X, c.Y)
}

// Common SRID constants.
const (
	SRIDWGS84   = 4326  // WGS 84
	SRIDUTM20N  = 32620 // WGS 84 / UTM zone 20N
	UTMZone20   = 20
	DominicaLat = 15.4150
	DominicaLng = -61.3710
)

// Extent represents a spatial bounding box.
type Extent struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// DominicaExtent is the geographic bounding box of the island of Dominica.
var DominicaExtent = Extent{MinX: -61.55, MinY: 15.15, MaxX: -61.20, MaxY: 15.65}

// Contains checks if a coordinate is within the extent.
func (e Extent) Contains(c Coordinate) bool {
	return c.X >= e.MinX && c.X <= e.MaxX && c.Y >= e.MinY && c.Y <= e.MaxY
}

// IsValid checks if the extent has valid dimensions.
func (e Extent) IsValid() bool {
	return e.MinX <= e.MaxX && e.MinY <= e.MaxY
}

// Width returns the width of the extent.
func (e Extent) Width() float64 {
	return math.Abs(e.MaxX - e.MinX)
}

// Height returns the height of the extent.
func (e Extent) Height() float64 {
	return math.Abs(e.MaxY - e.MinY)
}

// Center returns the center coordinate of the extent.
func (e Extent) Center() Coordinate {
	return Coordinate{
		X: (e.MinX + e.MaxX) / 2,
		Y: (e.MinY + e.MaxY) / 2,
	}
}
