package domain

import (
	"errors"
	"math"
	"testing"
)

func TestNewCoordinate(t *testing.T) {
	c := NewCoordinate(-61.37, 15.41)

	if c.X != -61.37 {
		t.Errorf("expected X=-61.37, got %f", c.X)
	}
	if c.Y != 15.41 {
		t.Errorf("expected Y=15.41, got %f", c.Y)
	}
	if c.HasZ {
		t.Error("expected HasZ=false")
	}
}

func TestNewCoordinateZ(t *testing.T) {
	c := NewCoordinateZ(675000, 1705000, 120)

	if !c.HasZ || c.Z != 120 {
		t.Errorf("expected Z=120 with HasZ, got %v", c)
	}
}

func TestCoordinateInWGS84Bounds(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{"dominica", NewCoordinate(-61.37, 15.41), true},
		{"origin", NewCoordinate(0, 0), true},
		{"max bounds", NewCoordinate(180, 90), true},
		{"min bounds", NewCoordinate(-180, -90), true},
		{"utm easting", NewCoordinate(675000, 1705000), false},
		{"longitude too large", NewCoordinate(180.0001, 0), false},
		{"latitude too small", NewCoordinate(0, -90.0001), false},
		{"NaN x", NewCoordinate(math.NaN(), 0), false},
		{"NaN y", NewCoordinate(0, math.NaN()), false},
		{"infinite", NewCoordinate(math.Inf(1), 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coord.InWGS84Bounds(); got != tt.want {
				t.Errorf("InWGS84Bounds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name      string
		coord     Coordinate
		wantErr   bool
		wantField string
	}{
		{name: "valid", coord: NewCoordinate(-61.37, 15.41)},
		{name: "invalid longitude", coord: NewCoordinate(200, 0), wantErr: true, wantField: "longitude"},
		{name: "invalid latitude", coord: NewCoordinate(0, 95), wantErr: true, wantField: "latitude"},
		{name: "not finite", coord: NewCoordinate(math.NaN(), 0), wantErr: true, wantField: "coordinate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestCoordinateString(t *testing.T) {
	if got := NewCoordinate(1, 2).String(); got != "POINT(1.000000 2.000000)" {
		t.Errorf("String() = %q", got)
	}
	if got := NewCoordinateZ(1, 2, 3).String(); got != "POINT Z(1.000000 2.000000 3.000000)" {
		t.Errorf("String() = %q", got)
	}
}

func TestExtent(t *testing.T) {
	e := DominicaExtent

	if !e.IsValid() {
		t.Fatal("DominicaExtent should be valid")
	}
	if !e.Contains(NewCoordinate(DominicaLng, DominicaLat)) {
		t.Error("DominicaExtent should contain the island centre")
	}
	if e.Contains(NewCoordinate(-64.86, 15.37)) {
		t.Error("DominicaExtent should not contain a point west of the island")
	}

	center := e.Center()
	if math.Abs(center.X-(-61.375)) > 1e-9 || math.Abs(center.Y-15.40) > 1e-9 {
		t.Errorf("Center() = %v", center)
	}
	if math.Abs(e.Width()-0.35) > 1e-9 {
		t.Errorf("Width() = %f, want 0.35", e.Width())
	}
	if math.Abs(e.Height()-0.50) > 1e-9 {
		t.Errorf("Height() = %f, want 0.50", e.Height())
	}

	inverted := Extent{MinX: 1, MaxX: 0}
	if inverted.IsValid() {
		t.Error("inverted extent should be invalid")
	}
}
