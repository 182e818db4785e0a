package kmz

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type kmlPlacemark struct {
	Name          string            `xml:"name"`
	Description   string            `xml:"description"`
	StyleURL      string            `xml:"styleUrl"`
	Visibility    string            `xml:"visibility"`
	ExtendedData  *kmlExtendedData  `xml:"ExtendedData"`
	Point         *kmlCoordinates   `xml:"Point"`
	LineString    *kmlCoordinates   `xml:"LineString"`
	LinearRing    *kmlCoordinates   `xml:"LinearRing"`
	Polygon       *kmlPolygon       `xml:"Polygon"`
	MultiGeometry *kmlMultiGeometry `xml:"MultiGeometry"`
}

type kmlExtendedData struct {
	Data []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value"`
	} `xml:"Data"`
	SchemaData []struct {
		SimpleData []struct {
			Name  string `xml:"name,attr"`
			Value string `xml:",chardata"`
		} `xml:"SimpleData"`
	} `xml:"SchemaData"`
}

// kmlCoordinates is any element carrying a <coordinates> child.
type kmlCoordinates struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlCoordinates   `xml:"outerBoundaryIs>LinearRing"`
	Inner []kmlCoordinates `xml:"innerBoundaryIs>LinearRing"`
}

// kmlMultiGeometry keeps its children in document order.
type kmlMultiGeometry struct {
	Geometries []orb.Geometry
}

// UnmarshalXML implements xml.Unmarshaler.
func (m *kmlMultiGeometry) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			g, err := decodeGeometryElement(d, t)
			if err != nil {
				return err
			}
			if g != nil {
				m.Geometries = append(m.Geometries, g)
			}
		case xml.EndElement:
			return nil
		}
	}
}

// decodeGeometryElement decodes one geometry child of a MultiGeometry.
// Unknown elements such as gx:Track are skipped.
func decodeGeometryElement(d *xml.Decoder, start xml.StartElement) (orb.Geometry, error) {
	switch start.Name.Local {
	case "Point", "LineString", "LinearRing":
		var c kmlCoordinates
		if err := d.DecodeElement(&c, &start); err != nil {
			return nil, err
		}
		if start.Name.Local == "Point" {
			return pointGeometry(c), nil
		}
		return lineGeometry(c), nil
	case "Polygon":
		var p kmlPolygon
		if err := d.DecodeElement(&p, &start); err != nil {
			return nil, err
		}
		return polygonGeometry(p), nil
	case "MultiGeometry":
		var m kmlMultiGeometry
		if err := d.DecodeElement(&m, &start); err != nil {
			return nil, err
		}
		return m.geometry(), nil
	default:
		return nil, d.Skip()
	}
}

// ParseKML converts a KML document to GeoJSON features. Placemarks are
// collected at any Document or Folder depth; placemarks without a usable
// geometry are skipped.
func ParseKML(r io.Reader) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	d := xml.NewDecoder(r)

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return fc, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing kml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Placemark" {
			continue
		}

		var pm kmlPlacemark
		if err := d.DecodeElement(&pm, &start); err != nil {
			return nil, fmt.Errorf("parsing kml placemark: %w", err)
		}
		if f := pm.feature(); f != nil {
			fc.Append(f)
		}
	}
}

// AltitudeProperty holds the altitude of a point placemark. Geometries are
// two-dimensional, so it is the only place the value survives.
const AltitudeProperty = "altitude"

func (pm *kmlPlacemark) feature() *geojson.Feature {
	g := pm.geometry()
	if g == nil {
		return nil
	}

	f := geojson.NewFeature(g)
	setString(f.Properties, "name", pm.Name)
	setString(f.Properties, "description", pm.Description)
	setString(f.Properties, "styleUrl", pm.StyleURL)
	setString(f.Properties, "visibility", pm.Visibility)
	if pm.Point != nil {
		if alt, ok := pointAltitude(pm.Point.Coordinates); ok {
			f.Properties[AltitudeProperty] = alt
		}
	}

	if ed := pm.ExtendedData; ed != nil {
		for _, data := range ed.Data {
			if data.Name != "" {
				f.Properties[data.Name] = strings.TrimSpace(data.Value)
			}
		}
		for _, schema := range ed.SchemaData {
			for _, sd := range schema.SimpleData {
				if sd.Name != "" {
					f.Properties[sd.Name] = strings.TrimSpace(sd.Value)
				}
			}
		}
	}
	return f
}

func (pm *kmlPlacemark) geometry() orb.Geometry {
	switch {
	case pm.Point != nil:
		return pointGeometry(*pm.Point)
	case pm.LineString != nil:
		return lineGeometry(*pm.LineString)
	case pm.LinearRing != nil:
		return lineGeometry(*pm.LinearRing)
	case pm.Polygon != nil:
		return polygonGeometry(*pm.Polygon)
	case pm.MultiGeometry != nil:
		return pm.MultiGeometry.geometry()
	default:
		return nil
	}
}

// geometry merges the children: one child stays as is, same-kind children
// become a Multi* geometry, mixed children a collection.
func (m *kmlMultiGeometry) geometry() orb.Geometry {
	switch len(m.Geometries) {
	case 0:
		return nil
	case 1:
		return m.Geometries[0]
	}

	switch m.Geometries[0].(type) {
	case orb.Point:
		mp := make(orb.MultiPoint, 0, len(m.Geometries))
		for _, g := range m.Geometries {
			p, ok := g.(orb.Point)
			if !ok {
				return orb.Collection(m.Geometries)
			}
			mp = append(mp, p)
		}
		return mp
	case orb.LineString:
		mls := make(orb.MultiLineString, 0, len(m.Geometries))
		for _, g := range m.Geometries {
			ls, ok := g.(orb.LineString)
			if !ok {
				return orb.Collection(m.Geometries)
			}
			mls = append(mls, ls)
		}
		return mls
	case orb.Polygon:
		mp := make(orb.MultiPolygon, 0, len(m.Geometries))
		for _, g := range m.Geometries {
			p, ok := g.(orb.Polygon)
			if !ok {
				return orb.Collection(m.Geometries)
			}
			mp = append(mp, p)
		}
		return mp
	default:
		return orb.Collection(m.Geometries)
	}
}

func pointGeometry(c kmlCoordinates) orb.Geometry {
	pts := parseCoordinates(c.Coordinates)
	if len(pts) == 0 {
		return nil
	}
	return pts[0]
}

func lineGeometry(c kmlCoordinates) orb.Geometry {
	pts := parseCoordinates(c.Coordinates)
	if len(pts) == 0 {
		return nil
	}
	return orb.LineString(pts)
}

func polygonGeometry(p kmlPolygon) orb.Geometry {
	outer := parseCoordinates(p.Outer.Coordinates)
	if len(outer) == 0 {
		return nil
	}
	poly := orb.Polygon{orb.Ring(outer)}
	for _, inner := range p.Inner {
		if ring := parseCoordinates(inner.Coordinates); len(ring) > 0 {
			poly = append(poly, orb.Ring(ring))
		}
	}
	return poly
}

// parseCoordinates reads "lon,lat[,alt]" tuples separated by whitespace.
// Altitude is dropped and malformed tuples are skipped.
func parseCoordinates(s string) []orb.Point {
	fields := strings.Fields(s)
	pts := make([]orb.Point, 0, len(fields))
	for _, tuple := range fields {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}

// pointAltitude returns the third value of the first tuple, if any.
func pointAltitude(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	vals := strings.Split(fields[0], ",")
	if len(vals) < 3 {
		return 0, false
	}
	alt, err := strconv.ParseFloat(strings.TrimSpace(vals[2]), 64)
	if err != nil {
		return 0, false
	}
	return alt, true
}

func setString(props geojson.Properties, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		props[key] = v
	}
}
