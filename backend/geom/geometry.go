// Package geom holds the shape descriptor drawn by the map client and
// the derivation of a single representative coordinate per shape.
package geom

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePoint      Type = "Point"
	TypeLineString Type = "LineString"
	TypeRectangle  Type = "Rectangle"
	TypePolygon    Type = "Polygon"
	TypeCircle     Type = "Circle"
)

// coordPrecision is the number of decimal places kept when a
// coordinate is written out. ~0.1mm at the equator.
const coordPrecision = 9

// Coordinate is one position. On the wire it is a [lon, lat] pair,
// GeoJSON ordering, regardless of how lat/lon are stored elsewhere.
type Coordinate struct {
	Lon float64
	Lat float64
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	lon := decimal.NewFromFloat(c.Lon).Round(coordPrecision)
	lat := decimal.NewFromFloat(c.Lat).Round(coordPrecision)
	return []byte(fmt.Sprintf("[%s,%s]", lon.String(), lat.String())), nil
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate must be a [lon, lat] pair, got %d elements", len(pair))
	}
	c.Lon, c.Lat = pair[0], pair[1]
	return nil
}

// Round snaps the coordinate to the stored precision.
func (c Coordinate) Round() Coordinate {
	return Coordinate{Lon: round9(c.Lon), Lat: round9(c.Lat)}
}

func round9(v float64) float64 {
	r, _ := decimal.NewFromFloat(v).Round(coordPrecision).Float64()
	return r
}

// Descriptor is the canonical geometry payload persisted with a
// report. Exactly one of Point, Line or Ring is populated depending
// on the type; Radius is meters and set for circles only.
type Descriptor struct {
	Type   Type
	Point  *Coordinate  // Point, Circle center
	Line   []Coordinate // LineString
	Ring   []Coordinate // Rectangle, Polygon outer ring
	Radius float64      // Circle only, meters
}

type wireDescriptor struct {
	Type        Type            `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Radius      *float64        `json:"radius,omitempty"`
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	w := wireDescriptor{Type: d.Type}
	var err error
	switch d.Type {
	case TypePoint, TypeCircle:
		if d.Point == nil {
			return nil, fmt.Errorf("%s geometry without a point", d.Type)
		}
		w.Coordinates, err = json.Marshal(*d.Point)
	case TypeLineString:
		w.Coordinates, err = json.Marshal(d.Line)
	case TypeRectangle, TypePolygon:
		// Single outer ring, wrapped the GeoJSON polygon way.
		w.Coordinates, err = json.Marshal([][]Coordinate{d.Ring})
	default:
		return nil, fmt.Errorf("unknown geometry type %q", d.Type)
	}
	if err != nil {
		return nil, err
	}
	if d.Type == TypeCircle {
		r := d.Radius
		w.Radius = &r
	}
	return json.Marshal(w)
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var w wireDescriptor
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed := Descriptor{Type: w.Type}
	switch w.Type {
	case TypePoint, TypeCircle:
		var c Coordinate
		if err := json.Unmarshal(w.Coordinates, &c); err != nil {
			return fmt.Errorf("bad %s coordinates: %w", w.Type, err)
		}
		parsed.Point = &c
	case TypeLineString:
		if err := json.Unmarshal(w.Coordinates, &parsed.Line); err != nil {
			return fmt.Errorf("bad LineString coordinates: %w", err)
		}
		if len(parsed.Line) < 2 {
			return fmt.Errorf("LineString needs at least 2 points, got %d", len(parsed.Line))
		}
	case TypeRectangle, TypePolygon:
		var rings [][]Coordinate
		if err := json.Unmarshal(w.Coordinates, &rings); err != nil {
			return fmt.Errorf("bad %s coordinates: %w", w.Type, err)
		}
		if len(rings) == 0 || len(rings[0]) < 3 {
			return fmt.Errorf("%s needs one ring with at least 3 points", w.Type)
		}
		parsed.Ring = rings[0]
	default:
		return fmt.Errorf("unknown geometry type %q", w.Type)
	}
	if w.Type == TypeCircle {
		if w.Radius == nil || *w.Radius <= 0 {
			return fmt.Errorf("Circle needs a positive radius")
		}
		parsed.Radius = *w.Radius
	}
	*d = parsed
	return nil
}

// Parse decodes a persisted geometry payload.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
