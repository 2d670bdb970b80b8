package geom

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// degenerateArea is the signed-area threshold (in squared degrees)
// below which a ring is treated as collinear.
const degenerateArea = 1e-12

// Representative reduces the shape to the single (lat, lon) pair that
// is stored in the report's coordinate columns.
func (d *Descriptor) Representative() (Coordinate, error) {
	switch d.Type {
	case TypePoint, TypeCircle:
		return d.Point.Round(), nil
	case TypeRectangle, TypePolygon:
		return ringCentroid(d.Ring).Round(), nil
	case TypeLineString:
		return lineMidpoint(d.Line).Round(), nil
	}
	return Coordinate{}, fmt.Errorf("unknown geometry type %q", d.Type)
}

// ringCentroid computes the signed-area centroid of the ring. A
// duplicated closing vertex is ignored. Collinear rings fall back to
// the arithmetic mean of the vertices.
func ringCentroid(ring []Coordinate) Coordinate {
	pts := ring
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}

	var area, cx, cy float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := pts[i].Lon*pts[j].Lat - pts[j].Lon*pts[i].Lat
		area += cross
		cx += (pts[i].Lon + pts[j].Lon) * cross
		cy += (pts[i].Lat + pts[j].Lat) * cross
	}
	area /= 2

	if math.Abs(area) < degenerateArea {
		return meanOf(pts)
	}
	return Coordinate{Lon: cx / (6 * area), Lat: cy / (6 * area)}
}

func meanOf(pts []Coordinate) Coordinate {
	var c Coordinate
	for _, p := range pts {
		c.Lon += p.Lon
		c.Lat += p.Lat
	}
	c.Lon /= float64(len(pts))
	c.Lat /= float64(len(pts))
	return c
}

// lineMidpoint walks the polyline to half its cumulative geodesic arc
// length and interpolates linearly within the bracketing segment.
// This is not the midpoint of the endpoints: a dogleg line pins the
// marker to the actual halfway travel point.
func lineMidpoint(line []Coordinate) Coordinate {
	segs := make([]float64, len(line)-1)
	total := 0.0
	for i := 0; i < len(line)-1; i++ {
		segs[i] = geodesic(line[i], line[i+1])
		total += segs[i]
	}
	if total == 0 {
		return line[0]
	}

	half := total / 2
	walked := 0.0
	for i, seg := range segs {
		if walked+seg >= half {
			frac := (half - walked) / seg
			return Coordinate{
				Lon: line[i].Lon + (line[i+1].Lon-line[i].Lon)*frac,
				Lat: line[i].Lat + (line[i+1].Lat-line[i].Lat)*frac,
			}
		}
		walked += seg
	}
	return line[len(line)-1]
}

// geodesic returns the great-circle distance between two coordinates
// as an angle in radians. Only ratios matter here, so the earth
// radius never enters.
func geodesic(a, b Coordinate) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lon)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return la.Distance(lb).Radians()
}
