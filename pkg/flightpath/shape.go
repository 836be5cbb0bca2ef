package flightpath

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// LineString projects the points onto a lon/lat orb.LineString. Altitude is
// dropped.
func LineString(points []Point) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = orb.Point{p.Longitude, p.Latitude}
	}
	return ls
}

// Bounds returns the lon/lat bounding box of the points. The zero Bound is
// returned for an empty slice.
func Bounds(points []Point) orb.Bound {
	if len(points) == 0 {
		return orb.Bound{}
	}
	return LineString(points).Bound()
}

// Simplify reduces a path with Douglas-Peucker on its lon/lat projection,
// tolerance in degrees. The kept points retain their altitude and the input
// slice is not modified. Paths of two points or fewer come back as a copy.
func Simplify(points []Point, tolerance float64) []Point {
	out := make([]Point, 0, len(points))
	if len(points) <= 2 || tolerance <= 0 {
		return append(out, points...)
	}

	kept, ok := simplify.DouglasPeucker(tolerance).Simplify(LineString(points)).(orb.LineString)
	if !ok {
		return append(out, points...)
	}

	// The simplifier returns an ordered subset of the input, so a forward
	// scan recovers the original points (and their altitudes).
	j := 0
	for _, k := range kept {
		for j < len(points) {
			p := points[j]
			j++
			if p.Longitude == k[0] && p.Latitude == k[1] {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
