// Package flightpath holds the point model shared by every track parser and
// the single-pass aggregations computed over it.
package flightpath

import (
	"math"
	"strconv"
	"strings"
)

// Point is one position along a flight. Altitude is in feet for telemetry
// records and unitless (as given by the source) for generic KML.
// Out-of-range coordinates are kept as-is.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// ParseCoordinates turns a KML coordinate string ("lon,lat[,alt]" tuples
// separated by any whitespace) into points, in order.
//
// Tuples that do not carry a numeric longitude and latitude are dropped so a
// single corrupt token never loses the rest of the flight. A missing or
// non-numeric altitude becomes 0.
func ParseCoordinates(s string) []Point {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return nil
	}

	points := make([]Point, 0, len(tokens))
	for _, tok := range tokens {
		p, ok := parseTuple(tok)
		if !ok {
			continue
		}
		points = append(points, p)
	}
	return points
}

func parseTuple(tok string) (Point, bool) {
	parts := strings.Split(tok, ",")
	if len(parts) < 2 {
		return Point{}, false
	}
	lon, ok := ParseFloat(parts[0])
	if !ok {
		return Point{}, false
	}
	lat, ok := ParseFloat(parts[1])
	if !ok {
		return Point{}, false
	}
	var alt float64
	if len(parts) >= 3 {
		if v, ok := ParseFloat(parts[2]); ok {
			alt = v
		}
	}
	return Point{Latitude: lat, Longitude: lon, Altitude: alt}, true
}

// ParseFloat parses a trimmed decimal and rejects NaN and ±Inf.
func ParseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
