package flightpath

import "math"

// EarthRadiusKm is the mean radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Metadata summarises a point sequence for display.
type Metadata struct {
	TotalDistanceKm float64 `json:"totalDistance"`
	MaxAltitude     float64 `json:"maxAltitude"`
	MinAltitude     float64 `json:"minAltitude"`
}

// Aggregate walks the points once, summing haversine legs and tracking the
// altitude extrema. It returns nil for an empty sequence so callers can tell
// "no metadata" apart from a zero-length track.
//
// Distance is rounded to 2 decimals and altitudes to whole units; the raw
// sums never leave this function.
func Aggregate(points []Point) *Metadata {
	if len(points) == 0 {
		return nil
	}

	var (
		total  float64
		maxAlt = points[0].Altitude
		minAlt = points[0].Altitude
	)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		total += Haversine(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
		if cur.Altitude > maxAlt {
			maxAlt = cur.Altitude
		}
		if cur.Altitude < minAlt {
			minAlt = cur.Altitude
		}
	}

	return &Metadata{
		TotalDistanceKm: math.Round(total*100) / 100,
		MaxAltitude:     math.Round(maxAlt),
		MinAltitude:     math.Round(minAlt),
	}
}

// Haversine returns the great-circle distance in kilometres between two
// points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := lat1*math.Pi/180, lat2*math.Pi/180
	dPhi, dLambda := (lat2-lat1)*math.Pi/180, (lon2-lon1)*math.Pi/180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
