package flightdata

import (
	"github.com/tkrajina/gpxgo/gpx"

	"flown-records/pkg/flightpath"
	"flown-records/pkg/xmltree"
)

// ParseGPX turns every GPX track into one path, segments concatenated.
// Elevation becomes altitude (0 when absent). Tracks without points are
// skipped like geometry-less placemarks.
func ParseGPX(data []byte) (*ParsedFlightData, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, &xmltree.StructureError{Op: "gpx", Reason: "malformed GPX", Err: err}
	}

	var flights []Path
	for _, trk := range g.Tracks {
		var points []flightpath.Point
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				var alt float64
				if p.Elevation.NotNull() {
					alt = p.Elevation.Value()
				}
				points = append(points, flightpath.Point{
					Latitude:  p.Latitude,
					Longitude: p.Longitude,
					Altitude:  alt,
				})
			}
		}
		if len(points) == 0 {
			continue
		}
		flights = append(flights, newPath(trk.Name, trk.Description, points))
	}
	return result(SourceGPX, flights), nil
}
