package trackexport

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"flown-records/pkg/flightdata"
	"flown-records/pkg/flightpath"
)

// FlightsGeoJSON renders every non-empty flight as a LineString feature.
// Altitudes travel in the "altitudes" property since GeoJSON positions here
// are two-dimensional. When tolerance is positive paths are simplified first.
func FlightsGeoJSON(data *flightdata.ParsedFlightData, tolerance float64) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("flights geojson: nil flight data")
	}

	fc := geojson.NewFeatureCollection()
	var all []flightpath.Point
	for _, f := range data.Flights {
		if len(f.Points) == 0 {
			continue
		}
		points := f.Points
		if tolerance > 0 {
			points = flightpath.Simplify(points, tolerance)
		}

		feature := geojson.NewFeature(flightpath.LineString(points))
		feature.BBox = geojson.NewBBox(flightpath.Bounds(f.Points))
		feature.Properties["name"] = f.Name
		feature.Properties["description"] = f.Description
		altitudes := make([]float64, len(points))
		for i, p := range points {
			altitudes[i] = p.Altitude
		}
		feature.Properties["altitudes"] = altitudes
		if m := f.Metadata; m != nil {
			feature.Properties["totalDistanceKm"] = m.TotalDistanceKm
			feature.Properties["maxAltitude"] = m.MaxAltitude
			feature.Properties["minAltitude"] = m.MinAltitude
		}
		fc.Append(feature)
		all = append(all, f.Points...)
	}
	if len(all) > 0 {
		fc.BBox = geojson.NewBBox(flightpath.Bounds(all))
	}

	out, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("flights geojson: %w", err)
	}
	return out, nil
}
