package trackexport

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flown-records/pkg/flightdata"
	"flown-records/pkg/flightpath"
	"flown-records/pkg/telemetry"
)

const twoFlightsKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>AA123</name>
      <description>JFK to LAX</description>
      <LineString><coordinates>-73.7781,40.6413,50 -90.0715,29.9511,39000 -118.4085,33.9425,50</coordinates></LineString>
    </Placemark>
    <Placemark>
      <name>Point only</name>
      <Point><coordinates>8.5,47.25,410</coordinates></Point>
    </Placemark>
  </Document>
</kml>`

func TestWriteFlightsKMLRoundTrip(t *testing.T) {
	in, err := flightdata.ParseKML([]byte(twoFlightsKML))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFlightsKML(&buf, in))

	out, err := flightdata.ParseKML(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, out.Flights, len(in.Flights))
	for i := range in.Flights {
		want, got := in.Flights[i], out.Flights[i]
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Description, got.Description)
		require.Len(t, got.Points, len(want.Points))
		for j := range want.Points {
			assert.InDelta(t, want.Points[j].Latitude, got.Points[j].Latitude, 1e-9)
			assert.InDelta(t, want.Points[j].Longitude, got.Points[j].Longitude, 1e-9)
			assert.InDelta(t, want.Points[j].Altitude, got.Points[j].Altitude, 1e-9)
		}
		assert.Equal(t, want.Metadata, got.Metadata)
	}
}

func TestWriteFlightsKMLSkipsEmptyPaths(t *testing.T) {
	data := &flightdata.ParsedFlightData{
		Source:  flightdata.Source,
		Flights: []flightdata.Path{{Name: "empty"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFlightsKML(&buf, data))
	assert.NotContains(t, buf.String(), "empty")

	assert.Error(t, WriteFlightsKML(&buf, nil))
}

func TestWriteRecordingKMLRoundTrip(t *testing.T) {
	ts := "2024-05-01T10:00:00Z"
	heading, gs, vs := 270.0, 145.5, -640.0
	squawk := uint16(7000)
	src := "ADS-B"
	zero := 0.0

	in := &telemetry.RawFlight{
		Name:        "DLH4AB",
		Description: "FRA to ZRH",
		Coords: []telemetry.Record{
			{
				ID:            "p1",
				Latitude:      50.0333,
				Longitude:     8.5706,
				Altitude:      telemetry.Altitude{Mode: telemetry.Absolute, ValueFeet: 3280},
				Timestamp:     &ts,
				Heading:       &heading,
				GroundSpeed:   &gs,
				VerticalSpeed: &vs,
				Squawk:        &squawk,
				Source:        &src,
			},
			{
				ID:          "p2",
				Latitude:    47.4647,
				Longitude:   8.5492,
				Altitude:    telemetry.Altitude{Mode: telemetry.UnknownMode},
				GroundSpeed: &zero,
			},
			{
				ID:        "p3",
				Latitude:  47.45,
				Longitude: 8.56,
				Altitude:  telemetry.Altitude{Mode: telemetry.ClampToGround, ValueFeet: 1},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecordingKML(&buf, in))

	res, err := telemetry.Parse(telemetry.SourceAirNav, buf.Bytes())
	require.NoError(t, err)
	require.NotNil(t, res.Flight)
	assert.Equal(t, in, res.Flight)
}

func TestWriteRecordingKMLEmptyFolderIsRejectedOnParse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecordingKML(&buf, &telemetry.RawFlight{Name: "n", Description: "d"}))

	_, err := telemetry.Parse(telemetry.SourceAirNav, buf.Bytes())
	assert.Error(t, err)
	assert.Error(t, WriteRecordingKML(&buf, nil))
}

func TestFlightsGeoJSON(t *testing.T) {
	in, err := flightdata.ParseKML([]byte(twoFlightsKML))
	require.NoError(t, err)

	raw, err := FlightsGeoJSON(in, 0)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	ls, ok := first.Geometry.(orb.LineString)
	require.True(t, ok)
	require.Len(t, ls, 3)
	assert.Equal(t, orb.Point{-73.7781, 40.6413}, ls[0])
	assert.Equal(t, "AA123", first.Properties.MustString("name"))
	assert.Equal(t, "JFK to LAX", first.Properties.MustString("description"))
	assert.Equal(t, in.Flights[0].Metadata.TotalDistanceKm, first.Properties.MustFloat64("totalDistanceKm"))
	assert.Equal(t, 39000.0, first.Properties.MustFloat64("maxAltitude"))

	var doc struct {
		BBox []float64 `json:"bbox"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []float64{-118.4085, 29.9511, 8.5, 47.25}, doc.BBox)
}

func TestFlightsGeoJSONSimplifies(t *testing.T) {
	var path flightdata.Path
	for i := 0; i <= 100; i++ {
		path.Points = append(path.Points, flightpath.Point{Longitude: float64(i) / 100, Altitude: float64(i)})
	}
	data := &flightdata.ParsedFlightData{Flights: []flightdata.Path{path}}

	raw, err := FlightsGeoJSON(data, 0.001)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	ls := fc.Features[0].Geometry.(orb.LineString)
	assert.Len(t, ls, 2)
	assert.Equal(t, orb.Point{0, 0}, ls[0])
	assert.Equal(t, orb.Point{1, 0}, ls[1])
}
