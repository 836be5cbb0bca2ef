// Package trackexport writes parsed flights and telemetry back out as KML
// and GeoJSON for map clients.
package trackexport

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/twpayne/go-kml/v3"

	"flown-records/pkg/flightdata"
	"flown-records/pkg/telemetry"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

// WriteFlightsKML writes one LineString placemark per flight path.
func WriteFlightsKML(w io.Writer, data *flightdata.ParsedFlightData) error {
	if data == nil {
		return fmt.Errorf("write flights kml: nil flight data")
	}

	elements := []kml.Element{kml.Name(data.Source)}
	for _, f := range data.Flights {
		if len(f.Points) == 0 {
			continue
		}
		coords := make([]kml.Coordinate, len(f.Points))
		for i, p := range f.Points {
			coords[i] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude, Alt: p.Altitude}
		}

		children := []kml.Element{kml.Name(f.Name)}
		if f.Description != "" {
			children = append(children, kml.Description(f.Description))
		}
		children = append(children, kml.LineString(
			kml.AltitudeMode(kml.AltitudeModeAbsolute),
			kml.Coordinates(coords...),
		))
		elements = append(elements, kml.Placemark(children...))
	}

	if err := kml.KML(kml.Document(elements...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("write flights kml: %w", err)
	}
	return nil
}

// WriteRecordingKML writes a telemetry flight in the AirNav Radar layout: a
// Document carrying the flight name and a "Positions" folder with one Point
// placemark per record. Extended fields go to ExtendedData under their short
// names.
func WriteRecordingKML(w io.Writer, f *telemetry.RawFlight) error {
	if f == nil {
		return fmt.Errorf("write recording kml: nil flight")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("kml")
	root.CreateAttr("xmlns", kmlNamespace)

	document := root.CreateElement("Document")
	document.CreateElement("name").SetText(f.Name)
	document.CreateElement("description").SetText(f.Description)

	folder := document.CreateElement("Folder")
	folder.CreateElement("name").SetText("Positions")
	for _, rec := range f.Coords {
		writePosition(folder.CreateElement("Placemark"), rec)
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write recording kml: %w", err)
	}
	return nil
}

func writePosition(pm *etree.Element, rec telemetry.Record) {
	pm.CreateElement("name").SetText(rec.ID)
	if rec.Timestamp != nil {
		pm.CreateElement("TimeStamp").CreateElement("when").SetText(*rec.Timestamp)
	}

	var ext *etree.Element
	data := func(name, display, value string) {
		if ext == nil {
			ext = pm.CreateElement("ExtendedData")
		}
		d := ext.CreateElement("Data")
		d.CreateAttr("name", name)
		d.CreateElement("displayName").SetText(display)
		d.CreateElement("value").SetText(value)
	}
	if rec.Heading != nil {
		data("fhd", "Heading", formatFloat(*rec.Heading)+"°")
	}
	if rec.GroundSpeed != nil {
		data("fgs", "Ground Speed", formatFloat(*rec.GroundSpeed)+" kts")
	}
	if rec.VerticalSpeed != nil {
		data("fvr", "Vertical Speed", formatFloat(*rec.VerticalSpeed)+" ft/min")
	}
	if rec.Squawk != nil {
		data("sq", "Squawk", strconv.FormatUint(uint64(*rec.Squawk), 10))
	}
	if rec.Source != nil && strings.TrimSpace(*rec.Source) != "" {
		data("so", "Source", *rec.Source)
	}

	point := pm.CreateElement("Point")
	if rec.Altitude.Mode != telemetry.UnknownMode && rec.Altitude.Mode != "" {
		point.CreateElement("altitudeMode").SetText(string(rec.Altitude.Mode))
	}
	// Altitudes are whole feet floored on parse, so the midpoint of the foot
	// is written to survive the metre round trip.
	metres := (rec.Altitude.ValueFeet + 0.5) / telemetry.FeetPerMetre
	point.CreateElement("coordinates").SetText(
		formatFloat(rec.Longitude) + "," + formatFloat(rec.Latitude) + "," + strconv.FormatFloat(metres, 'f', 6, 64),
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
