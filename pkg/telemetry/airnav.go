package telemetry

import (
	"math"
	"strings"

	"github.com/beevik/etree"

	"flown-records/pkg/flightpath"
	"flown-records/pkg/xmltree"
)

func parseAirNav(root *etree.Element) (*RawFlight, error) {
	document := xmltree.Child(root, xmltree.Document)
	if document == nil {
		return nil, &xmltree.StructureError{Op: "airnav", Reason: "no Document element found"}
	}

	flight := &RawFlight{
		Name:        xmltree.PathText(document, "name"),
		Description: xmltree.PathText(document, "description"),
	}
	if flight.Name == "" {
		flight.Name = defaultName
	}
	if flight.Description == "" {
		flight.Description = defaultDescription
	}

	folders := xmltree.Children(document, xmltree.Folder...)
	if len(folders) == 0 {
		return nil, &xmltree.StructureError{Op: "airnav", Reason: "no Folder element found"}
	}

	var positions []*etree.Element
	for _, f := range folders {
		if xmltree.PathText(f, "name") == positionsFolder {
			positions = xmltree.Children(f, "Placemark")
			break
		}
	}
	if len(positions) == 0 {
		return nil, &xmltree.StructureError{Op: "airnav", Reason: "no Positions placemarks found"}
	}

	flight.Coords = make([]Record, 0, len(positions))
	for _, pm := range positions {
		if rec, ok := recordFromPlacemark(pm); ok {
			flight.Coords = append(flight.Coords, rec)
		}
	}
	return flight, nil
}

// recordFromPlacemark drops the placemark when latitude or longitude cannot
// be read. A missing altitude is zero.
func recordFromPlacemark(pm *etree.Element) (Record, bool) {
	point := pm.SelectElement("Point")
	if point == nil {
		return Record{}, false
	}
	parts := strings.Split(xmltree.PathText(point, "coordinates"), ",")
	if len(parts) < 2 {
		return Record{}, false
	}
	lon, okLon := flightpath.ParseFloat(parts[0])
	lat, okLat := flightpath.ParseFloat(parts[1])
	if !okLon || !okLat {
		return Record{}, false
	}

	var feet float64
	if len(parts) > 2 {
		if metres, ok := flightpath.ParseFloat(parts[2]); ok {
			feet = math.Floor(metres * FeetPerMetre)
		}
	}

	ext := extendedData(pm)
	return Record{
		ID:        xmltree.PathText(pm, "name"),
		Latitude:  lat,
		Longitude: lon,
		Altitude: Altitude{
			Mode:      ParseAltitudeMode(xmltree.PathText(point, "altitudeMode")),
			ValueFeet: feet,
		},
		Timestamp:     timestamp(pm),
		Heading:       ext.number(headingField),
		GroundSpeed:   ext.number(groundSpeedField),
		VerticalSpeed: ext.number(verticalSpeedField),
		Squawk:        ext.squawk(),
		Source:        ext.text(sourceField),
	}, true
}

// timestamp tries TimeStamp/when, then a bare timestamp element, then the
// TimeStamp text itself, then a bare when.
func timestamp(pm *etree.Element) *string {
	candidates := []string{
		xmltree.PathText(pm, "TimeStamp", "when"),
		xmltree.PathText(pm, "timestamp"),
		xmltree.PathText(pm, "TimeStamp"),
		xmltree.PathText(pm, "when"),
	}
	for _, c := range candidates {
		if c != "" {
			return &c
		}
	}
	return nil
}
