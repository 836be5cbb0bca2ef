// Package flightdata normalizes pilot-supplied track documents (KML, KMZ,
// GPX) into named flight paths with display metadata.
package flightdata

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"flown-records/pkg/flightpath"
)

// Source is reported for every KML/KMZ parse.
const Source = "airnavradar.com"

// SourceGPX is reported for GPX parses.
const SourceGPX = "gpx"

const defaultName = "Unnamed Flight"

// Path is one named flight. It is built once per placemark (or GPX track) and
// not modified afterwards.
type Path struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Points      []flightpath.Point   `json:"points"`
	Metadata    *flightpath.Metadata `json:"metadata,omitempty"`
}

// ParsedFlightData is the result of one parse call.
type ParsedFlightData struct {
	Flights      []Path    `json:"flights"`
	Source       string    `json:"source"`
	ParseDate    time.Time `json:"parseDate"`
	TotalFlights int       `json:"totalFlights"`
}

// Format is the declared input format of a flight file.
type Format string

const (
	FormatKML Format = "kml"
	FormatKMZ Format = "kmz"
	FormatGPX Format = "gpx"
)

// now is swapped in tests.
var now = time.Now

// FormatFromFilename maps a file extension to a Format.
func FormatFromFilename(name string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".kml":
		return FormatKML, nil
	case ".kmz":
		return FormatKMZ, nil
	case ".gpx":
		return FormatGPX, nil
	default:
		return "", fmt.Errorf("unsupported flight file extension %q", ext)
	}
}

// Parse dispatches on the declared format.
func Parse(format Format, data []byte) (*ParsedFlightData, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatKML:
		return ParseKML(data)
	case FormatKMZ:
		return ParseKMZ(data)
	case FormatGPX:
		return ParseGPX(data)
	default:
		return nil, fmt.Errorf("unsupported flight file format %q", format)
	}
}

func newPath(name, desc string, points []flightpath.Point) Path {
	if name == "" {
		name = defaultName
	}
	return Path{
		Name:        name,
		Description: desc,
		Points:      points,
		Metadata:    flightpath.Aggregate(points),
	}
}

func result(source string, flights []Path) *ParsedFlightData {
	if flights == nil {
		flights = []Path{}
	}
	return &ParsedFlightData{
		Flights:      flights,
		Source:       source,
		ParseDate:    now().UTC(),
		TotalFlights: len(flights),
	}
}
