// Package telemetry turns per-position KML exports (one Point placemark per
// radar fix) into typed records. Only AirNav Radar exports are understood;
// other sources are handed back raw with a warning.
package telemetry

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"flown-records/pkg/xmltree"
)

// SourceAirNav is the only source discriminator with a normalizer.
const SourceAirNav = "AIRNAV"

const (
	defaultName        = "Unknown Flight"
	defaultDescription = "Unknown Description"
	positionsFolder    = "Positions"

	// FeetPerMetre converts KML altitudes (metres) to feet.
	FeetPerMetre = 3.28084
)

// AltitudeMode mirrors the KML altitudeMode vocabulary.
type AltitudeMode string

const (
	RelativeToGround AltitudeMode = "relativeToGround"
	Absolute         AltitudeMode = "absolute"
	ClampToGround    AltitudeMode = "clampToGround"
	UnknownMode      AltitudeMode = "unknown"
)

// ParseAltitudeMode maps a KML value onto the enum. Anything unrecognised,
// including an empty string, is UnknownMode.
func ParseAltitudeMode(s string) AltitudeMode {
	switch m := AltitudeMode(strings.TrimSpace(s)); m {
	case RelativeToGround, Absolute, ClampToGround:
		return m
	default:
		return UnknownMode
	}
}

type Altitude struct {
	Mode      AltitudeMode `json:"mode"`
	ValueFeet float64      `json:"value"`
}

// Record is one normalized position. Optional fields are nil when the export
// did not carry them or carried something unparsable; zero is a real value.
type Record struct {
	ID            string   `json:"id"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Altitude      Altitude `json:"altitude"`
	Timestamp     *string  `json:"timestamp,omitempty"`
	Heading       *float64 `json:"heading,omitempty"`
	GroundSpeed   *float64 `json:"groundSpeed,omitempty"`
	VerticalSpeed *float64 `json:"verticalSpeed,omitempty"`
	Squawk        *uint16  `json:"squawk,omitempty"`
	Source        *string  `json:"source,omitempty"`
}

// RawFlight is a flight as recorded, before any downsampling.
type RawFlight struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Coords      []Record `json:"coords"`
}

// Result is what Parse hands back. Exactly one of Flight and Raw is set.
type Result struct {
	Flight  *RawFlight
	Warning string
	Raw     *etree.Element
}

// Parse reads a per-position KML export. Malformed XML or a missing kml root
// is a *xmltree.StructureError whatever the source. An unsupported source is
// not an error: the parsed root comes back in Result.Raw with a warning.
func Parse(source string, data []byte) (*Result, error) {
	doc, err := xmltree.Parse("telemetry", data)
	if err != nil {
		return nil, err
	}
	root, err := xmltree.Root("telemetry", doc, xmltree.KML)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(source), SourceAirNav) {
		return &Result{
			Warning: fmt.Sprintf("unsupported KML source: %s", source),
			Raw:     root,
		}, nil
	}

	flight, err := parseAirNav(root)
	if err != nil {
		return nil, err
	}
	return &Result{Flight: flight}, nil
}
