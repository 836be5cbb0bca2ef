package telemetry

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"flown-records/pkg/flightpath"
	"flown-records/pkg/xmltree"
)

// field describes one ExtendedData value: the displayName and name attribute
// it may appear under, and the unit suffixes to strip before parsing.
type field struct {
	displayName string
	shortName   string
	suffixes    []string
}

var (
	headingField = field{
		displayName: "Heading",
		shortName:   "fhd",
		suffixes:    []string{"Â°", "°"},
	}
	groundSpeedField = field{
		displayName: "Ground Speed",
		shortName:   "fgs",
		suffixes:    []string{" kts", " kt", " kmh", " km/h", " mph"},
	}
	verticalSpeedField = field{
		displayName: "Vertical Speed",
		shortName:   "fvr",
		suffixes:    []string{" ft/min", " feet/min", " fpm"},
	}
	squawkField = field{displayName: "Squawk", shortName: "sq"}
	sourceField = field{displayName: "Source", shortName: "so"}
)

type dataEntry struct {
	displayName string
	name        string
	value       string
}

// extData holds a placemark's ExtendedData entries in document order.
type extData []dataEntry

func extendedData(pm *etree.Element) extData {
	ed := xmltree.Child(pm, xmltree.Aliases{"ExtendedData"})
	if ed == nil {
		return nil
	}
	var out extData
	for _, d := range xmltree.Children(ed, "Data", "data") {
		out = append(out, dataEntry{
			displayName: xmltree.PathText(d, "displayName"),
			name:        d.SelectAttrValue("name", ""),
			value:       xmltree.PathText(d, "value"),
		})
	}
	return out
}

// lookup returns the value of the first entry matching either spelling.
// Empty values count as absent.
func (x extData) lookup(f field) (string, bool) {
	for _, e := range x {
		if e.displayName == f.displayName || e.name == f.shortName {
			v := e.value
			for _, s := range f.suffixes {
				v = strings.ReplaceAll(v, s, "")
			}
			v = strings.TrimSpace(v)
			return v, v != ""
		}
	}
	return "", false
}

func (x extData) number(f field) *float64 {
	v, ok := x.lookup(f)
	if !ok {
		return nil
	}
	n, ok := flightpath.ParseFloat(v)
	if !ok {
		return nil
	}
	return &n
}

func (x extData) squawk() *uint16 {
	v, ok := x.lookup(squawkField)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return nil
	}
	sq := uint16(n)
	return &sq
}

func (x extData) text(f field) *string {
	v, ok := x.lookup(f)
	if !ok {
		return nil
	}
	return &v
}
