package flightdata

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"

	"flown-records/pkg/flightpath"
	"flown-records/pkg/xmltree"
)

// ParseKML normalizes a KML document into flight paths.
//
// A missing kml root or Document, or XML that does not parse, fails the call
// with a *xmltree.StructureError. Placemarks without usable geometry are
// skipped. When no placemark directly under Document yields a flight, the
// Document's folders are searched instead.
func ParseKML(data []byte) (*ParsedFlightData, error) {
	doc, err := xmltree.Parse("kml", data)
	if err != nil {
		return nil, err
	}
	root, err := xmltree.Root("kml", doc, xmltree.KML)
	if err != nil {
		return nil, err
	}
	document := xmltree.Child(root, xmltree.Document)
	if document == nil {
		return nil, &xmltree.StructureError{Op: "kml", Reason: "no Document element found"}
	}

	var flights []Path
	for _, pm := range xmltree.Children(document, "Placemark") {
		if f, ok := flightFromPlacemark(pm); ok {
			flights = append(flights, f)
		}
	}

	if len(flights) == 0 {
		for _, folder := range xmltree.Children(document, xmltree.Folder...) {
			flights = collectFolder(folder, flights)
		}
	}

	return result(Source, flights), nil
}

// collectFolder appends the flights of a folder and its sub-folders in
// document order.
func collectFolder(folder *etree.Element, flights []Path) []Path {
	for _, c := range folder.ChildElements() {
		switch c.Tag {
		case "Placemark":
			if f, ok := flightFromPlacemark(c); ok {
				flights = append(flights, f)
			}
		case "Folder", "folder":
			flights = collectFolder(c, flights)
		}
	}
	return flights
}

func flightFromPlacemark(pm *etree.Element) (Path, bool) {
	points := placemarkPoints(pm)
	if len(points) == 0 {
		return Path{}, false
	}
	name := xmltree.PathText(pm, "name")
	desc := xmltree.PathText(pm, "description")
	return newPath(name, desc, points), true
}

// placemarkPoints applies the geometry precedence: LineString, then every
// LineString of a MultiGeometry, then Point, then gx:Track data.
func placemarkPoints(pm *etree.Element) []flightpath.Point {
	if coords := xmltree.PathText(pm, "LineString", "coordinates"); coords != "" {
		return flightpath.ParseCoordinates(coords)
	}
	if mg := pm.SelectElement("MultiGeometry"); mg != nil {
		var points []flightpath.Point
		for _, ls := range xmltree.Children(mg, "LineString") {
			if coords := xmltree.PathText(ls, "coordinates"); coords != "" {
				points = append(points, flightpath.ParseCoordinates(coords)...)
			}
		}
		return points
	}
	if coords := xmltree.PathText(pm, "Point", "coordinates"); coords != "" {
		return flightpath.ParseCoordinates(coords)
	}
	if tr := pm.SelectElement("Track"); tr != nil {
		return trackPoints(tr)
	}
	if mt := pm.SelectElement("MultiTrack"); mt != nil {
		var points []flightpath.Point
		for _, tr := range xmltree.Children(mt, "Track") {
			points = append(points, trackPoints(tr)...)
		}
		return points
	}
	return nil
}

// trackPoints reads gx:coord values, which are space separated
// "lon lat alt" triples, one per element.
func trackPoints(tr *etree.Element) []flightpath.Point {
	var points []flightpath.Point
	for _, c := range xmltree.Children(tr, "coord") {
		fields := strings.Fields(c.Text())
		if len(fields) < 2 {
			continue
		}
		points = append(points, flightpath.ParseCoordinates(strings.Join(fields, ","))...)
	}
	return points
}

// ParseKMZ opens a KMZ archive and parses its first .kml entry.
func ParseKMZ(data []byte) (*ParsedFlightData, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &xmltree.StructureError{Op: "kmz", Reason: "not a zip archive", Err: err}
	}
	for _, zf := range zr.File {
		if !strings.EqualFold(filepath.Ext(zf.Name), ".kml") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, &xmltree.StructureError{Op: "kmz", Reason: "open " + zf.Name, Err: err}
		}
		kml, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, &xmltree.StructureError{Op: "kmz", Reason: "read " + zf.Name, Err: err}
		}
		return ParseKML(kml)
	}
	return nil, &xmltree.StructureError{Op: "kmz", Reason: "archive holds no .kml document"}
}
