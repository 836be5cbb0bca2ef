package uploads

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"flown-records/pkg/downsample"
	"flown-records/pkg/flightdata"
)

// ParseFlightFile parses a KML, KMZ or GPX file. Paths longer than
// MaxCoordinatePoints are thinned; their metadata keeps the full-resolution
// distance and altitudes.
func (s *Service) ParseFlightFile(format flightdata.Format, data []byte) (*flightdata.ParsedFlightData, error) {
	id := s.uploadID()
	s.logs().Begin(id)

	if err := checkSize(string(format), data, s.Limits.MaxKMLBytes); err != nil {
		s.logs().FlushError(id, err)
		return nil, err
	}
	s.logs().Logf(id, "Flight", "parsing %s %s", humanize.IBytes(uint64(len(data))), format)

	parsed, err := flightdata.Parse(format, data)
	if err != nil {
		s.logs().FlushError(id, err)
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	points := 0
	limit := s.Limits.MaxCoordinatePoints
	for i := range parsed.Flights {
		p := &parsed.Flights[i]
		if n := len(p.Points); limit > 0 && n > limit {
			p.Points = downsample.Reduce(p.Points, limit)
			s.logs().Logf(id, "Flight", "%q reduced from %s to %s points",
				p.Name, humanize.Comma(int64(n)), humanize.Comma(int64(len(p.Points))))
		}
		points += len(p.Points)
	}

	s.logs().Success(id, fmt.Sprintf("%s: %d flights, %s points", format, parsed.TotalFlights, humanize.Comma(int64(points))))
	return parsed, nil
}
