package uploads

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"flown-records/pkg/database"
	"flown-records/pkg/downsample"
	"flown-records/pkg/telemetry"
)

// ImportRecording parses a per-position KML export and stores it, thinned to
// downsample.MaxPoints.
func (s *Service) ImportRecording(ctx context.Context, userID int64, source, filename string, data []byte) (database.Recording, error) {
	id := s.uploadID()
	s.logs().Begin(id)
	h := database.UploadHistory{UploadID: id, UserID: userID, Kind: "recording", Source: source, Filename: filename}

	rec, err := s.importRecording(ctx, id, userID, source, data)
	if err != nil {
		s.finish(ctx, h, err, "")
		return database.Recording{}, err
	}

	h.Submitted = rec.RawPoints
	h.Created = len(rec.Coords)
	s.finish(ctx, h, nil, fmt.Sprintf("%q: recording %d with %s points (%s recorded)",
		filename, rec.ID, humanize.Comma(int64(len(rec.Coords))), humanize.Comma(int64(rec.RawPoints))))
	return rec, nil
}

func (s *Service) importRecording(ctx context.Context, id string, userID int64, source string, data []byte) (database.Recording, error) {
	if s.Store == nil {
		return database.Recording{}, ErrNoStore
	}
	if err := checkSize("KML", data, s.Limits.MaxKMLBytes); err != nil {
		return database.Recording{}, err
	}

	res, err := telemetry.Parse(source, data)
	if err != nil {
		return database.Recording{}, fmt.Errorf("parse recording: %w", err)
	}
	if res.Flight == nil {
		return database.Recording{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, res.Warning)
	}
	raw := len(res.Flight.Coords)
	s.logs().Logf(id, "KML", "%q: %s positions", res.Flight.Name, humanize.Comma(int64(raw)))

	coords := downsample.Coordinates(res.Flight.Coords)
	if len(coords) < raw {
		s.logs().Logf(id, "KML", "downsampled to %s positions", humanize.Comma(int64(len(coords))))
	}

	rec, err := s.Store.SaveRecording(ctx, database.Recording{
		UserID:      userID,
		Source:      source,
		Name:        res.Flight.Name,
		Description: res.Flight.Description,
		RawPoints:   raw,
		Coords:      coords,
	})
	if err != nil {
		return database.Recording{}, fmt.Errorf("save recording: %w", err)
	}
	return rec, nil
}
