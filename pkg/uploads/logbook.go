package uploads

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"flown-records/pkg/database"
	"flown-records/pkg/ingest"
	"flown-records/pkg/logbook"
)

// ImportLogbook parses a logbook export and creates its entries one by one.
// Entries already on file are counted as duplicates. A cancelled context
// returns the entries created so far with the context error.
func (s *Service) ImportLogbook(ctx context.Context, userID int64, source, filename string, data []byte) ([]database.LogbookEntry, ingest.Report, error) {
	id := s.uploadID()
	s.logs().Begin(id)
	h := database.UploadHistory{UploadID: id, UserID: userID, Kind: "logbook", Source: source, Filename: filename}

	if s.Store == nil {
		s.finish(ctx, h, ErrNoStore, "")
		return nil, ingest.Report{}, ErrNoStore
	}
	if err := checkSize("logbook", data, s.Limits.MaxCSVBytes); err != nil {
		s.finish(ctx, h, err, "")
		return nil, ingest.Report{}, err
	}

	entries, err := logbook.Parse(source, data, userID)
	if err != nil {
		err = fmt.Errorf("parse logbook: %w", err)
		s.finish(ctx, h, err, "")
		return nil, ingest.Report{}, err
	}
	if limit := s.Limits.MaxLogbookEntries; limit > 0 && len(entries) > limit {
		err = fmt.Errorf("%w: %s entries, at most %s allowed", ErrTooManyEntries,
			humanize.Comma(int64(len(entries))), humanize.Comma(int64(limit)))
		s.finish(ctx, h, err, "")
		return nil, ingest.Report{}, err
	}
	s.logs().Logf(id, "Logbook", "%s entries parsed from %q", humanize.Comma(int64(len(entries))), filename)

	batch := &ingest.Batch[database.LogbookEntry]{
		ChunkSize:   s.ChunkSize,
		Pause:       s.Pause,
		Workers:     s.Workers,
		Create:      s.Store.CreateLogbookEntry,
		IsDuplicate: database.IsDuplicate,
		Logf:        func(format string, args ...any) { s.logs().Logf(id, "Ingest", format, args...) },
		Progress:    s.Progress,
	}
	created, rep, err := batch.Run(ctx, entries)

	h.Submitted, h.Created, h.Duplicates, h.Failed = rep.Submitted, rep.Created, rep.Duplicates, rep.Failed
	if err != nil {
		h.Status = "partial"
		s.finish(ctx, h, fmt.Errorf("import logbook: %w", err), "")
		return created, rep, err
	}
	s.finish(ctx, h, nil, fmt.Sprintf("%q: %s created, %s duplicates, %s failed", filename,
		humanize.Comma(int64(rep.Created)), humanize.Comma(int64(rep.Duplicates)), humanize.Comma(int64(rep.Failed))))
	return created, rep, nil
}
