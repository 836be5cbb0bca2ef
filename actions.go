package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"flown-records/pkg/config"
	"flown-records/pkg/database"
	"flown-records/pkg/downsample"
	"flown-records/pkg/flightdata"
	"flown-records/pkg/ingest"
	"flown-records/pkg/logbook"
	"flown-records/pkg/telemetry"
	"flown-records/pkg/trackexport"
	"flown-records/pkg/uploads"
)

// action is one CLI run, resolved from the flags.
type action struct {
	name      string
	file      string
	userID    int64
	source    string
	geojson   string
	kml       string
	tolerance float64
	dryRun    bool
}

func run(ctx context.Context, cfg config.Config, act action, out io.Writer) error {
	if act.name == "parse" {
		return runParse(cfg, act, out)
	}
	if act.dryRun {
		switch act.name {
		case "recording":
			return dryRunRecording(cfg, act, out)
		case "logbook":
			return dryRunLogbook(cfg, act, out)
		}
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("DB init: %w", err)
	}
	defer db.Close()
	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("DB schema: %w", err)
	}

	switch act.name {
	case "recording":
		return runRecording(ctx, cfg, db, act, out)
	case "logbook":
		return runLogbook(ctx, cfg, db, act, out)
	case "history":
		return runHistory(ctx, db, act, out)
	default:
		return fmt.Errorf("unknown action %q", act.name)
	}
}

func runParse(cfg config.Config, act action, out io.Writer) error {
	format, err := flightdata.FormatFromFilename(act.file)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(act.file)
	if err != nil {
		return err
	}
	svc, err := cfg.Service(nil)
	if err != nil {
		return err
	}

	parsed, err := svc.ParseFlightFile(format, data)
	if err != nil {
		return err
	}

	switch {
	case act.geojson != "":
		raw, err := trackexport.FlightsGeoJSON(parsed, act.tolerance)
		if err != nil {
			return err
		}
		if err := os.WriteFile(act.geojson, raw, 0o644); err != nil {
			return err
		}
		log.Printf("[parse] GeoJSON ➜ %s (%s)", act.geojson, humanize.IBytes(uint64(len(raw))))
	case act.kml != "":
		if err := writeFile(act.kml, func(w io.Writer) error { return trackexport.WriteFlightsKML(w, parsed) }); err != nil {
			return err
		}
		log.Printf("[parse] KML ➜ %s", act.kml)
	default:
		return writeJSON(out, parsed)
	}
	return nil
}

func runRecording(ctx context.Context, cfg config.Config, db *database.Database, act action, out io.Writer) error {
	data, err := os.ReadFile(act.file)
	if err != nil {
		return err
	}
	svc, err := cfg.Service(db)
	if err != nil {
		return err
	}

	rec, err := svc.ImportRecording(ctx, act.userID, act.source, filepath.Base(act.file), data)
	if err != nil {
		return err
	}

	if act.kml != "" {
		flight := &telemetry.RawFlight{Name: rec.Name, Description: rec.Description, Coords: rec.Coords}
		if err := writeFile(act.kml, func(w io.Writer) error { return trackexport.WriteRecordingKML(w, flight) }); err != nil {
			return err
		}
		log.Printf("[recording:%d] KML ➜ %s", rec.ID, act.kml)
	}
	return writeJSON(out, recordingSummary{
		ID:           rec.ID,
		Name:         rec.Name,
		Description:  rec.Description,
		RawPoints:    rec.RawPoints,
		StoredPoints: len(rec.Coords),
	})
}

type recordingSummary struct {
	ID           int64  `json:"id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	RawPoints    int    `json:"rawPoints"`
	StoredPoints int    `json:"storedPoints"`
}

func runLogbook(ctx context.Context, cfg config.Config, db *database.Database, act action, out io.Writer) error {
	data, err := os.ReadFile(act.file)
	if err != nil {
		return err
	}
	svc, err := cfg.Service(db)
	if err != nil {
		return err
	}

	progress := make(chan ingest.Progress, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			log.Printf("[logbook] chunk %d: %s/%s entries (%v)",
				p.Chunk, humanize.Comma(int64(p.Done)), humanize.Comma(int64(p.Total)), p.Duration.Round(time.Millisecond))
		}
	}()
	svc.Progress = progress

	_, report, err := svc.ImportLogbook(ctx, act.userID, logbookSource(act.file, act.source), filepath.Base(act.file), data)
	close(progress)
	<-done

	if werr := writeJSON(out, report); werr != nil && err == nil {
		err = werr
	}
	return err
}

func runHistory(ctx context.Context, db *database.Database, act action, out io.Writer) error {
	uploadsList, err := db.ListUploads(ctx, act.userID)
	if err != nil {
		return err
	}
	entries, err := db.ListLogbookEntries(ctx, act.userID)
	if err != nil {
		return err
	}
	return writeJSON(out, struct {
		UserID         int64                    `json:"userId"`
		LogbookEntries int                      `json:"logbookEntries"`
		Uploads        []database.UploadHistory `json:"uploads"`
	}{act.userID, len(entries), uploadsList})
}

func dryRunRecording(cfg config.Config, act action, out io.Writer) error {
	data, err := os.ReadFile(act.file)
	if err != nil {
		return err
	}
	res, err := telemetry.Parse(act.source, data)
	if err != nil {
		return err
	}
	if res.Flight == nil {
		return fmt.Errorf("%w: %s", uploads.ErrUnsupportedSource, res.Warning)
	}
	kept := downsample.Coordinates(res.Flight.Coords)
	return writeJSON(out, recordingSummary{
		Name:         res.Flight.Name,
		Description:  res.Flight.Description,
		RawPoints:    len(res.Flight.Coords),
		StoredPoints: len(kept),
	})
}

func dryRunLogbook(cfg config.Config, act action, out io.Writer) error {
	data, err := os.ReadFile(act.file)
	if err != nil {
		return err
	}
	entries, err := logbook.Parse(logbookSource(act.file, act.source), data, act.userID)
	if err != nil {
		return err
	}
	if limit := cfg.Limits.MaxLogbookEntries; limit > 0 && len(entries) > limit {
		return fmt.Errorf("%w: %s entries, at most %s allowed", uploads.ErrTooManyEntries,
			humanize.Comma(int64(len(entries))), humanize.Comma(int64(limit)))
	}
	return writeJSON(out, entries)
}

// logbookSource keeps an explicit logbook source and otherwise infers one
// from the file extension.
func logbookSource(file, src string) string {
	switch strings.ToUpper(strings.TrimSpace(src)) {
	case logbook.SourceCSV, logbook.SourceFlightLogger, logbook.SourceXLSX:
		return src
	}
	if strings.EqualFold(filepath.Ext(file), ".xlsx") {
		return logbook.SourceXLSX
	}
	return logbook.SourceCSV
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
