// Package uploads is the entry point for user files: it enforces size
// limits, runs the matching parser, bounds point counts and hands records to
// the store through a batch ingester.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"flown-records/pkg/database"
	"flown-records/pkg/ingest"
	"flown-records/pkg/logger"
)

var (
	ErrTooLarge          = errors.New("upload too large")
	ErrTooManyEntries    = errors.New("too many logbook entries")
	ErrUnsupportedSource = errors.New("unsupported recording source")
	ErrNoStore           = errors.New("uploads: no store configured")
)

// Limits bound what one upload may contain.
type Limits struct {
	MaxCSVBytes         int64
	MaxKMLBytes         int64
	MaxLogbookEntries   int
	MaxCoordinatePoints int
}

func DefaultLimits() Limits {
	return Limits{
		MaxCSVBytes:         50 << 20,
		MaxKMLBytes:         100 << 20,
		MaxLogbookEntries:   10000,
		MaxCoordinatePoints: 50000,
	}
}

// Store is the persistence the service needs. *database.Database satisfies it.
type Store interface {
	CreateLogbookEntry(ctx context.Context, e database.LogbookEntry) (database.LogbookEntry, error)
	SaveRecording(ctx context.Context, r database.Recording) (database.Recording, error)
	RecordUpload(ctx context.Context, h database.UploadHistory) (database.UploadHistory, error)
}

// Service handles uploads for any number of users. The zero values of the
// batch fields fall back to the ingest defaults.
type Service struct {
	Store  Store
	Limits Limits

	ChunkSize int
	Pause     time.Duration
	Workers   int
	Progress  chan<- ingest.Progress

	Log   *logger.Buffer
	newID func() string
}

func New(store Store, limits Limits) *Service {
	return &Service{
		Store:  store,
		Limits: limits,
		Log:    logger.Default(),
		newID:  uuid.NewString,
	}
}

func (s *Service) logs() *logger.Buffer {
	if s.Log == nil {
		return logger.Default()
	}
	return s.Log
}

func (s *Service) uploadID() string {
	if s.newID == nil {
		return uuid.NewString()
	}
	return s.newID()
}

func checkSize(kind string, data []byte, limit int64) error {
	if limit > 0 && int64(len(data)) > limit {
		return fmt.Errorf("%w: %s file of %s exceeds the %s limit", ErrTooLarge, kind,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(limit)))
	}
	if len(data) == 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

// finish settles the log buffer and writes the history row. A failing
// history write is logged, never returned: the upload itself already
// happened.
func (s *Service) finish(ctx context.Context, h database.UploadHistory, err error, summary string) {
	if err != nil {
		h.Message = err.Error()
		if h.Status == "" {
			h.Status = "failed"
		}
		s.logs().FlushError(h.UploadID, err)
	} else {
		if h.Status == "" {
			h.Status = "imported"
		}
		s.logs().Success(h.UploadID, summary)
	}
	if s.Store == nil {
		return
	}
	if _, herr := s.Store.RecordUpload(context.WithoutCancel(ctx), h); herr != nil {
		// The buffer is gone by now, so this line is written directly.
		s.logs().Logf(h.UploadID, "History", "record upload: %v", herr)
	}
}
