package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flown-records/pkg/database"
	"flown-records/pkg/downsample"
	"flown-records/pkg/flightdata"
	"flown-records/pkg/logger"
)

type fakeStore struct {
	mu         sync.Mutex
	seen       map[string]bool
	entries    []database.LogbookEntry
	recordings []database.Recording
	history    []database.UploadHistory
	failKey    string
}

func newFakeStore() *fakeStore { return &fakeStore{seen: map[string]bool{}} }

func (f *fakeStore) CreateLogbookEntry(_ context.Context, e database.LogbookEntry) (database.LogbookEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.Date == f.failKey {
		return database.LogbookEntry{}, errors.New("disk full")
	}
	if f.seen[e.Unique] {
		return database.LogbookEntry{}, fmt.Errorf("create logbook entry: %w", database.ErrDuplicate)
	}
	f.seen[e.Unique] = true
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeStore) SaveRecording(_ context.Context, r database.Recording) (database.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = int64(len(f.recordings) + 1)
	f.recordings = append(f.recordings, r)
	return r, nil
}

func (f *fakeStore) RecordUpload(_ context.Context, h database.UploadHistory) (database.UploadHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = int64(len(f.history) + 1)
	f.history = append(f.history, h)
	return h, nil
}

func newTestService(store Store, limits Limits) (*Service, *bytes.Buffer) {
	var out bytes.Buffer
	s := New(store, limits)
	s.Log = logger.New(log.New(&out, "", 0))
	s.Pause = -1
	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("upload-%d", n) }
	return s, &out
}

const logbookCSV = `Date,From,To,Registration,Total
2024-05-01,EGKB,EGTK,G-ABCD,1:00
2024-05-02,EGTK,EGKB,G-ABCD,1:10
2024-05-03,EGKB,EGLM,G-ABCD,0:40
`

func TestImportLogbook(t *testing.T) {
	store := newFakeStore()
	s, out := newTestService(store, DefaultLimits())
	ctx := context.Background()

	created, rep, err := s.ImportLogbook(ctx, 9, "CSV", "log.csv", []byte(logbookCSV))
	require.NoError(t, err)
	assert.Len(t, created, 3)
	assert.Equal(t, 3, rep.Created)

	store.failKey = "2024-05-03"
	again := logbookCSV + "2024-05-04,EGLM,EGKB,G-ABCD,0:45\n"
	created, rep, err = s.ImportLogbook(ctx, 9, "CSV", "log.csv", []byte(again))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "2024-05-04", created[0].Date)
	assert.Equal(t, 2, rep.Duplicates)
	assert.Equal(t, 1, rep.Failed)

	s.logs().Sync()
	require.Len(t, store.history, 2)
	h := store.history[1]
	assert.Equal(t, "upload-2", h.UploadID)
	assert.Equal(t, "logbook", h.Kind)
	assert.Equal(t, "imported", h.Status)
	assert.Equal(t, 4, h.Submitted)
	assert.Equal(t, 1, h.Created)
	assert.Equal(t, 2, h.Duplicates)
	assert.Equal(t, 1, h.Failed)
	assert.Contains(t, out.String(), `"log.csv": 1 created, 2 duplicates, 1 failed`)
	assert.NotContains(t, out.String(), "disk full", "detail lines dropped on success")
}

func TestImportLogbookLimits(t *testing.T) {
	store := newFakeStore()
	s, out := newTestService(store, Limits{MaxCSVBytes: 16, MaxLogbookEntries: 2})

	_, _, err := s.ImportLogbook(context.Background(), 9, "CSV", "big.csv", []byte(logbookCSV))
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "16 B limit")

	s.Limits.MaxCSVBytes = 1 << 20
	_, _, err = s.ImportLogbook(context.Background(), 9, "CSV", "many.csv", []byte(logbookCSV))
	require.ErrorIs(t, err, ErrTooManyEntries)
	assert.Empty(t, store.entries)

	s.logs().Sync()
	require.Len(t, store.history, 2)
	assert.Equal(t, "failed", store.history[0].Status)
	assert.Contains(t, out.String(), "[ERROR]")
}

func TestImportLogbookCancelled(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestService(store, DefaultLimits())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.ImportLogbook(ctx, 9, "CSV", "log.csv", []byte(logbookCSV))
	require.ErrorIs(t, err, context.Canceled)
	s.logs().Sync()
	require.Len(t, store.history, 1)
	assert.Equal(t, "partial", store.history[0].Status)
}

func airnavKML(n int) []byte {
	var sb strings.Builder
	sb.WriteString(`<kml><Document><name>Long haul</name><Folder><name>Positions</name>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, `<Placemark><name>%d</name><Point><coordinates>%f,%f,1000</coordinates></Point></Placemark>`,
			i, -0.45+float64(i)*0.0001, 51.47+float64(i)*0.0001)
	}
	sb.WriteString(`</Folder></Document></kml>`)
	return []byte(sb.String())
}

func TestImportRecording(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestService(store, DefaultLimits())

	rec, err := s.ImportRecording(context.Background(), 3, "AIRNAV", "flight.kml", airnavKML(6001))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, "Long haul", rec.Name)
	assert.Equal(t, 6001, rec.RawPoints)
	assert.LessOrEqual(t, len(rec.Coords), downsample.MaxPoints)
	assert.Equal(t, "0", rec.Coords[0].ID)
	assert.Equal(t, "6000", rec.Coords[len(rec.Coords)-1].ID)

	s.logs().Sync()
	require.Len(t, store.history, 1)
	assert.Equal(t, "recording", store.history[0].Kind)
	assert.Equal(t, "imported", store.history[0].Status)
	assert.Equal(t, 6001, store.history[0].Submitted)
}

func TestImportWithoutStore(t *testing.T) {
	s, out := newTestService(nil, DefaultLimits())
	ctx := context.Background()

	created, rep, err := s.ImportLogbook(ctx, 1, "CSV", "log.csv", []byte(logbookCSV))
	require.ErrorIs(t, err, ErrNoStore)
	assert.Empty(t, created)
	assert.Zero(t, rep)

	_, err = s.ImportRecording(ctx, 1, "AIRNAV", "flight.kml", airnavKML(3))
	require.ErrorIs(t, err, ErrNoStore)

	s.logs().Sync()
	assert.Contains(t, out.String(), "no store configured")
}

func TestImportRecordingRejections(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestService(store, DefaultLimits())

	_, err := s.ImportRecording(context.Background(), 3, "FR24", "flight.kml", airnavKML(2))
	require.ErrorIs(t, err, ErrUnsupportedSource)
	assert.Contains(t, err.Error(), "unsupported KML source: FR24")

	_, err = s.ImportRecording(context.Background(), 3, "AIRNAV", "flight.kml", []byte("<kml><Document/></kml>"))
	require.Error(t, err)

	_, err = s.ImportRecording(context.Background(), 3, "AIRNAV", "empty.kml", nil)
	require.Error(t, err)

	assert.Empty(t, store.recordings)
	s.logs().Sync()
	assert.Len(t, store.history, 3)
}

func TestParseFlightFileDownsamples(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<kml><Document><Placemark><name>long</name><LineString><coordinates>`)
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "%d,%d,%d ", i, i, i*100)
	}
	sb.WriteString(`</coordinates></LineString></Placemark></Document></kml>`)

	s, _ := newTestService(nil, Limits{MaxKMLBytes: 1 << 20, MaxCoordinatePoints: 5})
	parsed, err := s.ParseFlightFile(flightdata.FormatKML, []byte(sb.String()))
	require.NoError(t, err)
	require.Len(t, parsed.Flights, 1)
	p := parsed.Flights[0]
	assert.LessOrEqual(t, len(p.Points), 5)
	assert.Equal(t, 19.0, p.Points[len(p.Points)-1].Latitude)
	assert.Equal(t, 1900.0, p.Metadata.MaxAltitude, "metadata keeps full resolution")

	_, err = s.ParseFlightFile(flightdata.FormatKML, []byte("broken"))
	assert.Error(t, err)

	s.Limits.MaxKMLBytes = 10
	_, err = s.ParseFlightFile(flightdata.FormatKML, []byte(sb.String()))
	assert.ErrorIs(t, err, ErrTooLarge)
}
