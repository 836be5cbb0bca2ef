package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"flown-records/pkg/telemetry"
)

// Coordinates are stored as zstd-compressed JSON. One encoder and decoder
// pair is built on first use and shared; EncodeAll and DecodeAll are safe for
// concurrent use.
type coordsCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var loadCoordsCodec = sync.OnceValues(func() (*coordsCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &coordsCodec{enc: enc, dec: dec}, nil
})

func encodeCoords(coords []telemetry.Record) ([]byte, error) {
	raw, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("encode coords: %w", err)
	}
	codec, err := loadCoordsCodec()
	if err != nil {
		return nil, err
	}
	return codec.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

func decodeCoords(blob []byte) ([]telemetry.Record, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	codec, err := loadCoordsCodec()
	if err != nil {
		return nil, err
	}
	raw, err := codec.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress coords: %w", err)
	}
	var coords []telemetry.Record
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil, fmt.Errorf("decode coords: %w", err)
	}
	return coords, nil
}

// SaveRecording stores a recording and returns it with its id.
func (db *Database) SaveRecording(ctx context.Context, r Recording) (Recording, error) {
	blob, err := encodeCoords(r.Coords)
	if err != nil {
		return Recording{}, err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.CreatedAt = time.Unix(r.CreatedAt.Unix(), 0).UTC()
	args := []any{r.UserID, r.Source, r.Name, r.Description, r.RawPoints, len(r.Coords), blob, r.CreatedAt.Unix()}
	const cols = "user_id,source,name,description,raw_points,point_count,coords,created_at"

	switch db.Driver {
	case "pgx":
		q := fmt.Sprintf(`INSERT INTO flight_recordings (%s) VALUES (%s) RETURNING id`, cols, placeholders(db.Driver, len(args)))
		if err := db.DB.QueryRowContext(ctx, q, args...).Scan(&r.ID); err != nil {
			return Recording{}, fmt.Errorf("save recording: %w", err)
		}
	default:
		id, err := db.nextID(ctx)
		if err != nil {
			return Recording{}, fmt.Errorf("save recording: %w", err)
		}
		q := fmt.Sprintf(`INSERT INTO flight_recordings (id,%s) VALUES (%s)`, cols, placeholders(db.Driver, len(args)+1))
		if _, err := db.DB.ExecContext(ctx, q, append([]any{id}, args...)...); err != nil {
			return Recording{}, fmt.Errorf("save recording: %w", err)
		}
		r.ID = id
	}
	db.logf("[recording:%d] stored %d points (%d raw) in %d bytes", r.ID, len(r.Coords), r.RawPoints, len(blob))
	return r, nil
}

// LoadRecording fetches a recording with its coordinates. A missing id is
// ErrNotFound.
func (db *Database) LoadRecording(ctx context.Context, id int64) (Recording, error) {
	q := fmt.Sprintf(`SELECT id,user_id,source,name,description,raw_points,coords,created_at
FROM flight_recordings WHERE id = %s`, placeholder(db.Driver, 1))

	var (
		r       Recording
		blob    []byte
		created int64
	)
	err := db.DB.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.UserID, &r.Source, &r.Name,
		&r.Description, &r.RawPoints, &blob, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Recording{}, fmt.Errorf("load recording %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Recording{}, fmt.Errorf("load recording %d: %w", id, err)
	}
	if r.Coords, err = decodeCoords(blob); err != nil {
		return Recording{}, fmt.Errorf("load recording %d: %w", id, err)
	}
	r.CreatedAt = time.Unix(created, 0).UTC()
	return r, nil
}
