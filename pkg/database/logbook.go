package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const logbookColumns = `unique_key,user_id,date,dep_ad,arr_ad,off_block,on_block,
aircraft_type,aircraft_registration,pic_name,total,day_time,night_time,pic_time,
dual_time,land_day,land_night,remarks,source,created_at`

func (e LogbookEntry) args() []any {
	return []any{
		e.Unique, e.UserID, e.Date, e.DepAd, e.ArrAd, e.OffBlock, e.OnBlock,
		e.AircraftType, e.AircraftRegistration, e.PICName, e.Total, e.DayTime,
		e.NightTime, e.PICTime, e.DualTime, e.LandDay, e.LandNight, e.Remarks,
		e.Source, e.CreatedAt.Unix(),
	}
}

// CreateLogbookEntry inserts one entry and returns it with its id. A
// collision on the unique key comes back wrapping ErrDuplicate; nothing is
// silently ignored so the caller can count duplicates.
func (db *Database) CreateLogbookEntry(ctx context.Context, e LogbookEntry) (LogbookEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.Unique == "" {
		return LogbookEntry{}, errors.New("create logbook entry: empty unique key")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.CreatedAt = time.Unix(e.CreatedAt.Unix(), 0).UTC()

	var err error
	switch db.Driver {
	case "pgx":
		q := fmt.Sprintf(`INSERT INTO logbook_entries (%s) VALUES (%s) RETURNING id`,
			logbookColumns, placeholders(db.Driver, 20))
		err = db.DB.QueryRowContext(ctx, q, e.args()...).Scan(&e.ID)
	default:
		var id int64
		if id, err = db.nextID(ctx); err != nil {
			return LogbookEntry{}, fmt.Errorf("create logbook entry: %w", err)
		}
		q := fmt.Sprintf(`INSERT INTO logbook_entries (id,%s) VALUES (%s)`,
			logbookColumns, placeholders(db.Driver, 21))
		if _, err = db.DB.ExecContext(ctx, q, append([]any{id}, e.args()...)...); err == nil {
			e.ID = id
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return LogbookEntry{}, fmt.Errorf("create logbook entry %.12s: %w: %w", e.Unique, ErrDuplicate, err)
		}
		return LogbookEntry{}, fmt.Errorf("create logbook entry: %w", err)
	}
	return e, nil
}

// ListLogbookEntries returns a user's entries oldest first.
func (db *Database) ListLogbookEntries(ctx context.Context, userID int64) ([]LogbookEntry, error) {
	entries, errs := db.StreamLogbookEntries(ctx, userID)
	var out []LogbookEntry
	for e := range entries {
		out = append(out, e)
	}
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("list logbook entries: %w", err)
	}
	return out, nil
}
