package database

import (
	"context"
	"fmt"
	"time"
)

// StreamLogbookEntries streams a user's entries row by row through a channel,
// oldest first. It avoids loading large logbooks into memory and stops when
// the context is done. The error channel carries at most one value and is
// closed after the entry channel.
func (db *Database) StreamLogbookEntries(ctx context.Context, userID int64) (<-chan LogbookEntry, <-chan error) {
	out := make(chan LogbookEntry)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		defer close(out)

		q := fmt.Sprintf(`SELECT id,%s FROM logbook_entries WHERE user_id = %s ORDER BY date, id`,
			logbookColumns, placeholder(db.Driver, 1))
		rows, err := db.DB.QueryContext(ctx, q, userID)
		if err != nil {
			errCh <- fmt.Errorf("query logbook entries: %w", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e       LogbookEntry
				created int64
			)
			if err := rows.Scan(&e.ID, &e.Unique, &e.UserID, &e.Date, &e.DepAd, &e.ArrAd,
				&e.OffBlock, &e.OnBlock, &e.AircraftType, &e.AircraftRegistration, &e.PICName,
				&e.Total, &e.DayTime, &e.NightTime, &e.PICTime, &e.DualTime, &e.LandDay,
				&e.LandNight, &e.Remarks, &e.Source, &created); err != nil {
				errCh <- fmt.Errorf("scan logbook entry: %w", err)
				return
			}
			e.CreatedAt = time.Unix(created, 0).UTC()
			select {
			case out <- e:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- fmt.Errorf("iterate logbook entries: %w", err)
		}
	}()

	return out, errCh
}
