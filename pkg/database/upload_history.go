package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecordUpload stores the outcome of one upload attempt. Status defaults to
// "imported".
func (db *Database) RecordUpload(ctx context.Context, h UploadHistory) (UploadHistory, error) {
	h.UploadID = strings.TrimSpace(h.UploadID)
	if h.UploadID == "" {
		return UploadHistory{}, errors.New("record upload: empty upload id")
	}
	h.Status = strings.TrimSpace(h.Status)
	if h.Status == "" {
		h.Status = "imported"
	}
	h.Message = strings.TrimSpace(h.Message)
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	h.CreatedAt = time.Unix(h.CreatedAt.Unix(), 0).UTC()

	const cols = "upload_id,user_id,kind,source,filename,status,submitted,created,duplicates,failed,message,created_at"
	args := []any{h.UploadID, h.UserID, h.Kind, h.Source, h.Filename, h.Status,
		h.Submitted, h.Created, h.Duplicates, h.Failed, h.Message, h.CreatedAt.Unix()}

	switch db.Driver {
	case "pgx":
		q := fmt.Sprintf(`INSERT INTO upload_history (%s) VALUES (%s) RETURNING id`, cols, placeholders(db.Driver, len(args)))
		if err := db.DB.QueryRowContext(ctx, q, args...).Scan(&h.ID); err != nil {
			return UploadHistory{}, fmt.Errorf("insert upload history: %w", err)
		}
	default:
		id, err := db.nextID(ctx)
		if err != nil {
			return UploadHistory{}, fmt.Errorf("insert upload history: %w", err)
		}
		q := fmt.Sprintf(`INSERT INTO upload_history (id,%s) VALUES (%s)`, cols, placeholders(db.Driver, len(args)+1))
		if _, err := db.DB.ExecContext(ctx, q, append([]any{id}, args...)...); err != nil {
			return UploadHistory{}, fmt.Errorf("insert upload history: %w", err)
		}
		h.ID = id
	}
	return h, nil
}

// ListUploads returns a user's upload attempts, newest first.
func (db *Database) ListUploads(ctx context.Context, userID int64) ([]UploadHistory, error) {
	q := fmt.Sprintf(`SELECT id,upload_id,user_id,kind,source,filename,status,submitted,created,
duplicates,failed,message,created_at FROM upload_history WHERE user_id = %s
ORDER BY created_at DESC, id DESC`, placeholder(db.Driver, 1))
	rows, err := db.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var out []UploadHistory
	for rows.Next() {
		var (
			h       UploadHistory
			created int64
		)
		if err := rows.Scan(&h.ID, &h.UploadID, &h.UserID, &h.Kind, &h.Source, &h.Filename,
			&h.Status, &h.Submitted, &h.Created, &h.Duplicates, &h.Failed, &h.Message, &created); err != nil {
			return nil, fmt.Errorf("scan upload history: %w", err)
		}
		h.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return out, nil
}
