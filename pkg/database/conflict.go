package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"flown-records/pkg/ingest"
)

// ErrDuplicate is wrapped into every uniqueness violation returned by this
// package. It is the ingest sentinel, so a Batch needs no custom classifier.
var ErrDuplicate = ingest.ErrDuplicate

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// IsDuplicate reports whether err is a uniqueness violation, either already
// wrapped by this package or still in its raw driver form.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	return isUniqueViolation(err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		if liteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return false
		}
	}

	return messageIsConflict(err)
}

// messageIsConflict covers engines whose drivers expose no typed error.
// DuckDB reports "Constraint Error: Duplicate key ...", Genji "duplicate
// document" or "UNIQUE constraint error".
func messageIsConflict(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"duplicate key",
		"unique constraint",
		"duplicate document",
		"update the same row twice",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
