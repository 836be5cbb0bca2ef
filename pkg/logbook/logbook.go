// Package logbook reads pilot logbook exports (CSV and XLSX) into database
// entries ready for batch ingestion.
package logbook

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"flown-records/pkg/database"
)

const (
	SourceCSV          = "CSV"
	SourceFlightLogger = "FLIGHTLOGGER"
	SourceXLSX         = "XLSX"
)

var (
	ErrUnsupportedSource = errors.New("unsupported logbook source")
	ErrNoHeader          = errors.New("no logbook header row found")
	ErrNoEntries         = errors.New("no valid logbook entries found")
)

// Parse reads a logbook file. The header row is located by column aliases,
// so exports with title rows above the table still work. Rows with neither a
// date nor a route are skipped.
func Parse(source string, data []byte, userID int64) ([]database.LogbookEntry, error) {
	src := strings.ToUpper(strings.TrimSpace(source))

	var (
		rows [][]string
		err  error
	)
	switch src {
	case SourceCSV, SourceFlightLogger:
		rows, err = readCSV(data)
	case SourceXLSX:
		rows, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
	if err != nil {
		return nil, err
	}

	header, cols, ok := findHeader(rows)
	if !ok {
		return nil, ErrNoHeader
	}

	var entries []database.LogbookEntry
	for _, row := range rows[header+1:] {
		e, ok := entryFromRow(row, cols)
		if !ok {
			continue
		}
		e.UserID = userID
		e.Source = src
		e.Unique = UniqueKey(userID, e)
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

// UniqueKey is the BLAKE2b-256 digest of the fields that identify a flight
// for one user. Re-uploading the same logbook yields the same keys.
func UniqueKey(userID int64, e database.LogbookEntry) string {
	sum := blake2b.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s|%s|%s|%s",
		userID, e.Date, e.DepAd, e.ArrAd, e.OffBlock, e.OnBlock, e.AircraftRegistration)))
	return hex.EncodeToString(sum[:])
}
