package database

import (
	"time"

	"flown-records/pkg/telemetry"
)

// LogbookEntry is one line of a pilot logbook. Unique is derived from the
// entry's identity fields so a re-uploaded logbook collides instead of
// doubling up. Times are decimal hours.
type LogbookEntry struct {
	ID                   int64     `json:"id"`
	Unique               string    `json:"unique"`
	UserID               int64     `json:"userId"`
	Date                 string    `json:"date,omitempty"` // YYYY-MM-DD
	DepAd                string    `json:"depAd,omitempty"`
	ArrAd                string    `json:"arrAd,omitempty"`
	OffBlock             string    `json:"offBlock,omitempty"` // HH:MM
	OnBlock              string    `json:"onBlock,omitempty"`
	AircraftType         string    `json:"aircraftType,omitempty"`
	AircraftRegistration string    `json:"aircraftRegistration,omitempty"`
	PICName              string    `json:"picName,omitempty"`
	Total                float64   `json:"total"`
	DayTime              float64   `json:"dayTime"`
	NightTime            float64   `json:"nightTime"`
	PICTime              float64   `json:"picTime"`
	DualTime             float64   `json:"dualTime"`
	LandDay              int       `json:"landDay"`
	LandNight            int       `json:"landNight"`
	Remarks              string    `json:"remarks,omitempty"`
	Source               string    `json:"source,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

// Recording is a flight recorded position by position. Coords is stored as
// an opaque compressed blob; RawPoints counts the fixes before downsampling.
type Recording struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"userId"`
	Source      string             `json:"source"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	RawPoints   int                `json:"rawPoints"`
	Coords      []telemetry.Record `json:"coords"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// UploadHistory is one row per upload attempt. The table is informational:
// wiping it never touches logbook or recording data.
type UploadHistory struct {
	ID         int64     `json:"id"`
	UploadID   string    `json:"uploadId"`
	UserID     int64     `json:"userId"`
	Kind       string    `json:"kind"` // "logbook" or "recording"
	Source     string    `json:"source"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	Submitted  int       `json:"submitted"`
	Created    int       `json:"created"`
	Duplicates int       `json:"duplicates"`
	Failed     int       `json:"failed"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
