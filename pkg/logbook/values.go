package logbook

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"flown-records/pkg/database"
	"flown-records/pkg/flightpath"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func entryFromRow(row []string, cols [numColumns]int) (database.LogbookEntry, bool) {
	e := database.LogbookEntry{
		Date:                 parseDate(cell(row, cols, colDate)),
		DepAd:                strings.ToUpper(cell(row, cols, colDep)),
		ArrAd:                strings.ToUpper(cell(row, cols, colArr)),
		OffBlock:             parseClock(cell(row, cols, colOffBlock)),
		OnBlock:              parseClock(cell(row, cols, colOnBlock)),
		AircraftType:         cell(row, cols, colType),
		AircraftRegistration: strings.ToUpper(cell(row, cols, colRegistration)),
		PICName:              cell(row, cols, colPICName),
		Total:                parseHours(cell(row, cols, colTotal)),
		DayTime:              parseHours(cell(row, cols, colDay)),
		NightTime:            parseHours(cell(row, cols, colNight)),
		PICTime:              parseHours(cell(row, cols, colPICTime)),
		DualTime:             parseHours(cell(row, cols, colDual)),
		LandDay:              parseCount(cell(row, cols, colLandDay)),
		LandNight:            parseCount(cell(row, cols, colLandNight)),
		Remarks:              cell(row, cols, colRemarks),
	}
	if e.Date == "" && e.DepAd == "" && e.ArrAd == "" {
		return database.LogbookEntry{}, false
	}
	if e.Total == 0 {
		e.Total = blockHours(e.OffBlock, e.OnBlock)
	}
	return e, true
}

// parseDate normalizes to YYYY-MM-DD. Spreadsheet serial numbers are
// accepted; anything unrecognised is kept verbatim.
func parseDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 && serial < 80000 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// parseClock normalizes "9:05", "09:05" and "0905" to "09:05".
func parseClock(s string) string {
	if s == "" {
		return ""
	}
	var h, m int
	switch {
	case strings.Contains(s, ":"):
		parts := strings.SplitN(s, ":", 3)
		var err1, err2 error
		h, err1 = strconv.Atoi(parts[0])
		m, err2 = strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return s
		}
	case len(s) == 4:
		n, err := strconv.Atoi(s)
		if err != nil {
			return s
		}
		h, m = n/100, n%100
	default:
		return s
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return s
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// parseHours reads "H:MM" or decimal hours (a decimal comma is accepted).
// Unreadable values are zero. The result is rounded to 2 decimals.
func parseHours(s string) float64 {
	if s == "" {
		return 0
	}
	if h, m, ok := strings.Cut(s, ":"); ok {
		hours, err1 := strconv.Atoi(strings.TrimSpace(h))
		mins, err2 := strconv.Atoi(strings.TrimSpace(m))
		if err1 != nil || err2 != nil || hours < 0 || mins < 0 || mins > 59 {
			return 0
		}
		return round2(float64(hours) + float64(mins)/60)
	}
	v, ok := flightpath.ParseFloat(strings.Replace(s, ",", ".", 1))
	if !ok || v < 0 {
		return 0
	}
	return round2(v)
}

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// blockHours derives the block time from normalized clock values, wrapping
// past midnight.
func blockHours(off, on string) float64 {
	a, err1 := time.Parse("15:04", off)
	b, err2 := time.Parse("15:04", on)
	if err1 != nil || err2 != nil {
		return 0
	}
	d := b.Sub(a)
	if d < 0 {
		d += 24 * time.Hour
	}
	return round2(d.Hours())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
