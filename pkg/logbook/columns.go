package logbook

import (
	"strings"
	"unicode"
)

type column int

const (
	colDate column = iota
	colDep
	colArr
	colOffBlock
	colOnBlock
	colType
	colRegistration
	colPICName
	colTotal
	colDay
	colNight
	colPICTime
	colDual
	colLandDay
	colLandNight
	colRemarks
	numColumns
)

// aliases lists header spellings per column after normalization (lower case,
// letters and digits only). Order matters only inside one column.
var aliases = [numColumns][]string{
	colDate:         {"date", "flightdate", "dateofflight"},
	colDep:          {"from", "departure", "dep", "depad", "departureairport", "departureplace", "origin"},
	colArr:          {"to", "arrival", "arr", "arrad", "arrivalairport", "arrivalplace", "destination"},
	colOffBlock:     {"offblock", "out", "deptime", "departuretime", "timeout", "offblocktime"},
	colOnBlock:      {"onblock", "in", "arrtime", "arrivaltime", "timein", "onblocktime"},
	colType:         {"aircrafttype", "type", "actype", "aircraftmodel", "model"},
	colRegistration: {"registration", "aircraftregistration", "reg", "acreg", "tail", "tailnumber"},
	colPICName:      {"picname", "nameofpic", "pilotincommand", "captain"},
	colTotal:        {"total", "totaltime", "totalflighttime", "blocktime", "duration"},
	colDay:          {"day", "daytime"},
	colNight:        {"night", "nighttime"},
	colPICTime:      {"pic", "pictime"},
	colDual:         {"dual", "dualtime", "dualreceived"},
	colLandDay:      {"landingsday", "daylandings", "landday", "ldgday"},
	colLandNight:    {"landingsnight", "nightlandings", "landnight", "ldgnight"},
	colRemarks:      {"remarks", "remark", "notes", "comments"},
}

// headerScanRows bounds how far down a sheet the header may sit.
const headerScanRows = 20

func normalizeHeader(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// mapHeader assigns each column the first cell matching one of its aliases.
// Unmapped columns are -1.
func mapHeader(row []string) [numColumns]int {
	var cols [numColumns]int
	for i := range cols {
		cols[i] = -1
	}
	for idx, cell := range row {
		name := normalizeHeader(cell)
		if name == "" {
			continue
		}
	match:
		for c := column(0); c < numColumns; c++ {
			if cols[c] != -1 {
				continue
			}
			for _, a := range aliases[c] {
				if a == name {
					cols[c] = idx
					break match
				}
			}
		}
	}
	return cols
}

// findHeader returns the first row that maps a date column and at least one
// of departure, arrival or total time.
func findHeader(rows [][]string) (int, [numColumns]int, bool) {
	for i, row := range rows {
		if i >= headerScanRows {
			break
		}
		cols := mapHeader(row)
		if cols[colDate] >= 0 && (cols[colDep] >= 0 || cols[colArr] >= 0 || cols[colTotal] >= 0) {
			return i, cols, true
		}
	}
	return 0, [numColumns]int{}, false
}

func cell(row []string, cols [numColumns]int, c column) string {
	idx := cols[c]
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
