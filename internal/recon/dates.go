package recon

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DisplayDateLayout is the canonical DD-MM-YYYY rendering.
const DisplayDateLayout = "02-01-2006"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15",
	"2006-01-02 15",
	"2006-01-02",
	"2006-01",
	"20060102T150405Z0700",
	"20060102T150405",
	"20060102",
}

// fallbackLayouts covers the free-form dates a statement may carry when the value
// is not dash separated. Slash dates are read month first.
var fallbackLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"2006/1/2",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Mon, 02 Jan 2006",
}

// NormalizeDate renders raw as DD-MM-YYYY, or returns "" when it cannot be read.
//
// ISO-8601 is tried first. Otherwise a dash separated value with three parts is
// read day first when the first part exceeds 12, month first when only the second
// part exceeds 12, and day first when both are 12 or less. Out of range days and
// months roll over into the following month or year, and two digit years land in
// the 1900s.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatDisplay(t.Year(), t.Month(), t.Day())
		}
	}

	parts := strings.Split(s, "-")
	if len(parts) == 3 {
		return fromDashParts(parts)
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatDisplay(t.Year(), t.Month(), t.Day())
		}
	}
	return ""
}

func fromDashParts(parts []string) string {
	n1, ok1 := numberValue(parts[0])
	n2, ok2 := numberValue(parts[1])
	year, ok3 := numberValue(parts[2])
	if !ok1 || !ok2 || !ok3 {
		return ""
	}

	day, month := n1, n2
	if n1 <= 12 && n2 > 12 {
		day, month = n2, n1
	}

	if year >= 0 && year <= 99 {
		year += 1900
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return formatDisplay(t.Year(), t.Month(), t.Day())
}

// numberValue reads a date component the way a loosely typed numeric
// conversion would: blank is zero, fractions are truncated.
func numberValue(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if math.Abs(f) > 1e7 {
		return 0, false
	}
	return int(f), true
}

func formatDisplay(year int, month time.Month, day int) string {
	if year < 1 || year > 9999 {
		return ""
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(DisplayDateLayout)
}
