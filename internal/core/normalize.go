package core

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order; the first match wins. Single-digit
// layout elements let Go accept both "06-28-2014" and "6-28-14".
var dateLayouts = []string{
	"1-2-2006", // month-day-year
	"1-2-06",   // month-day-year, two-digit year
	"2006-1-2", // year-month-day
	"2-1-2006", // day-month-year
}

// numericRun matches the first contiguous digit-and-dot run, which is how
// extraction output embeds numbers inside unit suffixes ("3EA", "0.41 lb",
// "$1.29", "0.29/EA").
var numericRun = regexp.MustCompile(`[0-9.]+`)

// ParseDate converts a loosely formatted date string to a calendar date.
// It never fails hard: an empty or unrecognized string reports false.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	slog.Warn("could not parse date", "raw", raw)
	return time.Time{}, false
}

// ParseQuantity extracts a numeric quantity from strings like "3EA", "2"
// or "0.41 lb". Reports false when no numeric run exists.
func ParseQuantity(raw string) (float64, bool) {
	run := numericRun.FindString(raw)
	if run == "" {
		return 0, false
	}
	q, err := strconv.ParseFloat(run, 64)
	if err != nil {
		return 0, false
	}
	return q, true
}

// ParsePrice extracts a monetary amount from strings like "$1.29",
// "0.29/EA" or "1.29". Reports false when no positive amount can be
// recovered; a zero amount counts as absent, same as the source system.
func ParsePrice(raw string) (Money, bool) {
	run := numericRun.FindString(raw)
	if run == "" {
		return Money{}, false
	}
	cents, ok := DecimalToCents(run)
	if !ok {
		return Money{}, false
	}
	return Money{Cents: cents}, true
}
