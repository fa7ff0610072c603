// Package normalize converts raw spreadsheet text into canonical values.
// Every function is pure: the same input always yields the same value or a
// definite "absent" result, and failures are reported via the ok return
// rather than errors so callers can decide how loudly to complain.
package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Epoch seconds accepted as a date value, roughly 1970 through 2100.
const (
	minUnixSeconds = 0
	maxUnixSeconds = 4102444800
)

// BankICICI is the one bank that emits month-first dates. Every other bank
// writes day-first with the same separators, so the bank identity is the only
// way to disambiguate a string like "07/02/2025".
const BankICICI = "ICICI"

// Layouts use unpadded day/month so both "7/2/2025" and "07/02/2025" parse,
// matching the leniency of the source data.
var monthFirstLayouts = []string{
	"1-2-2006 3:04:05 PM",
	"1-2-2006 15:04:05",
	"1-2-2006",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
}

var dayFirstLayouts = []string{
	"2-1-2006 15:04:05",
	"2/1/2006 15:04:05",
	"2-1-2006 3:04:05 PM",
	"2-1-2006 3:04 PM",
	"2-1-2006",
	"2/1/2006",
	"2/1/06",
}

var yearFirstLayouts = []string{
	"2006-1-2 15:04:05",
	"2006-1-2",
}

// Date parses a raw date value with a bank-dependent format preference.
// A digits-only value is treated as Unix epoch seconds. Otherwise the
// bank-preferred format list is tried first, the other order second, and
// year-first layouts last; the first successful parse wins. The returned
// instant is timezone-naive (UTC). ok is false when nothing matched.
func Date(raw, bankHint string) (time.Time, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return time.Time{}, false
	}

	if isDigits(cleaned) {
		return unixSeconds(cleaned)
	}

	// Go's reference layouts want uppercase meridiem markers.
	cleaned = strings.ReplaceAll(cleaned, "am", "AM")
	cleaned = strings.ReplaceAll(cleaned, "pm", "PM")

	var ordered []string
	if strings.EqualFold(strings.TrimSpace(bankHint), BankICICI) {
		ordered = append(append([]string{}, monthFirstLayouts...), dayFirstLayouts...)
	} else {
		ordered = append(append([]string{}, dayFirstLayouts...), monthFirstLayouts...)
	}
	ordered = append(ordered, yearFirstLayouts...)

	for _, layout := range ordered {
		if t, err := time.ParseInLocation(layout, cleaned, time.UTC); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// unixSeconds interprets a digit string as epoch seconds within the accepted
// range. Values outside [1970, 2100] are rejected rather than produce absurd
// transaction dates.
func unixSeconds(s string) (time.Time, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	if v < minUnixSeconds || v > maxUnixSeconds {
		return time.Time{}, false
	}
	return time.Unix(v, 0).UTC(), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
