package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts tried in order; the first successful parse wins.
var dateLayouts = []string{
	"2006-01-02", // ISO
	"02/01/2006", // day-first slash form used by the exchange exports
	"20060102",   // compact numeric
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
}

var compactDatePattern = regexp.MustCompile(`^\d{8}$`)

// ParseFlexibleDate parses a date string using the fixed fallback chain:
// ISO, DD/MM/YYYY, YYYYMMDD, a few locale variants, and finally the relative
// keywords "today"/"yesterday" (Portuguese forms included). now supplies the
// clock for relative keywords.
func ParseFlexibleDate(text string, now func() time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if layout == "20060102" && !compactDatePattern.MatchString(trimmed) {
			continue
		}
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}

	switch lower := strings.ToLower(trimmed); {
	case strings.Contains(lower, "hoje"), strings.Contains(lower, "hj"), strings.Contains(lower, "today"):
		return truncateToDay(now()), nil
	case strings.Contains(lower, "ontem"), strings.Contains(lower, "yesterday"):
		return truncateToDay(now().AddDate(0, 0, -1)), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", trimmed)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ISODate formats a parsed date in ISO form (YYYY-MM-DD).
func ISODate(t time.Time) string { return t.Format("2006-01-02") }

// CompactDate formats a parsed date in compact numeric form (YYYYMMDD), the
// form used inside node identifiers.
func CompactDate(t time.Time) string { return t.Format("20060102") }
