// Package nlp provides the deterministic language plumbing for Poshbot.
//
// This file implements date normalization for the raw date-of-birth text.
package nlp

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ordinalSuffixRe strips English ordinal suffixes from day numbers, turning
// "8th January 1995" into "8 January 1995" before parsing.
var ordinalSuffixRe = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

// dayFirstLayouts cover the month-name phrasings that the generic parser
// does not resolve on its own.
var dayFirstLayouts = []string{
	"2 January 2006",
	"January 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2006 January 2",
}

// NormalizeDate parses free-form human date text into a calendar date at
// midnight UTC. It accepts day-month-year in various orders, ordinal
// suffixes, and month names. Failure is reported as an error value; no
// parse failure escapes this boundary as a panic.
func NormalizeDate(raw string) (time.Time, error) {
	cleaned := strings.TrimSpace(ordinalSuffixRe.ReplaceAllString(raw, "$1"))
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date text %q", raw)
	}

	if t, err := dateparse.ParseAny(cleaned); err == nil {
		slog.Debug("NormalizeDate parsed", "raw", raw, "date", t.Format("2006-01-02"))
		return truncateToDate(t), nil
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			slog.Debug("NormalizeDate parsed via layout", "raw", raw, "layout", layout)
			return truncateToDate(t), nil
		}
	}

	slog.Debug("NormalizeDate failed", "raw", raw)
	return time.Time{}, fmt.Errorf("unrecognized date format %q", raw)
}

// truncateToDate drops any time-of-day component, keeping the calendar date
// in UTC.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
