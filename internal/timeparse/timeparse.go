// Package timeparse converts scraped meeting-pattern text into
// structured day sets and times of day. The registrar's listings use
// run-together day abbreviations ("MWF", "TuTh") and time ranges with
// at most one meridiem marker ("12:30-1:50p"), so parsing is heuristic
// by necessity.
package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseError reports meeting text that does not match the expected
// shape. Callers skip the offending meeting rather than failing the
// whole materialization.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("timeparse: %s: %q", e.Reason, e.Input)
}

// dayAbbrevs maps registrar day abbreviations to weekdays. Two-letter
// abbreviations must be tried before one-letter ones so that "Tu" does
// not match as an unknown "T" followed by residue.
var dayAbbrevs = []struct {
	abbr string
	day  time.Weekday
}{
	{"Tu", time.Tuesday},
	{"Th", time.Thursday},
	{"Sa", time.Saturday},
	{"Su", time.Sunday},
	{"M", time.Monday},
	{"W", time.Wednesday},
	{"F", time.Friday},
}

// ParseMeetingDays parses a concatenation of day abbreviations into an
// ordered, de-duplicated weekday list. At each position the longest
// known abbreviation wins; characters that match nothing are skipped.
// An empty result means the section has no regular meeting (async or
// independent study).
func ParseMeetingDays(pattern string) []time.Weekday {
	var days []time.Weekday
	seen := make(map[time.Weekday]bool)

	for i := 0; i < len(pattern); {
		matched := false
		for _, cand := range dayAbbrevs {
			if strings.HasPrefix(pattern[i:], cand.abbr) {
				if !seen[cand.day] {
					seen[cand.day] = true
					days = append(days, cand.day)
				}
				i += len(cand.abbr)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return days
}

var timeRangePattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})([ap])?\s*-\s*(\d{1,2}):(\d{2})([ap])?\s*$`)

// ParseTimeRange parses "H:MMx-H:MMy" into two instants on ref's
// calendar date, where x and y are optional 'a'/'p' meridiem letters.
// If exactly one side carries a marker the other side inherits it; if
// neither does, both default to AM. This mirrors the registrar's
// abbreviated listings and is known to be ambiguous for unmarked ranges
// crossing noon.
func ParseTimeRange(s string, ref time.Time) (time.Time, time.Time, error) {
	m := timeRangePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, time.Time{}, &ParseError{Input: s, Reason: "time range does not match H:MM-H:MM"}
	}

	startMeridiem, endMeridiem := m[3], m[6]
	if startMeridiem == "" {
		startMeridiem = endMeridiem
	}
	if endMeridiem == "" {
		endMeridiem = startMeridiem
	}
	if startMeridiem == "" {
		startMeridiem = "a"
		endMeridiem = "a"
	}

	start, err := timeOfDay(m[1], m[2], startMeridiem, ref)
	if err != nil {
		return time.Time{}, time.Time{}, &ParseError{Input: s, Reason: err.Error()}
	}
	end, err := timeOfDay(m[4], m[5], endMeridiem, ref)
	if err != nil {
		return time.Time{}, time.Time{}, &ParseError{Input: s, Reason: err.Error()}
	}
	return start, end, nil
}

func timeOfDay(hourStr, minStr, meridiem string, ref time.Time) (time.Time, error) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return time.Time{}, fmt.Errorf("hour %q out of range", hourStr)
	}
	min, err := strconv.Atoi(minStr)
	if err != nil || min > 59 {
		return time.Time{}, fmt.Errorf("minute %q out of range", minStr)
	}

	if meridiem == "p" && hour != 12 {
		hour += 12
	}
	if meridiem == "a" && hour == 12 {
		hour = 0
	}

	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, min, 0, 0, ref.Location()), nil
}
