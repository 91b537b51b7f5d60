package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeetingDays(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    []time.Weekday
	}{
		{"mwf", "MWF", []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{"tuth", "TuTh", []time.Weekday{time.Tuesday, time.Thursday}},
		{"single", "W", []time.Weekday{time.Wednesday}},
		{"weekend", "SaSu", []time.Weekday{time.Saturday, time.Sunday}},
		{"all week", "MTuWThF", []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
		{"empty means async", "", nil},
		{"unknown residue ignored", "MXF", []time.Weekday{time.Monday, time.Friday}},
		{"duplicate collapsed", "MM", []time.Weekday{time.Monday}},
		{"no match at all", "ZZZ", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseMeetingDays(tc.pattern))
		})
	}
}

func TestParseTimeRangeMeridiemInference(t *testing.T) {
	ref := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		input     string
		wantStart string
		wantEnd   string
	}{
		{"trailing am inherited", "9:00-9:50a", "09:00", "09:50"},
		{"trailing pm inherited", "1:00-1:50p", "13:00", "13:50"},
		{"explicit on both", "11:00a-12:50p", "11:00", "12:50"},
		{"leading pm inherited", "2:00p-3:15", "14:00", "15:15"},
		{"no markers default am", "9:30-10:20", "09:30", "10:20"},
		{"noon is 12p", "12:00p-12:50p", "12:00", "12:50"},
		{"midnight is 12a", "12:00a-12:30a", "00:00", "00:30"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end, err := ParseTimeRange(tc.input, ref)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStart, start.Format("15:04"))
			assert.Equal(t, tc.wantEnd, end.Format("15:04"))
			assert.Equal(t, ref.Year(), start.Year())
			assert.Equal(t, ref.Day(), start.Day())
		})
	}
}

func TestParseTimeRangeMalformed(t *testing.T) {
	ref := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)

	for _, input := range []string{"", "TBA", "9:00", "9-10", "25:00-26:00", "9:99-10:15"} {
		t.Run(input, func(t *testing.T) {
			_, _, err := ParseTimeRange(input, ref)
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
		})
	}
}
