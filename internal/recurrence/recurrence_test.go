package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/planner-api/internal/models"
)

// Monday September 7, 2026.
var monday = time.Date(2026, time.September, 7, 14, 0, 0, 0, time.UTC)

func window(weeks int) (time.Time, time.Time) {
	start := time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, weeks*7)
}

func TestExpandNone(t *testing.T) {
	winStart, winEnd := window(4)

	spans, err := Expand(models.Recurrence{Frequency: models.FreqNone, Interval: 1}, monday, monday.Add(time.Hour), winStart, winEnd)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, monday, spans[0].Start)
	assert.Equal(t, monday.Add(time.Hour), spans[0].End)

	// Outside the window the single occurrence is dropped.
	spans, err = Expand(models.Recurrence{Frequency: models.FreqNone, Interval: 1}, monday.AddDate(1, 0, 0), monday.AddDate(1, 0, 0).Add(time.Hour), winStart, winEnd)
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestExpandWeeklyWithUntil(t *testing.T) {
	winStart, winEnd := window(4)
	until := monday.AddDate(0, 0, 18) // Friday of the third week

	rule := models.Recurrence{
		Frequency: models.FreqCustomWeekly,
		Interval:  1,
		Days:      []time.Weekday{time.Monday, time.Wednesday},
		Until:     &until,
	}
	spans, err := Expand(rule, monday, monday.Add(time.Hour), winStart, winEnd)
	require.NoError(t, err)
	require.Len(t, spans, 6, "two per week for three weeks")

	for i, sp := range spans {
		assert.Equal(t, time.Hour, sp.End.Sub(sp.Start), "span %d duration", i)
		assert.False(t, sp.Start.After(until), "span %d starts after the end date", i)
		wd := sp.Start.Weekday()
		assert.True(t, wd == time.Monday || wd == time.Wednesday)
		if i > 0 {
			assert.True(t, spans[i-1].Start.Before(sp.Start), "ascending order")
		}
	}
}

func TestExpandWeekdayPreset(t *testing.T) {
	winStart, winEnd := window(1)

	spans, err := Expand(models.Recurrence{Frequency: models.FreqWeekday, Interval: 1}, monday, monday.Add(30*time.Minute), winStart, winEnd)
	require.NoError(t, err)
	require.Len(t, spans, 5)
	for _, sp := range spans {
		assert.NotEqual(t, time.Saturday, sp.Start.Weekday())
		assert.NotEqual(t, time.Sunday, sp.Start.Weekday())
		assert.Equal(t, 14, sp.Start.Hour())
	}
}

func TestExpandDailyBoundedByWindow(t *testing.T) {
	winStart, winEnd := window(1)

	spans, err := Expand(models.Recurrence{Frequency: models.FreqDaily, Interval: 1}, monday, monday.Add(time.Hour), winStart, winEnd)
	require.NoError(t, err)
	// Monday 14:00 through Saturday 14:00; the Sunday instance falls
	// past the window end at midnight.
	require.Len(t, spans, 6)
	assert.Equal(t, monday, spans[0].Start)
}

func TestExpandCustomInterval(t *testing.T) {
	winStart, winEnd := window(6)

	rule := models.Recurrence{
		Frequency: models.FreqCustomWeekly,
		Interval:  2,
		Days:      []time.Weekday{time.Monday},
	}
	spans, err := Expand(rule, monday, monday.Add(time.Hour), winStart, winEnd)
	require.NoError(t, err)
	require.Len(t, spans, 3)
	assert.Equal(t, monday, spans[0].Start)
	assert.Equal(t, monday.AddDate(0, 0, 14), spans[1].Start)
	assert.Equal(t, monday.AddDate(0, 0, 28), spans[2].Start)
}

func TestExpandMonthly(t *testing.T) {
	winStart := monday.AddDate(0, 0, -7)
	winEnd := monday.AddDate(0, 3, 0)

	spans, err := Expand(models.Recurrence{Frequency: models.FreqCustomMonthly, Interval: 1}, monday, monday.Add(time.Hour), winStart, winEnd)
	require.NoError(t, err)
	require.Len(t, spans, 4)
	for _, sp := range spans {
		assert.Equal(t, 7, sp.Start.Day(), "same day of month as the base start")
	}
}

func TestExpandPositionalPairing(t *testing.T) {
	winStart, winEnd := window(2)

	rule := models.Recurrence{
		Frequency: models.FreqCustomWeekly,
		Interval:  1,
		Days:      []time.Weekday{time.Tuesday, time.Thursday},
	}
	start := time.Date(2026, time.September, 8, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.September, 8, 10, 30, 0, 0, time.UTC)

	spans, err := Expand(rule, start, end, winStart, winEnd)
	require.NoError(t, err)
	require.Len(t, spans, 4)
	for i, sp := range spans {
		// The i-th begin is paired with the i-th end: always the same
		// calendar date, never the nearest end on a later date.
		assert.Equal(t, sp.Start.Day(), sp.End.Day(), "span %d begin/end on the same date", i)
		assert.Equal(t, 9, sp.Start.Hour())
		assert.Equal(t, 10, sp.End.Hour())
		assert.Equal(t, 30, sp.End.Minute())
	}
}

func TestExpandContractViolations(t *testing.T) {
	winStart, winEnd := window(1)
	base := monday
	baseEnd := monday.Add(time.Hour)

	tests := []struct {
		name string
		rule models.Recurrence
	}{
		{"zero interval", models.Recurrence{Frequency: models.FreqCustomWeekly, Interval: 0, Days: []time.Weekday{time.Monday}}},
		{"negative interval", models.Recurrence{Frequency: models.FreqCustomDaily, Interval: -2}},
		{"weekly empty day set", models.Recurrence{Frequency: models.FreqWeekly, Interval: 1}},
		{"custom weekly empty day set", models.Recurrence{Frequency: models.FreqCustomWeekly, Interval: 3}},
		{"preset with interval", models.Recurrence{Frequency: models.FreqDaily, Interval: 2}},
		{"unknown frequency", models.Recurrence{Frequency: "FORTNIGHTLY", Interval: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Expand(tc.rule, base, baseEnd, winStart, winEnd)
			require.Error(t, err)
			var rerr *RuleError
			assert.ErrorAs(t, err, &rerr)
		})
	}
}

func TestExpandNoDuplicatesAndRestartable(t *testing.T) {
	winStart, winEnd := window(3)
	rule := models.Recurrence{
		Frequency: models.FreqCustomWeekly,
		Interval:  1,
		Days:      []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}

	first, err := Expand(rule, monday, monday.Add(time.Hour), winStart, winEnd)
	require.NoError(t, err)
	second, err := Expand(rule, monday, monday.Add(time.Hour), winStart, winEnd)
	require.NoError(t, err)
	assert.Equal(t, first, second, "pure function of its inputs")

	seen := map[time.Time]bool{}
	for _, sp := range first {
		assert.False(t, seen[sp.Start], "duplicate start %v", sp.Start)
		seen[sp.Start] = true
	}
}
