package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/planner-api/internal/models"
)

func TestNormalizeDropsUnresolvedCourseRows(t *testing.T) {
	courseRows := []models.CourseEvent{
		{ID: "ce-1", ScheduleID: "sch-1", SectionCode: 40111, Term: "FA26", Color: "#ff0000"},
		{ID: "ce-2", ScheduleID: "sch-1", SectionCode: 40999, Term: "FA26", Color: "#00ff00"},
	}
	sections := map[models.SectionKey]models.SectionInfo{
		{Code: 40111, Term: "FA26"}: {Code: 40111, Term: "FA26", Subject: "CSE", Number: "101", Title: "Algorithms"},
	}

	events := Normalize(courseRows, nil, sections)
	require.Len(t, events, 1, "row with a section missing from the catalog is omitted")
	assert.Equal(t, "ce-1", events[0].ID())
	assert.Equal(t, models.EventKindCourse, events[0].Kind)
	assert.Equal(t, "CSE 101", events[0].Title())
}

func TestNormalizeCustomPassThrough(t *testing.T) {
	start := time.Date(2026, time.September, 7, 14, 0, 0, 0, time.UTC)
	freq := string(models.FreqCustomWeekly)
	customRows := []models.CustomEvent{
		{
			ID:         "cu-1",
			ScheduleID: "sch-1",
			Title:      "Study",
			StartAt:    start,
			EndAt:      start.Add(time.Hour),
			Color:      "#336699",
			Frequency:  &freq,
			Interval:   2,
			Days:       []int64{int64(time.Monday), int64(time.Wednesday)},
		},
		{ID: "cu-2", ScheduleID: "sch-1", StartAt: start, EndAt: start.Add(time.Hour)},
	}

	events := Normalize(nil, customRows, nil)
	require.Len(t, events, 2)

	rec := events[0].Custom.Recurrence()
	assert.Equal(t, models.FreqCustomWeekly, rec.Frequency)
	assert.Equal(t, 2, rec.Interval)
	assert.ElementsMatch(t, []time.Weekday{time.Monday, time.Wednesday}, rec.Days)

	assert.Equal(t, models.FreqNone, events[1].Custom.Recurrence().Frequency, "absent frequency means no recurrence")
	assert.Equal(t, "(No title)", events[1].Title(), "untitled events render a placeholder")
}

func TestRecurrenceRoundTrip(t *testing.T) {
	until := time.Date(2026, time.December, 4, 0, 0, 0, 0, time.UTC)
	cases := []models.Recurrence{
		{Frequency: models.FreqNone, Interval: 1},
		{Frequency: models.FreqDaily, Interval: 1},
		{Frequency: models.FreqWeekly, Interval: 1, Days: []time.Weekday{time.Friday}},
		{Frequency: models.FreqWeekday, Interval: 1, Days: append([]time.Weekday(nil), models.Weekdays...)},
		{Frequency: models.FreqCustomWeekly, Interval: 3, Days: []time.Weekday{time.Tuesday, time.Thursday}, Until: &until},
		{Frequency: models.FreqCustomMonthly, Interval: 2, Until: &until},
	}

	for _, rec := range cases {
		t.Run(string(rec.Frequency), func(t *testing.T) {
			var ev models.CustomEvent
			ev.SetRecurrence(rec)
			got := ev.Recurrence()
			assert.Equal(t, rec.Frequency, got.Frequency)
			assert.Equal(t, rec.Interval, got.Interval)
			assert.ElementsMatch(t, rec.Days, got.Days, "day set survives as a set")
			assert.Equal(t, rec.Until, got.Until)
		})
	}
}

func TestKindDiscrimination(t *testing.T) {
	// A calendar event is a course event iff it carries a section code;
	// the explicit Kind tag is the single source of that distinction.
	course := models.CalendarEvent{
		Kind:   models.EventKindCourse,
		Course: &models.CourseEventDetail{CourseEvent: models.CourseEvent{ID: "ce-1", SectionCode: 40111, Color: "#abc"}},
	}
	custom := models.CalendarEvent{
		Kind:   models.EventKindCustom,
		Custom: &models.CustomEvent{ID: "cu-1", Color: "#def"},
	}
	assert.Equal(t, "#abc", course.Color())
	assert.Equal(t, "#def", custom.Color())
	assert.Equal(t, "ce-1", course.ID())
	assert.Equal(t, "cu-1", custom.ID())
}
