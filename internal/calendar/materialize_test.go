package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/planner-api/internal/models"
)

// fall 2026: instruction runs Monday September 21 through Friday
// December 4.
func testTerm() models.TermCalendar {
	return models.TermCalendar{
		Term:              "FA26",
		InstructionBegins: time.Date(2026, time.September, 21, 0, 0, 0, 0, time.UTC),
		InstructionEnds:   time.Date(2026, time.December, 4, 0, 0, 0, 0, time.UTC),
		FinalsBegin:       time.Date(2026, time.December, 7, 0, 0, 0, 0, time.UTC),
		FinalsEnd:         time.Date(2026, time.December, 11, 0, 0, 0, 0, time.UTC),
	}
}

func courseEvent(meetings ...models.MeetingPattern) models.CalendarEvent {
	return models.CalendarEvent{
		Kind: models.EventKindCourse,
		Course: &models.CourseEventDetail{
			CourseEvent: models.CourseEvent{ID: "ce-1", ScheduleID: "sch-1", SectionCode: 40111, Term: "FA26", Color: "#ff5722"},
			Info: models.SectionInfo{
				Code: 40111, Term: "FA26", Subject: "CSE", Number: "101", Title: "Algorithms",
				Meetings: meetings,
			},
		},
	}
}

func TestMaterializeCourseWeekly(t *testing.T) {
	ev := courseEvent(models.MeetingPattern{Days: "MWF", Times: "9:00-9:50a", Location: "Center Hall 115"})
	win := Window{
		Start: time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.September, 27, 0, 0, 0, 0, time.UTC),
	}

	occs, evErrs := NewMaterializer(nil).Materialize([]models.CalendarEvent{ev}, []models.TermCalendar{testTerm()}, win)
	require.Empty(t, evErrs)
	require.Len(t, occs, 3, "Mon, Wed, Fri of the first instruction week")

	for i, occ := range occs {
		assert.Equal(t, "ce-1", occ.EventID)
		assert.Equal(t, models.EventKindCourse, occ.Kind)
		assert.Equal(t, "CSE 101", occ.Title)
		assert.Equal(t, "Center Hall 115", occ.Location)
		assert.Equal(t, 9, occ.Start.Hour())
		assert.Equal(t, 50, occ.End.Minute())
		assert.Equal(t, occ.Start.Day(), occ.End.Day(), "begin %d pairs with the end on the same date", i)
		assert.Equal(t, 0, occ.Meeting)
	}
	assert.Equal(t, time.Weekday(time.Monday), occs[0].Start.Weekday())
	assert.Equal(t, time.Wednesday, occs[1].Start.Weekday())
	assert.Equal(t, time.Friday, occs[2].Start.Weekday())
}

func TestMaterializeCourseBoundedByInstruction(t *testing.T) {
	ev := courseEvent(models.MeetingPattern{Days: "F", Times: "1:00-1:50p", Location: "WLH 2001"})
	// window extends well past the end of instruction
	win := Window{
		Start: time.Date(2026, time.November, 29, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2027, time.January, 10, 0, 0, 0, 0, time.UTC),
	}

	occs, evErrs := NewMaterializer(nil).Materialize([]models.CalendarEvent{ev}, []models.TermCalendar{testTerm()}, win)
	require.Empty(t, evErrs)
	require.Len(t, occs, 1, "only the final instruction-week Friday remains")
	assert.Equal(t, time.Date(2026, time.December, 4, 13, 0, 0, 0, time.UTC), occs[0].Start)
}

func TestMaterializeCourseMissingTermSkipped(t *testing.T) {
	ev := courseEvent(models.MeetingPattern{Days: "MWF", Times: "9:00-9:50a"})
	win := Window{Start: time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC), End: time.Date(2026, time.September, 27, 0, 0, 0, 0, time.UTC)}

	occs, evErrs := NewMaterializer(nil).Materialize([]models.CalendarEvent{ev}, nil, win)
	assert.Empty(t, occs, "no term calendar: event is omitted, not failed")
	assert.Empty(t, evErrs)
}

func TestMaterializeCourseMalformedMeetingSkipped(t *testing.T) {
	ev := courseEvent(
		models.MeetingPattern{Days: "MWF", Times: "TBA", Location: "TBA"},
		models.MeetingPattern{Days: "Tu", Times: "5:00-6:20p", Location: "York 2622"},
		models.MeetingPattern{Days: "", Times: "9:00-9:50a", Location: "online"},
	)
	win := Window{
		Start: time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.September, 27, 0, 0, 0, 0, time.UTC),
	}

	occs, evErrs := NewMaterializer(nil).Materialize([]models.CalendarEvent{ev}, []models.TermCalendar{testTerm()}, win)
	require.Empty(t, evErrs)
	require.Len(t, occs, 1, "malformed and async meetings are skipped, valid one survives")
	assert.Equal(t, time.Tuesday, occs[0].Start.Weekday())
	assert.Equal(t, 17, occs[0].Start.Hour())
	assert.Equal(t, 1, occs[0].Meeting, "occurrence attributes back to its meeting pattern")
}

func TestMaterializeDeclinedOccurrencesFiltered(t *testing.T) {
	ev := courseEvent(models.MeetingPattern{Days: "MWF", Times: "9:00-9:50a"})
	declined := time.Date(2026, time.September, 23, 9, 0, 0, 0, time.UTC) // the Wednesday
	ev.Course.Declined = []time.Time{declined}
	win := Window{
		Start: time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.September, 27, 0, 0, 0, 0, time.UTC),
	}

	occs, evErrs := NewMaterializer(nil).Materialize([]models.CalendarEvent{ev}, []models.TermCalendar{testTerm()}, win)
	require.Empty(t, evErrs)
	require.Len(t, occs, 2)
	for _, occ := range occs {
		assert.NotEqual(t, declined, occ.Start)
	}
}

func TestMaterializeCustomRuleErrorIsolated(t *testing.T) {
	freq := string(models.FreqWeekly)
	start := time.Date(2026, time.September, 21, 18, 0, 0, 0, time.UTC)
	bad := models.CalendarEvent{
		Kind: models.EventKindCustom,
		// weekly with an empty day set: contract violation
		Custom: &models.CustomEvent{ID: "cu-bad", StartAt: start, EndAt: start.Add(time.Hour), Frequency: &freq, Interval: 1},
	}
	good := models.CalendarEvent{
		Kind:   models.EventKindCustom,
		Custom: &models.CustomEvent{ID: "cu-good", StartAt: start, EndAt: start.Add(time.Hour)},
	}
	win := Window{Start: start.AddDate(0, 0, -1), End: start.AddDate(0, 0, 6)}

	occs, evErrs := NewMaterializer(nil).Materialize([]models.CalendarEvent{bad, good}, nil, win)
	require.Len(t, evErrs, 1, "bad rule fails only its own event")
	assert.Equal(t, "cu-bad", evErrs[0].EventID)
	require.Len(t, occs, 1)
	assert.Equal(t, "cu-good", occs[0].EventID)
}

func TestMaterializeNewPseudoEvent(t *testing.T) {
	start := time.Date(2026, time.September, 22, 15, 0, 0, 0, time.UTC)
	draft := models.CalendarEvent{
		Kind:   models.EventKindCustom,
		Custom: &models.CustomEvent{ID: models.NewEventID, StartAt: start, EndAt: start.Add(time.Hour), Color: "#2196f3"},
	}
	win := Window{Start: start.AddDate(0, 0, -1), End: start.AddDate(0, 0, 6)}

	occs, evErrs := NewMaterializer(nil).Materialize([]models.CalendarEvent{draft}, nil, win)
	require.Empty(t, evErrs)
	require.Len(t, occs, 1, "the in-progress event renders like any non-recurring custom event")
	assert.Equal(t, models.NewEventID, occs[0].EventID)
}

func TestMaterializeEndToEndScenario(t *testing.T) {
	// Schedule with one weekly Mon/Wed study block ending after three
	// weeks, over a four-week visible window.
	start := time.Date(2026, time.September, 21, 14, 0, 0, 0, time.UTC) // a Monday
	until := start.AddDate(0, 0, 18)                                   // covers exactly three Mon/Wed weeks
	freq := string(models.FreqCustomWeekly)
	ev := models.CalendarEvent{
		Kind: models.EventKindCustom,
		Custom: &models.CustomEvent{
			ID:         "cu-study",
			ScheduleID: "sch-1",
			Title:      "Study",
			StartAt:    start,
			EndAt:      start.Add(time.Hour),
			Color:      "#4caf50",
			Frequency:  &freq,
			Interval:   1,
			Days:       []int64{int64(time.Monday), int64(time.Wednesday)},
			Until:      &until,
		},
	}
	win := Window{Start: start.AddDate(0, 0, -1), End: start.AddDate(0, 0, 28)}

	occs, evErrs := NewMaterializer(nil).Materialize([]models.CalendarEvent{ev}, nil, win)
	require.Empty(t, evErrs)
	require.Len(t, occs, 6, "two per week for three weeks")
	for i, occ := range occs {
		assert.Equal(t, time.Hour, occ.End.Sub(occ.Start), "occurrence %d is one hour", i)
		assert.False(t, occ.Start.After(until), "occurrence %d past the end date", i)
		assert.Equal(t, "Study", occ.Title)
		assert.Equal(t, i, occ.Index)
	}
}
