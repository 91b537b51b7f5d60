// Package calendar unifies persisted course and custom events into one
// event model, expands them into concrete occurrences for a visible
// window, and drives the interactive edit session for a schedule view.
package calendar

import (
	"github.com/campusplan/planner-api/internal/models"
)

// Normalize merges raw course-event and custom-event rows into the
// unified calendar event list. Course rows are resolved against the
// catalog lookup keyed by (section code, term); rows whose section no
// longer exists in the catalog are dropped, not failed, so one stale
// registration cannot blank the calendar. Custom rows pass through
// with their recurrence reconstructed from the persisted columns.
func Normalize(courseRows []models.CourseEvent, customRows []models.CustomEvent, sections map[models.SectionKey]models.SectionInfo) []models.CalendarEvent {
	events := make([]models.CalendarEvent, 0, len(courseRows)+len(customRows))

	for _, row := range courseRows {
		info, ok := sections[models.SectionKey{Code: row.SectionCode, Term: row.Term}]
		if !ok {
			continue
		}
		row := row
		events = append(events, models.CalendarEvent{
			Kind:   models.EventKindCourse,
			Course: &models.CourseEventDetail{CourseEvent: row, Info: info},
		})
	}

	for _, row := range customRows {
		row := row
		events = append(events, models.CalendarEvent{
			Kind:   models.EventKindCustom,
			Custom: &row,
		})
	}

	return events
}
