package calendar

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campusplan/planner-api/internal/models"
	"github.com/campusplan/planner-api/internal/recurrence"
	"github.com/campusplan/planner-api/internal/timeparse"
)

// Window is the visible date range being materialized.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EventError reports an event that could not be rendered because its
// recurrence rule is invalid. Other events in the same batch are
// unaffected.
type EventError struct {
	EventID string `json:"event_id"`
	Message string `json:"message"`
}

// Materializer expands calendar events into concrete occurrences.
// Materialization is synchronous and stateless; it runs on every
// view-range change and tolerates partial data by omission.
type Materializer struct {
	logger *zap.Logger
}

// NewMaterializer constructs a materializer.
func NewMaterializer(logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materializer{logger: logger}
}

// Materialize produces the ordered occurrence list for the window.
// Course events expand each meeting pattern as a weekly rule bounded by
// the owning term's instruction dates; a missing term calendar or a
// malformed meeting pattern skips that meeting. Custom events expand
// their stored recurrence. Rule contract violations are reported per
// event in the second return value.
func (m *Materializer) Materialize(events []models.CalendarEvent, termCalendars []models.TermCalendar, win Window) ([]models.Occurrence, []EventError) {
	terms := make(map[string]models.TermCalendar, len(termCalendars))
	for _, tc := range termCalendars {
		terms[tc.Term] = tc
	}

	var out []models.Occurrence
	var evErrs []EventError

	for _, ev := range events {
		switch ev.Kind {
		case models.EventKindCourse:
			out = append(out, m.materializeCourse(ev, terms, win)...)
		case models.EventKindCustom:
			occs, err := m.materializeCustom(ev, win)
			if err != nil {
				evErrs = append(evErrs, EventError{EventID: ev.ID(), Message: err.Error()})
				continue
			}
			out = append(out, occs...)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].EventID < out[j].EventID
	})
	return out, evErrs
}

func (m *Materializer) materializeCourse(ev models.CalendarEvent, terms map[string]models.TermCalendar, win Window) []models.Occurrence {
	course := ev.Course
	term, ok := terms[course.Term]
	if !ok {
		m.logger.Warn("no term calendar for course event, skipping",
			zap.String("event_id", course.ID),
			zap.String("term", course.Term))
		return nil
	}

	declined := make(map[time.Time]bool, len(course.Declined))
	for _, d := range course.Declined {
		declined[d.UTC()] = true
	}

	var out []models.Occurrence
	for mi, meeting := range course.Info.Meetings {
		days := timeparse.ParseMeetingDays(meeting.Days)
		if len(days) == 0 {
			// Async or independent-study meeting: nothing to render.
			continue
		}
		startTOD, endTOD, err := timeparse.ParseTimeRange(meeting.Times, term.InstructionBegins)
		if err != nil {
			m.logger.Warn("unparseable meeting time range, skipping meeting",
				zap.String("event_id", course.ID),
				zap.Int("meeting", mi),
				zap.String("times", meeting.Times),
				zap.Error(err))
			continue
		}

		until := endOfDay(term.InstructionEnds)
		rule := models.Recurrence{
			Frequency: models.FreqCustomWeekly,
			Interval:  1,
			Days:      days,
			Until:     &until,
		}
		spans, err := recurrence.Expand(rule, startTOD, endTOD, win.Start, win.End)
		if err != nil {
			// The synthesized rule is under our control; a failure here
			// means the meeting data is unusable, not the whole event.
			m.logger.Warn("course meeting expansion failed, skipping meeting",
				zap.String("event_id", course.ID),
				zap.Int("meeting", mi),
				zap.Error(err))
			continue
		}

		for i, sp := range spans {
			if declined[sp.Start.UTC()] {
				continue
			}
			out = append(out, models.Occurrence{
				EventID:  course.ID,
				Kind:     models.EventKindCourse,
				Title:    ev.Title(),
				Color:    course.Color,
				Location: meeting.Location,
				Start:    sp.Start,
				End:      sp.End,
				Meeting:  mi,
				Index:    i,
			})
		}
	}
	return out
}

func (m *Materializer) materializeCustom(ev models.CalendarEvent, win Window) ([]models.Occurrence, error) {
	custom := ev.Custom
	spans, err := recurrence.Expand(custom.Recurrence(), custom.StartAt, custom.EndAt, win.Start, win.End)
	if err != nil {
		return nil, err
	}

	out := make([]models.Occurrence, 0, len(spans))
	for i, sp := range spans {
		out = append(out, models.Occurrence{
			EventID: custom.ID,
			Kind:    models.EventKindCustom,
			Title:   ev.Title(),
			Color:   custom.Color,
			Start:   sp.Start,
			End:     sp.End,
			Index:   i,
		})
	}
	return out, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
