package models

import (
	"time"

	"github.com/lib/pq"
)

// EventKind discriminates the two calendar event variants.
type EventKind string

const (
	EventKindCourse EventKind = "COURSE"
	EventKindCustom EventKind = "CUSTOM"
)

// NewEventID identifies the uncommitted in-progress event synthesized by
// the calendar session before the user saves it. It is never persisted.
const NewEventID = "new"

// Frequency enumerates recurrence presets plus the custom variants.
// Presets always have interval 1 and no explicit end date; only the
// custom variants may carry an arbitrary interval and an end date.
type Frequency string

const (
	FreqNone          Frequency = "NONE"
	FreqDaily         Frequency = "DAILY"
	FreqWeekly        Frequency = "WEEKLY"
	FreqWeekday       Frequency = "WEEKDAY"
	FreqMonthly       Frequency = "MONTHLY"
	FreqCustomDaily   Frequency = "CUSTOM_DAILY"
	FreqCustomWeekly  Frequency = "CUSTOM_WEEKLY"
	FreqCustomMonthly Frequency = "CUSTOM_MONTHLY"
	FreqCustomYearly  Frequency = "CUSTOM_YEARLY"
)

// Custom reports whether the frequency is one of the custom variants.
func (f Frequency) Custom() bool {
	switch f {
	case FreqCustomDaily, FreqCustomWeekly, FreqCustomMonthly, FreqCustomYearly:
		return true
	}
	return false
}

// Weekly reports whether the frequency requires a non-empty day-of-week set.
func (f Frequency) Weekly() bool {
	return f == FreqWeekly || f == FreqCustomWeekly
}

// Valid reports whether f is a known frequency value.
func (f Frequency) Valid() bool {
	switch f {
	case FreqNone, FreqDaily, FreqWeekly, FreqWeekday, FreqMonthly,
		FreqCustomDaily, FreqCustomWeekly, FreqCustomMonthly, FreqCustomYearly:
		return true
	}
	return false
}

// Recurrence describes how a custom event repeats.
type Recurrence struct {
	Frequency Frequency      `json:"frequency"`
	Interval  int            `json:"interval"`
	Days      []time.Weekday `json:"days,omitempty"`
	Until     *time.Time     `json:"until,omitempty"`
}

// DaySet returns the day-of-week membership as a lookup map.
func (r Recurrence) DaySet() map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(r.Days))
	for _, d := range r.Days {
		set[d] = true
	}
	return set
}

// Weekdays is the fixed Monday through Friday day set used by the
// WEEKDAY preset.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// CourseEvent links a registered course section to a schedule. Its
// occurrences are derived from the section's meeting patterns and the
// owning term's instruction dates; the row itself never changes except
// for color and the declined occurrence set.
type CourseEvent struct {
	ID          string      `db:"id" json:"id"`
	ScheduleID  string      `db:"schedule_id" json:"schedule_id"`
	SectionCode int         `db:"section_code" json:"section_code"`
	Term        string      `db:"term" json:"term"`
	Color       string      `db:"color" json:"color"`
	Declined    []time.Time `db:"-" json:"declined,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// CustomEvent is a user-authored calendar block with an optional
// recurrence. The recurrence is persisted as four columns (frequency,
// interval, day set, until) and reconstructed losslessly on read.
type CustomEvent struct {
	ID          string        `db:"id" json:"id"`
	ScheduleID  string        `db:"schedule_id" json:"schedule_id"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	StartAt     time.Time     `db:"start_at" json:"start_at"`
	EndAt       time.Time     `db:"end_at" json:"end_at"`
	Color       string        `db:"color" json:"color"`
	Frequency   *string       `db:"frequency" json:"frequency,omitempty"`
	Interval    int           `db:"interval" json:"interval"`
	Days        pq.Int64Array `db:"days" json:"days,omitempty"`
	Until       *time.Time    `db:"until" json:"until,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Recurrence reconstructs the recurrence rule from the persisted
// columns. A missing frequency means the event does not repeat.
func (e CustomEvent) Recurrence() Recurrence {
	if e.Frequency == nil || *e.Frequency == "" {
		return Recurrence{Frequency: FreqNone, Interval: 1}
	}
	rec := Recurrence{Frequency: Frequency(*e.Frequency), Interval: e.Interval, Until: e.Until}
	if rec.Interval < 1 {
		rec.Interval = 1
	}
	for _, d := range e.Days {
		rec.Days = append(rec.Days, time.Weekday(d))
	}
	return rec
}

// SetRecurrence writes the recurrence rule into the persisted columns.
func (e *CustomEvent) SetRecurrence(rec Recurrence) {
	if rec.Frequency == "" || rec.Frequency == FreqNone {
		e.Frequency = nil
		e.Interval = 1
		e.Days = nil
		e.Until = nil
		return
	}
	freq := string(rec.Frequency)
	e.Frequency = &freq
	e.Interval = rec.Interval
	if e.Interval < 1 {
		e.Interval = 1
	}
	e.Days = nil
	for _, d := range rec.Days {
		e.Days = append(e.Days, int64(d))
	}
	e.Until = rec.Until
}

// CourseEventDetail joins a course event row with its resolved section
// info from the catalog.
type CourseEventDetail struct {
	CourseEvent
	Info SectionInfo `json:"info"`
}

// CalendarEvent is the unit rendered on the calendar: a tagged union of
// the course and custom variants. Exactly one of Course or Custom is
// set, matching Kind.
type CalendarEvent struct {
	Kind   EventKind          `json:"kind"`
	Course *CourseEventDetail `json:"course,omitempty"`
	Custom *CustomEvent       `json:"custom,omitempty"`
}

// ID returns the stable identifier of the underlying event.
func (e CalendarEvent) ID() string {
	if e.Kind == EventKindCourse && e.Course != nil {
		return e.Course.ID
	}
	if e.Custom != nil {
		return e.Custom.ID
	}
	return ""
}

// Color returns the display color of the underlying event.
func (e CalendarEvent) Color() string {
	if e.Kind == EventKindCourse && e.Course != nil {
		return e.Course.Color
	}
	if e.Custom != nil {
		return e.Custom.Color
	}
	return ""
}

// Title derives the display title. Course events use the catalog
// subject and number; untitled custom events fall back to a placeholder.
func (e CalendarEvent) Title() string {
	if e.Kind == EventKindCourse && e.Course != nil {
		return e.Course.Info.DisplayName()
	}
	if e.Custom != nil {
		if e.Custom.Title == "" {
			return "(No title)"
		}
		return e.Custom.Title
	}
	return ""
}
