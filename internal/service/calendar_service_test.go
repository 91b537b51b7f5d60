package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusplan/planner-api/internal/models"
)

type stubTermRepo struct {
	terms []models.TermCalendar
}

func (s *stubTermRepo) List(ctx context.Context) ([]models.TermCalendar, error) {
	return s.terms, nil
}

func (s *stubTermRepo) GetByTerm(ctx context.Context, term string) (*models.TermCalendar, error) {
	for i := range s.terms {
		if s.terms[i].Term == term {
			return &s.terms[i], nil
		}
	}
	return nil, nil
}

func (s *stubTermRepo) Upsert(ctx context.Context, tc *models.TermCalendar) error {
	for i := range s.terms {
		if s.terms[i].Term == tc.Term {
			s.terms[i] = *tc
			return nil
		}
	}
	s.terms = append(s.terms, *tc)
	return nil
}

func fallTerm() models.TermCalendar {
	return models.TermCalendar{
		Term:              "FA26",
		InstructionBegins: time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC),
		InstructionEnds:   time.Date(2026, 12, 4, 0, 0, 0, 0, time.UTC),
	}
}

func newCalendarService(events *stubEventRepo, resolver *stubSectionResolver, terms *stubTermRepo) *CalendarService {
	return NewCalendarService(events, resolver, terms, &stubScheduleGetter{}, nil, 0, zap.NewNop())
}

func TestRenderCourseWeek(t *testing.T) {
	events := &stubEventRepo{
		courses: []models.CourseEvent{{ID: "ce-1", ScheduleID: "s1", SectionCode: 12345, Term: "FA26", Color: "#ff0000"}},
	}
	resolver := &stubSectionResolver{infos: []models.SectionInfo{{
		Code: 12345, Term: "FA26", Subject: "CSE", Number: "101", Title: "Intro",
		Meetings: []models.MeetingPattern{{Days: "MWF", Times: "9:00-9:50a"}},
	}}}
	terms := &stubTermRepo{terms: []models.TermCalendar{fallTerm()}}
	svc := newCalendarService(events, resolver, terms)

	from := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	res, err := svc.Render(context.Background(), "u1", "s1", from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 3)
	assert.Equal(t, "CSE 101", res.Occurrences[0].Title)
	assert.Equal(t, "#ff0000", res.Occurrences[0].Color)
}

// Course meetings stop at the term's instruction end even when the
// requested window runs past it.
func TestRenderBoundedByInstructionEnd(t *testing.T) {
	events := &stubEventRepo{
		courses: []models.CourseEvent{{ID: "ce-1", ScheduleID: "s1", SectionCode: 12345, Term: "FA26", Color: "#ff0000"}},
	}
	resolver := &stubSectionResolver{infos: []models.SectionInfo{{
		Code: 12345, Term: "FA26", Subject: "CSE", Number: "101", Title: "Intro",
		Meetings: []models.MeetingPattern{{Days: "MWF", Times: "9:00-9:50a"}},
	}}}
	terms := &stubTermRepo{terms: []models.TermCalendar{fallTerm()}}
	svc := newCalendarService(events, resolver, terms)

	from := time.Date(2026, 12, 7, 0, 0, 0, 0, time.UTC)
	res, err := svc.Render(context.Background(), "u1", "s1", from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Occurrences)
}

// An event whose section is gone from the catalog drops silently; the rest
// of the schedule still renders.
func TestRenderDropsUnresolvableSections(t *testing.T) {
	start := time.Date(2026, 9, 22, 18, 0, 0, 0, time.UTC)
	events := &stubEventRepo{
		courses: []models.CourseEvent{{ID: "ce-gone", ScheduleID: "s1", SectionCode: 404, Term: "FA26"}},
		customs: []models.CustomEvent{{ID: "cu-1", ScheduleID: "s1", Title: "Club", StartAt: start, EndAt: start.Add(time.Hour)}},
	}
	terms := &stubTermRepo{terms: []models.TermCalendar{fallTerm()}}
	svc := newCalendarService(events, &stubSectionResolver{}, terms)

	from := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	res, err := svc.Render(context.Background(), "u1", "s1", from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 1)
	assert.Equal(t, "cu-1", res.Occurrences[0].EventID)
}

// A broken recurrence rule on one event is reported alongside the
// occurrences of the healthy events, never instead of them.
func TestRenderIsolatesRuleErrors(t *testing.T) {
	start := time.Date(2026, 9, 22, 18, 0, 0, 0, time.UTC)
	bad := models.CustomEvent{ID: "cu-bad", ScheduleID: "s1", Title: "Broken", StartAt: start, EndAt: start.Add(time.Hour)}
	bad.SetRecurrence(models.Recurrence{Frequency: models.FreqCustomWeekly, Interval: 1})
	good := models.CustomEvent{ID: "cu-good", ScheduleID: "s1", Title: "Fine", StartAt: start, EndAt: start.Add(time.Hour)}

	events := &stubEventRepo{customs: []models.CustomEvent{bad, good}}
	terms := &stubTermRepo{terms: []models.TermCalendar{fallTerm()}}
	svc := newCalendarService(events, &stubSectionResolver{}, terms)

	from := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	res, err := svc.Render(context.Background(), "u1", "s1", from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "cu-bad", res.Errors[0].EventID)
	require.Len(t, res.Occurrences, 1)
	assert.Equal(t, "cu-good", res.Occurrences[0].EventID)
}

func TestRenderRejectsInvertedWindow(t *testing.T) {
	svc := newCalendarService(&stubEventRepo{}, &stubSectionResolver{}, &stubTermRepo{})
	from := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	_, err := svc.Render(context.Background(), "u1", "s1", from, from.AddDate(0, 0, -1))
	require.Error(t, err)
}

func TestTermsSortedMostRecentFirst(t *testing.T) {
	spring := models.TermCalendar{Term: "SP26", InstructionBegins: time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)}
	terms := &stubTermRepo{terms: []models.TermCalendar{spring, fallTerm()}}
	svc := newCalendarService(&stubEventRepo{}, &stubSectionResolver{}, terms)

	got, err := svc.Terms(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "FA26", got[0].Term)
}
