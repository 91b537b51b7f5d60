package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusplan/planner-api/internal/models"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
)

type stubEventRepo struct {
	courses []models.CourseEvent
	customs []models.CustomEvent

	insertCourseErr error
	deleteCourseErr error
	deleteCustomErr error

	insertedCourse *models.CourseEvent
	insertedCustom *models.CustomEvent
	updatedCustom  *models.CustomEvent
	declined       []time.Time
}

func (s *stubEventRepo) GetEvents(ctx context.Context, scheduleID string) ([]models.CourseEvent, []models.CustomEvent, error) {
	return s.courses, s.customs, nil
}

func (s *stubEventRepo) InsertCourseEvent(ctx context.Context, event *models.CourseEvent) error {
	if s.insertCourseErr != nil {
		return s.insertCourseErr
	}
	event.ID = "ce-1"
	s.insertedCourse = event
	return nil
}

func (s *stubEventRepo) DeleteCourseEvent(ctx context.Context, id string) error {
	return s.deleteCourseErr
}

func (s *stubEventRepo) UpdateCourseEventColor(ctx context.Context, id, color string) error {
	return nil
}

func (s *stubEventRepo) UpdateCustomEventColor(ctx context.Context, id, color string) error {
	return nil
}

func (s *stubEventRepo) DeclineOccurrence(ctx context.Context, eventID string, startAt time.Time) error {
	s.declined = append(s.declined, startAt)
	return nil
}

func (s *stubEventRepo) InsertCustomEvent(ctx context.Context, event *models.CustomEvent) error {
	event.ID = "cu-1"
	s.insertedCustom = event
	return nil
}

func (s *stubEventRepo) UpdateCustomEvent(ctx context.Context, event *models.CustomEvent) error {
	s.updatedCustom = event
	return nil
}

func (s *stubEventRepo) DeleteCustomEvent(ctx context.Context, id string) error {
	return s.deleteCustomErr
}

type stubSectionResolver struct {
	infos []models.SectionInfo
}

func (s *stubSectionResolver) ResolveSections(ctx context.Context, keys []models.SectionKey) ([]models.SectionInfo, error) {
	return s.infos, nil
}

type stubScheduleGetter struct {
	err error
}

func (s *stubScheduleGetter) Get(ctx context.Context, userID, id string) (*models.Schedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Schedule{ID: id, UserID: userID}, nil
}

func newEventService(repo *stubEventRepo, resolver *stubSectionResolver) *EventService {
	return NewEventService(repo, resolver, &stubScheduleGetter{}, validator.New(), zap.NewNop())
}

func TestAddSection(t *testing.T) {
	repo := &stubEventRepo{}
	resolver := &stubSectionResolver{infos: []models.SectionInfo{{Code: 12345, Term: "FA26", Subject: "CSE", Number: "101"}}}
	svc := newEventService(repo, resolver)

	event, err := svc.AddSection(context.Background(), "u1", "s1", AddSectionRequest{SectionCode: 12345, Term: "FA26"})
	require.NoError(t, err)
	assert.Equal(t, "ce-1", event.ID)
	assert.Equal(t, defaultEventColor, event.Color)
}

func TestAddSectionAlreadyEnrolled(t *testing.T) {
	repo := &stubEventRepo{insertCourseErr: appErrors.Clone(appErrors.ErrDuplicateSection, "")}
	resolver := &stubSectionResolver{infos: []models.SectionInfo{{Code: 12345, Term: "FA26"}}}
	svc := newEventService(repo, resolver)

	_, err := svc.AddSection(context.Background(), "u1", "s1", AddSectionRequest{SectionCode: 12345, Term: "FA26"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicateSection.Code, appErr.Code)
}

func TestAddSectionUnknownSection(t *testing.T) {
	repo := &stubEventRepo{}
	svc := newEventService(repo, &stubSectionResolver{})

	_, err := svc.AddSection(context.Background(), "u1", "s1", AddSectionRequest{SectionCode: 99999, Term: "FA26"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Nil(t, repo.insertedCourse)
}

func TestRemoveEventMissing(t *testing.T) {
	repo := &stubEventRepo{deleteCourseErr: sql.ErrNoRows}
	svc := newEventService(repo, &stubSectionResolver{})

	err := svc.RemoveEvent(context.Background(), "u1", "s1", "ce-gone", models.EventKindCourse)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCreateCustomDefaults(t *testing.T) {
	repo := &stubEventRepo{}
	svc := newEventService(repo, &stubSectionResolver{})

	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	event, err := svc.CreateCustom(context.Background(), "u1", "s1", CustomEventRequest{
		Title:   "Study group",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "cu-1", event.ID)
	assert.Equal(t, defaultEventColor, event.Color)
	assert.Equal(t, models.FreqNone, event.Recurrence().Frequency)
}

func TestCreateCustomWeeklyDefaultsDays(t *testing.T) {
	repo := &stubEventRepo{}
	svc := newEventService(repo, &stubSectionResolver{})

	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC) // a Monday
	event, err := svc.CreateCustom(context.Background(), "u1", "s1", CustomEventRequest{
		Title:      "Office hours",
		StartAt:    start,
		EndAt:      start.Add(time.Hour),
		Recurrence: &RecurrenceRequest{Frequency: string(models.FreqWeekly)},
	})
	require.NoError(t, err)
	rec := event.Recurrence()
	assert.Equal(t, models.FreqWeekly, rec.Frequency)
	assert.Equal(t, []time.Weekday{time.Monday}, rec.Days)
}

func TestCreateCustomRejectsBadInterval(t *testing.T) {
	repo := &stubEventRepo{}
	svc := newEventService(repo, &stubSectionResolver{})

	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	_, err := svc.CreateCustom(context.Background(), "u1", "s1", CustomEventRequest{
		Title:      "Bad rule",
		StartAt:    start,
		EndAt:      start.Add(time.Hour),
		Recurrence: &RecurrenceRequest{Frequency: string(models.FreqCustomDaily), Interval: 0},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Nil(t, repo.insertedCustom)
}

func TestCreateCustomRejectsInvertedRange(t *testing.T) {
	repo := &stubEventRepo{}
	svc := newEventService(repo, &stubSectionResolver{})

	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	_, err := svc.CreateCustom(context.Background(), "u1", "s1", CustomEventRequest{
		Title:   "Backwards",
		StartAt: start,
		EndAt:   start.Add(-time.Hour),
	})
	require.Error(t, err)
}

func TestDeclineOccurrence(t *testing.T) {
	repo := &stubEventRepo{}
	svc := newEventService(repo, &stubSectionResolver{})

	at := time.Date(2026, 9, 9, 9, 0, 0, 0, time.UTC)
	require.NoError(t, svc.DeclineOccurrence(context.Background(), "u1", "s1", "ce-1", at))
	require.Len(t, repo.declined, 1)
	assert.True(t, repo.declined[0].Equal(at))
}
