package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/planner-api/internal/models"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEventRepositoryGetEvents(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	declinedAt := time.Date(2026, time.October, 5, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, schedule_id, section_code, term, color, created_at, updated_at")).
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "schedule_id", "section_code", "term", "color", "created_at", "updated_at"}).
			AddRow("ce-1", "sch-1", 40111, "FA26", "#ff5722", now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT d.event_id, d.start_at FROM declined_occurrences d")).
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "start_at"}).AddRow("ce-1", declinedAt))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, schedule_id, title, description, start_at, end_at, color, frequency, interval, days, until, created_at, updated_at")).
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "schedule_id", "title", "description", "start_at", "end_at", "color", "frequency", "interval", "days", "until", "created_at", "updated_at"}).
			AddRow("cu-1", "sch-1", "Study", "", now, now.Add(time.Hour), "#4caf50", "WEEKLY", 1, "{1,3}", nil, now, now))

	courseRows, customRows, err := repo.GetEvents(context.Background(), "sch-1")
	require.NoError(t, err)
	require.Len(t, courseRows, 1)
	require.Len(t, customRows, 1)
	assert.Equal(t, []time.Time{declinedAt}, courseRows[0].Declined)
	assert.Equal(t, pq.Int64Array{1, 3}, customRows[0].Days)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryInsertCourseEventDuplicate(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_events")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "course_events_schedule_section_key"})

	err := repo.InsertCourseEvent(context.Background(), &models.CourseEvent{
		ScheduleID: "sch-1", SectionCode: 40111, Term: "FA26", Color: "#ff5722",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateSection.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryInsertCourseEvent(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_events")).
		WithArgs(sqlmock.AnyArg(), "sch-1", 40111, "FA26", "#ff5722", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.CourseEvent{ScheduleID: "sch-1", SectionCode: 40111, Term: "FA26", Color: "#ff5722"}
	require.NoError(t, repo.InsertCourseEvent(context.Background(), event))
	assert.NotEmpty(t, event.ID, "identifier assigned on insert")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDeleteCustomEventMissing(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM custom_events WHERE id = $1")).
		WithArgs("cu-gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteCustomEvent(context.Background(), "cu-gone")
	assert.ErrorIs(t, err, sql.ErrNoRows, "deleting a nonexistent row is an error, not a silent success")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryInsertCustomEventRecurrenceColumns(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	start := time.Date(2026, time.September, 21, 14, 0, 0, 0, time.UTC)
	until := start.AddDate(0, 0, 18)
	event := &models.CustomEvent{ScheduleID: "sch-1", Title: "Study", StartAt: start, EndAt: start.Add(time.Hour), Color: "#4caf50"}
	event.SetRecurrence(models.Recurrence{
		Frequency: models.FreqCustomWeekly,
		Interval:  1,
		Days:      []time.Weekday{time.Monday, time.Wednesday},
		Until:     &until,
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO custom_events")).
		WithArgs(sqlmock.AnyArg(), "sch-1", "Study", "", start, start.Add(time.Hour), "#4caf50",
			"CUSTOM_WEEKLY", 1, event.Days, &until, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.InsertCustomEvent(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateCourseEventColorMissing(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_events SET color = $2")).
		WithArgs("ce-gone", "#000000", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCourseEventColor(context.Background(), "ce-gone", "#000000")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
