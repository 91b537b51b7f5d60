package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campusplan/planner-api/internal/models"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
)

// uniqueViolation is the postgres error code raised by the
// (schedule_id, section_code, term) unique constraint.
const uniqueViolation = "23505"

// EventRepository persists course and custom calendar events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetEvents loads both event kinds for a schedule, including the
// declined occurrence set of each course event.
func (r *EventRepository) GetEvents(ctx context.Context, scheduleID string) ([]models.CourseEvent, []models.CustomEvent, error) {
	const courseQuery = `SELECT id, schedule_id, section_code, term, color, created_at, updated_at
FROM course_events WHERE schedule_id = $1 ORDER BY created_at ASC`
	var courseRows []models.CourseEvent
	if err := r.db.SelectContext(ctx, &courseRows, courseQuery, scheduleID); err != nil {
		return nil, nil, fmt.Errorf("list course events: %w", err)
	}

	const declinedQuery = `SELECT d.event_id, d.start_at FROM declined_occurrences d
JOIN course_events e ON e.id = d.event_id WHERE e.schedule_id = $1`
	var declinedRows []struct {
		EventID string    `db:"event_id"`
		StartAt time.Time `db:"start_at"`
	}
	if err := r.db.SelectContext(ctx, &declinedRows, declinedQuery, scheduleID); err != nil {
		return nil, nil, fmt.Errorf("list declined occurrences: %w", err)
	}
	declined := make(map[string][]time.Time, len(declinedRows))
	for _, row := range declinedRows {
		declined[row.EventID] = append(declined[row.EventID], row.StartAt)
	}
	for i := range courseRows {
		courseRows[i].Declined = declined[courseRows[i].ID]
	}

	const customQuery = `SELECT id, schedule_id, title, description, start_at, end_at, color, frequency, interval, days, until, created_at, updated_at
FROM custom_events WHERE schedule_id = $1 ORDER BY created_at ASC`
	var customRows []models.CustomEvent
	if err := r.db.SelectContext(ctx, &customRows, customQuery, scheduleID); err != nil {
		return nil, nil, fmt.Errorf("list custom events: %w", err)
	}

	return courseRows, customRows, nil
}

// InsertCourseEvent adds a section to a schedule. A section already in
// the schedule fails with the duplicate-section error; the row set is
// unchanged.
func (r *EventRepository) InsertCourseEvent(ctx context.Context, event *models.CourseEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO course_events (id, schedule_id, section_code, term, color, created_at, updated_at)
VALUES (:id, :schedule_id, :section_code, :term, :color, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return appErrors.Clone(appErrors.ErrDuplicateSection, "")
		}
		return fmt.Errorf("insert course event: %w", err)
	}
	return nil
}

// DeleteCourseEvent removes a course event. Deleting a row that does
// not exist is an error the caller must surface.
func (r *EventRepository) DeleteCourseEvent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM course_events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete course event: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateCourseEventColor changes the display color of a course event,
// the only mutable field besides the declined set.
func (r *EventRepository) UpdateCourseEventColor(ctx context.Context, id, color string) error {
	const query = `UPDATE course_events SET color = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, color, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update course event color: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateCustomEventColor changes the display color of a custom event.
func (r *EventRepository) UpdateCustomEventColor(ctx context.Context, id, color string) error {
	const query = `UPDATE custom_events SET color = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, color, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update custom event color: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeclineOccurrence records a dismissed occurrence of a course event.
func (r *EventRepository) DeclineOccurrence(ctx context.Context, eventID string, startAt time.Time) error {
	const query = `INSERT INTO declined_occurrences (event_id, start_at) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, eventID, startAt); err != nil {
		return fmt.Errorf("decline occurrence: %w", err)
	}
	return nil
}

// InsertCustomEvent persists a new custom event.
func (r *EventRepository) InsertCustomEvent(ctx context.Context, event *models.CustomEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO custom_events (id, schedule_id, title, description, start_at, end_at, color, frequency, interval, days, until, created_at, updated_at)
VALUES (:id, :schedule_id, :title, :description, :start_at, :end_at, :color, :frequency, :interval, :days, :until, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert custom event: %w", err)
	}
	return nil
}

// UpdateCustomEvent rewrites all mutable fields of a custom event,
// recurrence columns included.
func (r *EventRepository) UpdateCustomEvent(ctx context.Context, event *models.CustomEvent) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE custom_events SET title = :title, description = :description, start_at = :start_at, end_at = :end_at,
color = :color, frequency = :frequency, interval = :interval, days = :days, until = :until, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update custom event: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCustomEvent removes a custom event; a missing row is an error.
func (r *EventRepository) DeleteCustomEvent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM custom_events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete custom event: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
