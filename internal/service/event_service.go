package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusplan/planner-api/internal/models"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
)

type eventRepository interface {
	GetEvents(ctx context.Context, scheduleID string) ([]models.CourseEvent, []models.CustomEvent, error)
	InsertCourseEvent(ctx context.Context, event *models.CourseEvent) error
	DeleteCourseEvent(ctx context.Context, id string) error
	UpdateCourseEventColor(ctx context.Context, id, color string) error
	UpdateCustomEventColor(ctx context.Context, id, color string) error
	DeclineOccurrence(ctx context.Context, eventID string, startAt time.Time) error
	InsertCustomEvent(ctx context.Context, event *models.CustomEvent) error
	UpdateCustomEvent(ctx context.Context, event *models.CustomEvent) error
	DeleteCustomEvent(ctx context.Context, id string) error
}

type sectionResolver interface {
	ResolveSections(ctx context.Context, keys []models.SectionKey) ([]models.SectionInfo, error)
}

type scheduleGetter interface {
	Get(ctx context.Context, userID, id string) (*models.Schedule, error)
}

// EventService manages the events attached to a schedule: enrolled course
// sections and user-created custom events.
type EventService struct {
	repo      eventRepository
	sections  sectionResolver
	schedules scheduleGetter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, sections sectionResolver, schedules scheduleGetter, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:      repo,
		sections:  sections,
		schedules: schedules,
		validator: validate,
		logger:    logger,
	}
}

// AddSectionRequest identifies a catalog section to enroll.
type AddSectionRequest struct {
	SectionCode int    `json:"section_code" validate:"required"`
	Term        string `json:"term" validate:"required"`
	Color       string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// RecurrenceRequest is the wire form of a recurrence rule.
type RecurrenceRequest struct {
	Frequency string     `json:"frequency" validate:"required"`
	Interval  int        `json:"interval,omitempty"`
	Days      []int      `json:"days,omitempty" validate:"omitempty,dive,min=0,max=6"`
	Until     *time.Time `json:"until,omitempty"`
}

// CustomEventRequest is the create/update payload for a custom event.
type CustomEventRequest struct {
	Title       string             `json:"title" validate:"max=200"`
	Description string             `json:"description" validate:"max=2000"`
	StartAt     time.Time          `json:"start_at" validate:"required"`
	EndAt       time.Time          `json:"end_at" validate:"required"`
	Color       string             `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Recurrence  *RecurrenceRequest `json:"recurrence,omitempty"`
}

const defaultEventColor = "#2196f3"

// AddSection enrolls a catalog section into the schedule. Adding a section
// that is already present is a conflict, not a silent no-op.
func (s *EventService) AddSection(ctx context.Context, userID, scheduleID string, req AddSectionRequest) (*models.CourseEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.schedules.Get(ctx, userID, scheduleID); err != nil {
		return nil, err
	}

	key := models.SectionKey{Code: req.SectionCode, Term: req.Term}
	infos, err := s.sections.ResolveSections(ctx, []models.SectionKey{key})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section")
	}
	if len(infos) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found in catalog")
	}

	color := req.Color
	if color == "" {
		color = defaultEventColor
	}
	event := &models.CourseEvent{
		ScheduleID:  scheduleID,
		SectionCode: req.SectionCode,
		Term:        req.Term,
		Color:       color,
	}
	if err := s.repo.InsertCourseEvent(ctx, event); err != nil {
		return nil, appErrors.FromError(err)
	}
	s.logger.Info("section added",
		zap.String("schedule_id", scheduleID),
		zap.Int("section_code", req.SectionCode),
		zap.String("term", req.Term))
	return event, nil
}

// RemoveEvent deletes an event from the schedule. Removing an event that is
// not present is an error.
func (s *EventService) RemoveEvent(ctx context.Context, userID, scheduleID, eventID string, kind models.EventKind) error {
	if _, err := s.schedules.Get(ctx, userID, scheduleID); err != nil {
		return err
	}
	var err error
	switch kind {
	case models.EventKindCourse:
		err = s.repo.DeleteCourseEvent(ctx, eventID)
	case models.EventKindCustom:
		err = s.repo.DeleteCustomEvent(ctx, eventID)
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown event kind")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found in schedule")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove event")
	}
	return nil
}

// SetColor changes the display color of an event, routed by kind.
func (s *EventService) SetColor(ctx context.Context, userID, scheduleID, eventID string, kind models.EventKind, color string) error {
	if err := s.validator.Var(color, "required,hexcolor"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "color must be a hex color")
	}
	if _, err := s.schedules.Get(ctx, userID, scheduleID); err != nil {
		return err
	}
	var err error
	switch kind {
	case models.EventKindCourse:
		err = s.repo.UpdateCourseEventColor(ctx, eventID, color)
	case models.EventKindCustom:
		err = s.repo.UpdateCustomEventColor(ctx, eventID, color)
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown event kind")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found in schedule")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update color")
	}
	return nil
}

// DeclineOccurrence excludes a single occurrence of a course event without
// removing the section.
func (s *EventService) DeclineOccurrence(ctx context.Context, userID, scheduleID, eventID string, startAt time.Time) error {
	if _, err := s.schedules.Get(ctx, userID, scheduleID); err != nil {
		return err
	}
	if err := s.repo.DeclineOccurrence(ctx, eventID, startAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decline occurrence")
	}
	return nil
}

// CreateCustom creates a custom event on the schedule.
func (s *EventService) CreateCustom(ctx context.Context, userID, scheduleID string, req CustomEventRequest) (*models.CustomEvent, error) {
	if _, err := s.schedules.Get(ctx, userID, scheduleID); err != nil {
		return nil, err
	}
	event, err := s.buildCustomEvent(scheduleID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.InsertCustomEvent(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// UpdateCustom replaces the mutable fields of a custom event.
func (s *EventService) UpdateCustom(ctx context.Context, userID, scheduleID, eventID string, req CustomEventRequest) (*models.CustomEvent, error) {
	if _, err := s.schedules.Get(ctx, userID, scheduleID); err != nil {
		return nil, err
	}
	event, err := s.buildCustomEvent(scheduleID, req)
	if err != nil {
		return nil, err
	}
	event.ID = eventID
	if err := s.repo.UpdateCustomEvent(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found in schedule")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

func (s *EventService) buildCustomEvent(scheduleID string, req CustomEventRequest) (*models.CustomEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}
	color := req.Color
	if color == "" {
		color = defaultEventColor
	}
	event := &models.CustomEvent{
		ScheduleID:  scheduleID,
		Title:       req.Title,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Color:       color,
	}
	rec, err := normalizeRecurrence(req.Recurrence, req.StartAt)
	if err != nil {
		return nil, err
	}
	event.SetRecurrence(rec)
	return event, nil
}

// normalizeRecurrence validates the wire rule and applies the same defaults
// the editing session does: interval at least 1, and a weekly rule with no
// days selected falls back to the event's start weekday.
func normalizeRecurrence(req *RecurrenceRequest, startAt time.Time) (models.Recurrence, error) {
	if req == nil {
		return models.Recurrence{Frequency: models.FreqNone}, nil
	}
	freq := models.Frequency(req.Frequency)
	if !freq.Valid() {
		return models.Recurrence{}, appErrors.Clone(appErrors.ErrValidation, "unknown recurrence frequency")
	}
	rec := models.Recurrence{
		Frequency: freq,
		Interval:  req.Interval,
		Until:     req.Until,
	}
	if freq.Custom() {
		if rec.Interval < 1 {
			return models.Recurrence{}, appErrors.Clone(appErrors.ErrValidation, "recurrence interval must be at least 1")
		}
	} else {
		rec.Interval = 1
	}
	for _, d := range req.Days {
		rec.Days = append(rec.Days, time.Weekday(d))
	}
	if freq.Weekly() && len(rec.Days) == 0 {
		rec.Days = []time.Weekday{startAt.Weekday()}
	}
	if freq == models.FreqWeekday {
		rec.Days = nil
	}
	return rec, nil
}
