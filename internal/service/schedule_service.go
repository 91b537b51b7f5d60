package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusplan/planner-api/internal/models"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

// ScheduleService manages a user's schedules.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger}
}

// CreateScheduleRequest describes the create payload.
type CreateScheduleRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// UpdateScheduleRequest describes the rename/preferences payload.
// Preference fields affect rendering only.
type UpdateScheduleRequest struct {
	Name         *string              `json:"name,omitempty" validate:"omitempty,max=100"`
	View         *models.ScheduleView `json:"view,omitempty"`
	ShowWeekends *bool                `json:"show_weekends,omitempty"`
}

// List returns the caller's schedules.
func (s *ScheduleService) List(ctx context.Context, userID string, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	filter.UserID = userID
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return schedules, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one schedule, enforcing ownership.
func (s *ScheduleService) Get(ctx context.Context, userID, id string) (*models.Schedule, error) {
	schedule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "schedule belongs to another user")
	}
	return schedule, nil
}

// Create registers a new schedule for the user.
func (s *ScheduleService) Create(ctx context.Context, userID string, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	schedule := &models.Schedule{
		UserID:       userID,
		Name:         req.Name,
		View:         models.ScheduleViewWeek,
		ShowWeekends: false,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// Update renames a schedule or changes its display preferences.
func (s *ScheduleService) Update(ctx context.Context, userID, id string, req UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	schedule, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		schedule.Name = *req.Name
	}
	if req.View != nil {
		switch *req.View {
		case models.ScheduleViewDay, models.ScheduleViewWeek, models.ScheduleViewMonth:
			schedule.View = *req.View
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown view granularity")
		}
	}
	if req.ShowWeekends != nil {
		schedule.ShowWeekends = *req.ShowWeekends
	}
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// Delete removes a schedule and all of its events.
func (s *ScheduleService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}
