package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/planner-api/internal/models"
	"github.com/campusplan/planner-api/internal/service"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
	"github.com/campusplan/planner-api/pkg/response"
)

// EventHandler exposes endpoints for the events attached to a schedule.
type EventHandler struct {
	service *service.EventService
}

// NewEventHandler creates a new handler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{service: svc}
}

// AddSection godoc
// @Summary Enroll section
// @Description Add a catalog section to the schedule
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.AddSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id}/events/sections [post]
func (h *EventHandler) AddSection(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AddSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	event, err := h.service.AddSection(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, event)
}

// CreateCustom godoc
// @Summary Create custom event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.CustomEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/events/custom [post]
func (h *EventHandler) CreateCustom(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CustomEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	event, err := h.service.CreateCustom(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, event)
}

// UpdateCustom godoc
// @Summary Update custom event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param eventId path string true "Event ID"
// @Param payload body service.CustomEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/events/custom/{eventId} [put]
func (h *EventHandler) UpdateCustom(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CustomEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	event, err := h.service.UpdateCustom(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("eventId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, event, nil)
}

// Remove godoc
// @Summary Remove event
// @Description Remove a course or custom event from the schedule
// @Tags Events
// @Param id path string true "Schedule ID"
// @Param eventId path string true "Event ID"
// @Param kind query string true "Event kind (COURSE or CUSTOM)"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/events/{eventId} [delete]
func (h *EventHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	kind := models.EventKind(c.Query("kind"))
	if err := h.service.RemoveEvent(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("eventId"), kind); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// SetColor godoc
// @Summary Set event color
// @Tags Events
// @Accept json
// @Param id path string true "Schedule ID"
// @Param eventId path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/events/{eventId}/color [put]
func (h *EventHandler) SetColor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Kind  models.EventKind `json:"kind" binding:"required"`
		Color string           `json:"color" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.SetColor(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("eventId"), payload.Kind, payload.Color); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Decline godoc
// @Summary Decline occurrence
// @Description Exclude one occurrence of a course event without dropping the section
// @Tags Events
// @Accept json
// @Param id path string true "Schedule ID"
// @Param eventId path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Router /schedules/{id}/events/{eventId}/decline [post]
func (h *EventHandler) Decline(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		StartAt time.Time `json:"start_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.DeclineOccurrence(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("eventId"), payload.StartAt); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
