package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/planner-api/internal/service"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
	"github.com/campusplan/planner-api/pkg/response"
)

// CalendarHandler serves the rendered calendar for a schedule.
type CalendarHandler struct {
	service *service.CalendarService
}

// NewCalendarHandler creates a new handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Render godoc
// @Summary Render calendar window
// @Description Expand every event of the schedule into occurrences overlapping [from, to)
// @Tags Calendar
// @Produce json
// @Param id path string true "Schedule ID"
// @Param from query string true "Window start (RFC3339)"
// @Param to query string true "Window end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/calendar [get]
func (h *CalendarHandler) Render(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	from, to, err := parseWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Render(c.Request.Context(), claims.UserID, c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if len(result.Errors) > 0 {
		meta = map[string]interface{}{"event_errors": result.Errors}
	}
	response.JSON(c, http.StatusOK, result.Occurrences, nil, meta)
}

func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be an RFC3339 timestamp")
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be an RFC3339 timestamp")
	}
	return from, to, nil
}
