package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/planner-api/internal/models"
	"github.com/campusplan/planner-api/internal/service"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
	"github.com/campusplan/planner-api/pkg/response"
)

// TermHandler serves academic term calendars.
type TermHandler struct {
	service *service.CalendarService
}

// NewTermHandler creates a new handler.
func NewTermHandler(svc *service.CalendarService) *TermHandler {
	return &TermHandler{service: svc}
}

// List godoc
// @Summary List terms
// @Description List known academic terms with instruction and finals dates
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *TermHandler) List(c *gin.Context) {
	terms, err := h.service.Terms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, terms, nil)
}

// Upsert godoc
// @Summary Create or update term
// @Description Save a term calendar's instruction and finals dates (admin)
// @Tags Terms
// @Accept json
// @Produce json
// @Param payload body models.TermCalendar true "Term calendar"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /terms [put]
func (h *TermHandler) Upsert(c *gin.Context) {
	var tc models.TermCalendar
	if err := c.ShouldBindJSON(&tc); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.UpsertTerm(c.Request.Context(), &tc); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tc, nil)
}
