package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/equilibre-app/equilibre-api/internal/service"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
	"github.com/equilibre-app/equilibre-api/pkg/response"
)

// ManualHoursHandler exposes self-reported weekly hours endpoints.
type ManualHoursHandler struct {
	service *service.ManualHoursService
}

// NewManualHoursHandler constructs handler.
func NewManualHoursHandler(svc *service.ManualHoursService) *ManualHoursHandler {
	return &ManualHoursHandler{service: svc}
}

// List godoc
// @Summary List manual hours entries
// @Tags ManualHours
// @Produce json
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Param end query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /manual-hours [get]
func (h *ManualHoursHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid start date"))
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid end date"))
		return
	}

	entries, err := h.service.List(c.Request.Context(), claims.UserID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Upsert godoc
// @Summary Record manual hours for a week
// @Tags ManualHours
// @Accept json
// @Produce json
// @Param payload body service.UpsertManualHoursRequest true "Manual hours payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /manual-hours [put]
func (h *ManualHoursHandler) Upsert(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpsertManualHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid manual hours payload"))
		return
	}

	entry, err := h.service.Upsert(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete manual hours for a week
// @Tags ManualHours
// @Produce json
// @Param weekStart path string true "Week start date (YYYY-MM-DD)"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /manual-hours/{weekStart} [delete]
func (h *ManualHoursHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	weekStart, err := time.Parse("2006-01-02", c.Param("weekStart"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid week start date"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, weekStart); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
