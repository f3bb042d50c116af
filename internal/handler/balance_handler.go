package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/equilibre-app/equilibre-api/internal/balance"
	"github.com/equilibre-app/equilibre-api/internal/middleware"
	"github.com/equilibre-app/equilibre-api/internal/models"
	"github.com/equilibre-app/equilibre-api/internal/service"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
	"github.com/equilibre-app/equilibre-api/pkg/response"
)

// BalanceHandler exposes the analysis and report endpoints.
type BalanceHandler struct {
	balance *service.BalanceService
	reports *service.ReportService
}

// NewBalanceHandler constructs handler.
func NewBalanceHandler(balanceSvc *service.BalanceService, reports *service.ReportService) *BalanceHandler {
	return &BalanceHandler{balance: balanceSvc, reports: reports}
}

// Analyze godoc
// @Summary Analyze routine balance for a date window
// @Tags Balance
// @Produce json
// @Param start query string true "Window start (YYYY-MM-DD)"
// @Param end query string true "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /balance [get]
func (h *BalanceHandler) Analyze(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	window := balance.Window{Start: c.Query("start"), End: c.Query("end")}
	if window.Start == "" || window.End == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start and end query parameters are required"))
		return
	}

	result, cached, err := h.balance.Analyze(c.Request.Context(), claims.UserID, window)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// CreateReport godoc
// @Summary Queue a balance report
// @Tags Balance
// @Accept json
// @Produce json
// @Param payload body service.CreateReportRequest true "Report payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /balance/report [post]
func (h *BalanceHandler) CreateReport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	report, err := h.reports.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, report, nil)
}

// GetReport godoc
// @Summary Get report status
// @Tags Balance
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /balance/report/{id} [get]
func (h *BalanceHandler) GetReport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	report, err := h.reports.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// DownloadReport godoc
// @Summary Download a generated report
// @Description Streams the report file referenced by a signed token
// @Tags Balance
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /balance/report/download/{token} [get]
func (h *BalanceHandler) DownloadReport(c *gin.Context) {
	download, err := h.reports.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat report file"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filepath.Base(download.Filename)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), reportMimeType(download.Format), download.File, nil)
}

func reportMimeType(format models.ReportFormat) string {
	switch format {
	case models.ReportFormatPDF:
		return "application/pdf"
	case models.ReportFormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
