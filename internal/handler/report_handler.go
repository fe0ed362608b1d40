package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/fieldsense/fieldsense-backend/internal/common"
	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/service"
	"github.com/fieldsense/fieldsense-backend/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles crop report requests
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Capture handles POST /api/reports/capture
// @Summary Capture a field image
// @Description Creates a pending report from an http(s) image URL or a base64 image data URI
// @Tags reports
// @Accept json
// @Produce json
// @Param request body domain.CaptureReportRequest true "Capture request"
// @Success 201 {object} domain.Report
// @Failure 400 {object} common.ErrorBody
// @Router /reports/capture [post]
func (h *ReportHandler) Capture(c *gin.Context) {
	var req domain.CaptureReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "image is required", err)
		return
	}

	report, err := h.service.Capture(c.Request.Context(), &req)
	if err != nil {
		common.ServiceError(c, err, "failed to capture report")
		return
	}
	common.CreatedResponse(c, report)
}

// Process handles POST /api/reports/:id/process
// @Summary Analyse a pending report
// @Description Runs the vision analysis, stores the enriched result and triggers the wildlife deterrent
// @Tags reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param request body domain.ProcessReportRequest false "Optional language override"
// @Success 200 {object} domain.Report
// @Failure 400 {object} common.ErrorBody
// @Failure 404 {object} common.ErrorBody
// @Failure 409 {object} common.ErrorBody
// @Failure 500 {object} common.ErrorBody
// @Router /reports/{id}/process [post]
func (h *ReportHandler) Process(c *gin.Context) {
	id, err := ginutil.ParamUint(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid report id", err)
		return
	}

	// body is optional
	var req domain.ProcessReportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	report, err := h.service.Process(c.Request.Context(), id, req.Language)
	if err != nil {
		common.ServiceError(c, err, "failed to process report")
		return
	}
	common.SuccessResponse(c, report)
}

// List handles GET /api/reports
// @Summary List reports
// @Tags reports
// @Produce json
// @Success 200 {array} domain.Report
// @Failure 500 {object} common.ErrorBody
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.service.List(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list reports", err)
		return
	}
	common.SuccessResponse(c, reports)
}

// Get handles GET /api/reports/:id
// @Summary Get a report
// @Tags reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} domain.Report
// @Failure 400 {object} common.ErrorBody
// @Failure 404 {object} common.ErrorBody
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	id, err := ginutil.ParamUint(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid report id", err)
		return
	}

	report, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		common.ServiceError(c, err, "failed to load report")
		return
	}
	common.SuccessResponse(c, report)
}

// Delete handles DELETE /api/reports/:id
// @Summary Delete a report
// @Tags reports
// @Param id path int true "Report ID"
// @Success 204
// @Failure 400 {object} common.ErrorBody
// @Failure 500 {object} common.ErrorBody
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	id, err := ginutil.ParamUint(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid report id", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to delete report", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BulkDelete handles POST /api/reports/bulk-delete
// @Summary Delete reports by id
// @Tags reports
// @Accept json
// @Param request body domain.BulkDeleteRequest true "Report IDs"
// @Success 204
// @Failure 400 {object} common.ErrorBody
// @Failure 500 {object} common.ErrorBody
// @Router /reports/bulk-delete [post]
func (h *ReportHandler) BulkDelete(c *gin.Context) {
	var req domain.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "ids are required", err)
		return
	}

	if _, err := h.service.BulkDelete(c.Request.Context(), req.IDs); err != nil {
		common.ServiceError(c, err, "failed to delete reports")
		return
	}
	c.Status(http.StatusNoContent)
}
