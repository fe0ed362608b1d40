package handler

import (
	"net/http"

	"github.com/fieldsense/fieldsense-backend/internal/common"
	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/fieldsense/fieldsense-backend/internal/service"
	"github.com/fieldsense/fieldsense-backend/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles dashboard statistics, automation status and the activity log
type AdminHandler struct {
	admin      *service.AdminService
	automation *service.AutomationService
	activity   *service.ActivityService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin *service.AdminService, automation *service.AutomationService, activity *service.ActivityService) *AdminHandler {
	return &AdminHandler{admin: admin, automation: automation, activity: activity}
}

// Stats handles GET /api/admin/stats
// @Summary Admin dashboard statistics
// @Description accuracyRate is a fixed placeholder, not a measured value
// @Tags admin
// @Produce json
// @Success 200 {object} domain.AdminStats
// @Failure 500 {object} common.ErrorBody
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.GetStats(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load statistics", err)
		return
	}
	common.SuccessResponse(c, stats)
}

// AccuracyFeedback handles POST /api/analytics/:id/accuracy
// @Summary Submit accuracy feedback for a scan
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Scan analytic ID"
// @Param request body domain.AccuracyFeedbackRequest true "Feedback"
// @Success 200 {object} domain.AccuracyFeedbackResponse
// @Failure 400 {object} common.ErrorBody
// @Failure 404 {object} common.ErrorBody
// @Router /analytics/{id}/accuracy [post]
func (h *AdminHandler) AccuracyFeedback(c *gin.Context) {
	id, err := ginutil.ParamUint(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid analytic id", err)
		return
	}
	var req domain.AccuracyFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "correct is required", err)
		return
	}

	resp, err := h.admin.AcknowledgeAccuracy(c.Request.Context(), id, &req)
	if err != nil {
		common.ServiceError(c, err, "failed to record feedback")
		return
	}
	common.SuccessResponse(c, resp)
}

// AutomationStatus handles GET /api/automation/status
// @Summary Deterrent automation summary for the last 24 hours
// @Tags automation
// @Produce json
// @Success 200 {object} domain.AutomationStatus
// @Failure 500 {object} common.ErrorBody
// @Router /automation/status [get]
func (h *AdminHandler) AutomationStatus(c *gin.Context) {
	status, err := h.automation.Status(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load automation status", err)
		return
	}
	common.SuccessResponse(c, status)
}

// ActivityLogs handles GET /api/activity-logs
// @Summary List activity log entries
// @Tags activity
// @Produce json
// @Param action query string false "detection, irrigation, deterrent or system"
// @Param limit query int false "Max rows (default 50, max 500)"
// @Success 200 {array} domain.ActivityLog
// @Failure 500 {object} common.ErrorBody
// @Router /activity-logs [get]
func (h *AdminHandler) ActivityLogs(c *gin.Context) {
	logs, err := h.activity.List(c.Request.Context(), c.Query("action"), ginutil.QueryLimit(c, "limit", 50, 500))
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list activity", err)
		return
	}
	common.SuccessResponse(c, logs)
}
