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

// DetectionHandler handles wildlife detections and deterrent settings
type DetectionHandler struct {
	service *service.DeterrentService
}

// NewDetectionHandler creates a new DetectionHandler
func NewDetectionHandler(service *service.DeterrentService) *DetectionHandler {
	return &DetectionHandler{service: service}
}

// Submit handles POST /api/detections
// @Summary Submit a manual wildlife detection
// @Description Records the detection and activates the deterrent when the animal is within the activation distance
// @Tags detections
// @Accept json
// @Produce json
// @Param request body domain.CreateDetectionRequest true "Detection"
// @Success 201 {object} domain.DetectionResult
// @Failure 400 {object} common.ErrorBody
// @Router /detections [post]
func (h *DetectionHandler) Submit(c *gin.Context) {
	var req domain.CreateDetectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "type and distance are required", err)
		return
	}

	result, err := h.service.SubmitDetection(c.Request.Context(), &req)
	if err != nil {
		common.ServiceError(c, err, "failed to record detection")
		return
	}
	common.CreatedResponse(c, result)
}

// SimulateCamera handles POST /api/detections/simulate-camera
// @Summary Simulate a camera detection
// @Description Creates a synthetic detection; omitted fields are randomized
// @Tags detections
// @Accept json
// @Produce json
// @Param request body domain.SimulateCameraRequest false "Simulation parameters"
// @Success 200 {object} domain.DetectionResult
// @Failure 400 {object} common.ErrorBody
// @Router /detections/simulate-camera [post]
func (h *DetectionHandler) SimulateCamera(c *gin.Context) {
	var req domain.SimulateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.service.SimulateCamera(c.Request.Context(), &req)
	if err != nil {
		common.ServiceError(c, err, "failed to simulate detection")
		return
	}
	common.SuccessResponse(c, result)
}

// List handles GET /api/detections
// @Summary List recent detections
// @Tags detections
// @Produce json
// @Param limit query int false "Max rows (default 50, max 500)"
// @Success 200 {array} domain.AnimalDetection
// @Failure 500 {object} common.ErrorBody
// @Router /detections [get]
func (h *DetectionHandler) List(c *gin.Context) {
	detections, err := h.service.ListDetections(c.Request.Context(), ginutil.QueryLimit(c, "limit", 50, 500))
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list detections", err)
		return
	}
	common.SuccessResponse(c, detections)
}

// GetSettings handles GET /api/deterrent/settings
// @Summary Get deterrent settings
// @Tags deterrent
// @Produce json
// @Success 200 {object} domain.DeterrentSettings
// @Failure 500 {object} common.ErrorBody
// @Router /deterrent/settings [get]
func (h *DetectionHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	common.SuccessResponse(c, settings)
}

// UpdateSettings handles PUT /api/deterrent/settings
// @Summary Update deterrent settings
// @Tags deterrent
// @Accept json
// @Produce json
// @Param request body domain.UpdateDeterrentSettingsRequest true "Fields to change"
// @Success 200 {object} domain.DeterrentSettings
// @Failure 400 {object} common.ErrorBody
// @Failure 500 {object} common.ErrorBody
// @Router /deterrent/settings [put]
func (h *DetectionHandler) UpdateSettings(c *gin.Context) {
	var req domain.UpdateDeterrentSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), &req)
	if err != nil {
		common.ServiceError(c, err, "failed to update settings")
		return
	}
	common.SuccessResponse(c, settings)
}
