package routes

import (
	"github.com/fieldsense/fieldsense-backend/internal/handler"
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the API exposes
type Handlers struct {
	Report    *handler.ReportHandler
	Detection *handler.DetectionHandler
	Admin     *handler.AdminHandler
}

// Setup configures all API routes. processLimit guards the model-backed process endpoint.
func Setup(router *gin.Engine, h Handlers, processLimit gin.HandlerFunc) {
	api := router.Group("/api")

	// Reports
	reports := api.Group("/reports")
	reports.POST("/capture", h.Report.Capture)
	reports.POST("/bulk-delete", h.Report.BulkDelete)
	reports.GET("", h.Report.List)
	reports.GET("/:id", h.Report.Get)
	reports.DELETE("/:id", h.Report.Delete)
	if processLimit != nil {
		reports.POST("/:id/process", processLimit, h.Report.Process)
	} else {
		reports.POST("/:id/process", h.Report.Process)
	}

	// Admin
	api.GET("/admin/stats", h.Admin.Stats)
	api.POST("/analytics/:id/accuracy", h.Admin.AccuracyFeedback)
	api.GET("/activity-logs", h.Admin.ActivityLogs)
	api.GET("/automation/status", h.Admin.AutomationStatus)

	// Wildlife detection / deterrent
	detections := api.Group("/detections")
	detections.POST("", h.Detection.Submit)
	detections.GET("", h.Detection.List)
	detections.POST("/simulate-camera", h.Detection.SimulateCamera)

	deterrent := api.Group("/deterrent")
	deterrent.GET("/settings", h.Detection.GetSettings)
	deterrent.PUT("/settings", h.Detection.UpdateSettings)
}
