package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")

	// Report errors
	ErrReportNotFound         = errors.New("report not found")
	ErrReportAlreadyProcessed = errors.New("report is not pending")
	ErrProcessingFailed       = errors.New("failed to process report")

	// Detection errors
	ErrDetectionNotFound = errors.New("detection not found")
	ErrAnalyticNotFound  = errors.New("scan analytic not found")
)
