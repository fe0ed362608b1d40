package service

import (
	"context"
	"testing"
	"time"

	"github.com/fieldsense/fieldsense-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutomationState(t *testing.T) {
	assert.Equal(t, AutomationDisabled, automationState(domain.DeterrentSettings{}))
	assert.Equal(t, AutomationDisabled, automationState(domain.DeterrentSettings{AutoActivate: true}))
	assert.Equal(t, AutomationMonitoring, automationState(domain.DeterrentSettings{IsEnabled: true}))
	assert.Equal(t, AutomationActive, automationState(domain.DeterrentSettings{IsEnabled: true, AutoActivate: true}))
}

func TestAutomationService_Status(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status, err := env.automation.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, AutomationDisabled, status.Status)
	assert.Equal(t, 24, status.WindowHours)
	assert.Zero(t, status.DetectionsInWindow)
	assert.Nil(t, status.LastDetectionAt)
	assert.NotNil(t, status.SpeciesBreakdown)

	env.enableDeterrent(t, 50)

	// outside the window
	old := &domain.AnimalDetection{
		AnimalType: "deer",
		Status:     domain.DetectionStatusDetected,
		Source:     domain.DetectionSourceManual,
		CreatedAt:  time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, env.detections.Create(ctx, old))

	_, err = env.deterrent.SubmitDetection(ctx, &domain.CreateDetectionRequest{Type: "wild_boar", Distance: floatPtr(10)})
	require.NoError(t, err)
	_, err = env.deterrent.SubmitDetection(ctx, &domain.CreateDetectionRequest{Type: "wild_boar", Distance: floatPtr(90)})
	require.NoError(t, err)
	_, err = env.deterrent.SubmitDetection(ctx, &domain.CreateDetectionRequest{Type: "deer", Distance: floatPtr(30)})
	require.NoError(t, err)

	status, err = env.automation.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, AutomationActive, status.Status)
	assert.Equal(t, int64(3), status.DetectionsInWindow)
	assert.Equal(t, int64(2), status.DeterrentsActivated)
	assert.Equal(t, map[string]int64{"wild_boar": 2, "deer": 1}, status.SpeciesBreakdown)
	require.NotNil(t, status.LastDetectionAt)
	assert.True(t, status.Settings.IsEnabled)
}
