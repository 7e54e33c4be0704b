package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/billerops/onboarding-workflow/internal/models"
)

func TestStepRepository_CreateForWorkflow(t *testing.T) {
	db := newTestDB(t)
	logger := zap.NewNop()
	workflows := NewWorkflowRepository(db.DB, logger)
	steps := NewStepRepository(db.DB, logger)

	wf := seedWorkflow(t, workflows, "WF00001", "Acme Power")
	require.NoError(t, steps.CreateForWorkflow(nil, wf.ID, 8))

	all, err := steps.ListByWorkflow(wf.ID)
	require.NoError(t, err)
	require.Len(t, all, 8)
	for i, step := range all {
		assert.Equal(t, i+1, step.StepNumber)
		assert.Equal(t, models.SignoffPending, step.SignoffStatus)
		assert.Empty(t, step.SignoffPerson)
		assert.Nil(t, step.SignoffDate)
	}

	// A second full set would violate the per-step uniqueness constraint.
	err = steps.CreateForWorkflow(nil, wf.ID, 8)
	assert.Error(t, err)
}

func TestStepRepository_StampAndReset(t *testing.T) {
	db := newTestDB(t)
	logger := zap.NewNop()
	workflows := NewWorkflowRepository(db.DB, logger)
	steps := NewStepRepository(db.DB, logger)

	wf := seedWorkflow(t, workflows, "WF00001", "Acme Power")
	require.NoError(t, steps.CreateForWorkflow(nil, wf.ID, 8))

	when := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)
	require.NoError(t, steps.Stamp(nil, wf.ID, 2, models.SignoffApproved, "alice", when, "demo passed"))

	step, err := steps.GetByNumber(wf.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, models.SignoffApproved, step.SignoffStatus)
	assert.Equal(t, "alice", step.SignoffPerson)
	require.NotNil(t, step.SignoffDate)
	assert.True(t, step.SignoffDate.Equal(when))
	assert.Equal(t, "demo passed", step.Remarks)

	require.NoError(t, steps.ResetToPending(nil, wf.ID, 2))

	step, err = steps.GetByNumber(wf.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.SignoffPending, step.SignoffStatus)
	assert.Empty(t, step.SignoffPerson)
	assert.Nil(t, step.SignoffDate)
	assert.Empty(t, step.Remarks)
}

func TestStepRepository_GetByNumberAbsent(t *testing.T) {
	db := newTestDB(t)
	steps := NewStepRepository(db.DB, zap.NewNop())

	step, err := steps.GetByNumber(99, 1)
	require.NoError(t, err)
	assert.Nil(t, step)
}
