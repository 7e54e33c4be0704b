package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billerops/onboarding-workflow/internal/models"
)

func TestCreateWorkflow(t *testing.T) {
	env := newTestEnv(t)

	wf, err := env.lifecycle.CreateWorkflow(context.Background(), &models.Workflow{
		Title:                 "client supplied title",
		BillerIntegrationName: "Metro Water",
	})
	require.NoError(t, err)

	assert.Equal(t, "WF00001", wf.Title, "caller-supplied title must be overwritten")
	assert.Equal(t, models.StatusInProgress, wf.Status)
	assert.Equal(t, FirstStep, wf.CurrentStep)
	assert.Equal(t, env.now, wf.SubmitDate)

	steps, err := env.steps.ListByWorkflow(wf.ID)
	require.NoError(t, err)
	require.Len(t, steps, StepCount)
	for i, step := range steps {
		assert.Equal(t, i+1, step.StepNumber)
		assert.Equal(t, models.SignoffPending, step.SignoffStatus)
	}
}

func TestCreateWorkflowTitleSequence(t *testing.T) {
	env := newTestEnv(t)

	first := env.createWorkflow(t)
	second := env.createWorkflow(t)
	third := env.createWorkflow(t)

	assert.Equal(t, "WF00001", first.Title)
	assert.Equal(t, "WF00002", second.Title)
	assert.Equal(t, "WF00003", third.Title)
}

func TestCreateWorkflowTitleFallback(t *testing.T) {
	env := newTestEnv(t)

	wf := env.createWorkflow(t)

	// Simulate a legacy row whose title does not carry the numeric suffix.
	_, err := env.db.DB.Exec(`UPDATE workflows SET title = ? WHERE id = ?`, "legacy import", wf.ID)
	require.NoError(t, err)

	next := env.createWorkflow(t)
	assert.Equal(t, "WF00002", next.Title, "sequence falls back to latest id + 1")
}

func TestParseTitleSequence(t *testing.T) {
	tests := []struct {
		title  string
		want   int
		wantOK bool
	}{
		{title: "WF00001", want: 1, wantOK: true},
		{title: "WF00042", want: 42, wantOK: true},
		{title: "WF123", want: 123, wantOK: true},
		{title: "legacy import", wantOK: false},
		{title: "WFabc", wantOK: false},
		{title: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := parseTitleSequence(tt.title)
		if ok != tt.wantOK {
			t.Errorf("parseTitleSequence(%q) ok = %v, want %v", tt.title, ok, tt.wantOK)
		}
		if ok && got != tt.want {
			t.Errorf("parseTitleSequence(%q) = %d, want %d", tt.title, got, tt.want)
		}
	}
}

func TestUpdateWorkflowRecordsDiff(t *testing.T) {
	env := newTestEnv(t)
	wf := env.createWorkflow(t)

	newName := "Acme Power v2"
	fee := 1.25
	editor := "ops-user"
	updated, err := env.lifecycle.UpdateWorkflow(context.Background(), wf.ID, &models.WorkflowUpdate{
		BillerIntegrationName: &newName,
		MDRFee:                &fee,
		LastUpdatedBy:         &editor,
	})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.BillerIntegrationName)
	require.NotNil(t, updated.MDRFee)
	assert.Equal(t, fee, *updated.MDRFee)

	edits, err := env.lifecycle.GetEditHistory(context.Background(), wf.ID)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, "ops-user", edits[0].EditedBy)

	change, ok := edits[0].Changes["biller_integration_name"]
	require.True(t, ok)
	require.NotNil(t, change.OldValue)
	assert.Equal(t, "Acme Power", *change.OldValue)
	require.NotNil(t, change.NewValue)
	assert.Equal(t, newName, *change.NewValue)

	feeChange, ok := edits[0].Changes["mdr_fee"]
	require.True(t, ok)
	assert.Nil(t, feeChange.OldValue, "unset fee has no old value")
	require.NotNil(t, feeChange.NewValue)
	assert.Equal(t, "1.25", *feeChange.NewValue)

	// LastUpdatedBy itself changed too and is part of the diff.
	_, ok = edits[0].Changes["last_updated_by"]
	assert.True(t, ok)
}

func TestUpdateWorkflowNoEditorNoAudit(t *testing.T) {
	env := newTestEnv(t)
	wf := env.createWorkflow(t)

	newName := "Renamed Biller"
	_, err := env.lifecycle.UpdateWorkflow(context.Background(), wf.ID, &models.WorkflowUpdate{
		BillerIntegrationName: &newName,
	})
	require.NoError(t, err)

	edits, err := env.lifecycle.GetEditHistory(context.Background(), wf.ID)
	require.NoError(t, err)
	assert.Empty(t, edits, "edits without an editor identity leave no audit entry")

	stored, err := env.workflows.GetByID(wf.ID)
	require.NoError(t, err)
	assert.Equal(t, newName, stored.BillerIntegrationName, "the update itself is still applied")
}

func TestUpdateWorkflowNoChangeNoAudit(t *testing.T) {
	env := newTestEnv(t)
	wf := env.createWorkflow(t)

	sameName := wf.BillerIntegrationName
	env.now = env.now.Add(time.Hour)
	updated, err := env.lifecycle.UpdateWorkflow(context.Background(), wf.ID, &models.WorkflowUpdate{
		BillerIntegrationName: &sameName,
	})
	require.NoError(t, err)

	edits, err := env.lifecycle.GetEditHistory(context.Background(), wf.ID)
	require.NoError(t, err)
	assert.Empty(t, edits)

	assert.True(t, updated.LastUpdatedDate.After(wf.SubmitDate),
		"last_updated_date is refreshed even without changes")
}

func TestUpdateWorkflowNotFound(t *testing.T) {
	env := newTestEnv(t)

	name := "ghost"
	_, err := env.lifecycle.UpdateWorkflow(context.Background(), 404, &models.WorkflowUpdate{
		BillerIntegrationName: &name,
	})
	assert.True(t, errors.Is(err, ErrWorkflowNotFound))
}
