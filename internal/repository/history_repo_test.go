package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/billerops/onboarding-workflow/internal/models"
)

func TestHistoryRepository_CreateAndList(t *testing.T) {
	db := newTestDB(t)
	logger := zap.NewNop()
	workflows := NewWorkflowRepository(db.DB, logger)
	history := NewHistoryRepository(db.DB, logger)

	wf := seedWorkflow(t, workflows, "WF00001", "Acme Power")

	base := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)
	require.NoError(t, history.Create(nil, &models.WorkflowHistory{
		WorkflowID: wf.ID,
		Action:     "Approved Step 1, Advanced to Step 2",
		ActionBy:   "alice",
		ActionDate: base,
		Details:    "setup verified",
	}))
	require.NoError(t, history.Create(nil, &models.WorkflowHistory{
		WorkflowID: wf.ID,
		Action:     "Rejected at Step 2, Restart from Step 1",
		ActionBy:   "bob",
		ActionDate: base.Add(time.Hour),
		Details:    "No remarks provided",
	}))

	records, err := history.ListByWorkflow(wf.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Rejected at Step 2, Restart from Step 1", records[0].Action)
	assert.Equal(t, "bob", records[0].ActionBy)
	assert.Equal(t, "Approved Step 1, Advanced to Step 2", records[1].Action)
	assert.Equal(t, "setup verified", records[1].Details)
}

func TestRejectionHistoryRepository_RestartStepNullability(t *testing.T) {
	db := newTestDB(t)
	logger := zap.NewNop()
	workflows := NewWorkflowRepository(db.DB, logger)
	rejections := NewRejectionHistoryRepository(db.DB, logger)

	wf := seedWorkflow(t, workflows, "WF00001", "Acme Power")

	base := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)
	restart := 1
	require.NoError(t, rejections.Create(nil, &models.WorkflowRejectionHistory{
		WorkflowID:  wf.ID,
		StepNumber:  2,
		RejectedBy:  "bob",
		Remarks:     "demo failed",
		RestartStep: &restart,
		RejectDate:  base,
	}))
	require.NoError(t, rejections.Create(nil, &models.WorkflowRejectionHistory{
		WorkflowID: wf.ID,
		StepNumber: 3,
		RejectedBy: "carol",
		RejectDate: base.Add(time.Hour),
	}))

	records, err := rejections.ListByWorkflow(wf.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 3, records[0].StepNumber)
	assert.Nil(t, records[0].RestartStep)

	assert.Equal(t, 2, records[1].StepNumber)
	require.NotNil(t, records[1].RestartStep)
	assert.Equal(t, 1, *records[1].RestartStep)
	assert.Equal(t, "demo failed", records[1].Remarks)
}

func TestEditHistoryRepository_ChangesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	logger := zap.NewNop()
	workflows := NewWorkflowRepository(db.DB, logger)
	edits := NewEditHistoryRepository(db.DB, logger)

	wf := seedWorkflow(t, workflows, "WF00001", "Acme Power")

	oldName := "Acme Power"
	newName := "Acme Power v2"
	require.NoError(t, edits.Create(nil, &models.EditHistory{
		WorkflowID: wf.ID,
		EditedBy:   "ops-user",
		EditedAt:   time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC),
		Changes: map[string]models.FieldChange{
			"biller_integration_name": {OldValue: &oldName, NewValue: &newName},
			"remarks":                 {OldValue: nil, NewValue: &newName},
		},
	}))

	records, err := edits.ListByWorkflow(wf.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ops-user", records[0].EditedBy)

	change := records[0].Changes["biller_integration_name"]
	require.NotNil(t, change.OldValue)
	assert.Equal(t, oldName, *change.OldValue)
	require.NotNil(t, change.NewValue)
	assert.Equal(t, newName, *change.NewValue)

	remarksChange := records[0].Changes["remarks"]
	assert.Nil(t, remarksChange.OldValue)
}

func TestAttachmentRepository(t *testing.T) {
	db := newTestDB(t)
	logger := zap.NewNop()
	workflows := NewWorkflowRepository(db.DB, logger)
	attachments := NewAttachmentRepository(db.DB, logger)

	wf := seedWorkflow(t, workflows, "WF00001", "Acme Power")

	count, err := attachments.CountByWorkflow(wf.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	att := &models.Attachment{
		WorkflowID: wf.ID,
		FileType:   "GL Detail",
		FileName:   "gl_detail.xlsx",
		FilePath:   "/uploads/1/gl_detail.xlsx",
		UploadedBy: "integration-user",
		UploadedAt: time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, attachments.Create(nil, att))
	require.NotZero(t, att.ID)

	count, err = attachments.CountByWorkflow(wf.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := attachments.GetByID(att.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "gl_detail.xlsx", got.FileName)
	assert.Equal(t, "GL Detail", got.FileType)
	assert.Equal(t, "integration-user", got.UploadedBy)

	missing, err := attachments.GetByID(999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := attachments.ListByWorkflow(wf.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
