package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/billerops/onboarding-workflow/internal/models"
	"github.com/billerops/onboarding-workflow/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, logger))
	return db
}

func seedWorkflow(t *testing.T, repo *WorkflowRepository, title, biller string) *models.Workflow {
	t.Helper()
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	wf := &models.Workflow{
		Title:                 title,
		BillerIntegrationName: biller,
		CurrentStep:           1,
		Status:                models.StatusInProgress,
		SubmitDate:            now,
		LastUpdatedDate:       now,
	}
	require.NoError(t, repo.Create(nil, wf))
	return wf
}

func TestWorkflowRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkflowRepository(db.DB, zap.NewNop())

	fee := 2.5
	waiveEnd := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	wf := &models.Workflow{
		Title:                 "WF00001",
		BillerIntegrationName: "Acme Power",
		CompanyName:           "Acme Utilities Ltd",
		Email:                 "ops@acme.example",
		MDRFee:                &fee,
		FeeWaive:              true,
		FeeWaiveEndDate:       &waiveEnd,
		CurrentStep:           1,
		Status:                models.StatusInProgress,
		SubmitDate:            now,
		LastUpdatedDate:       now,
	}
	require.NoError(t, repo.Create(nil, wf))
	require.NotZero(t, wf.ID)

	got, err := repo.GetByID(wf.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "WF00001", got.Title)
	assert.Equal(t, "Acme Power", got.BillerIntegrationName)
	assert.Equal(t, "Acme Utilities Ltd", got.CompanyName)
	assert.Equal(t, "ops@acme.example", got.Email)
	require.NotNil(t, got.MDRFee)
	assert.Equal(t, fee, *got.MDRFee)
	assert.True(t, got.FeeWaive)
	require.NotNil(t, got.FeeWaiveEndDate)
	assert.True(t, got.FeeWaiveEndDate.Equal(waiveEnd))
	assert.Nil(t, got.AgentFee)
	assert.Nil(t, got.GoLiveDate)
}

func TestWorkflowRepository_GetByIDAbsent(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkflowRepository(db.DB, zap.NewNop())

	got, err := repo.GetByID(12345)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWorkflowRepository_Latest(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkflowRepository(db.DB, zap.NewNop())

	latest, err := repo.Latest(nil)
	require.NoError(t, err)
	assert.Nil(t, latest, "empty table yields nil")

	seedWorkflow(t, repo, "WF00001", "First")
	second := seedWorkflow(t, repo, "WF00002", "Second")

	latest, err = repo.Latest(nil)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
}

func TestWorkflowRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkflowRepository(db.DB, zap.NewNop())

	seedWorkflow(t, repo, "WF00001", "Acme Power")
	seedWorkflow(t, repo, "WF00002", "Metro Water")
	seedWorkflow(t, repo, "WF00003", "Acme Gas")

	t.Run("returns all with total, newest first", func(t *testing.T) {
		workflows, total, err := repo.List(ListFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, workflows, 3)
		assert.Equal(t, "WF00003", workflows[0].Title)
	})

	t.Run("search matches biller name", func(t *testing.T) {
		workflows, total, err := repo.List(ListFilter{Search: "Acme", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, workflows, 2)
	})

	t.Run("pagination keeps the full total", func(t *testing.T) {
		workflows, total, err := repo.List(ListFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, workflows, 1)
		assert.Equal(t, "WF00001", workflows[0].Title)
	})

	t.Run("search without hits", func(t *testing.T) {
		workflows, total, err := repo.List(ListFilter{Search: "nothing", Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, workflows)
	})
}

func TestWorkflowRepository_SetCurrentStepAndStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkflowRepository(db.DB, zap.NewNop())
	wf := seedWorkflow(t, repo, "WF00001", "Acme Power")

	require.NoError(t, repo.SetCurrentStep(nil, wf.ID, 5))
	require.NoError(t, repo.SetStatus(nil, wf.ID, models.StatusRejected))

	got, err := repo.GetByID(wf.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentStep)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.True(t, got.LastUpdatedDate.After(wf.LastUpdatedDate))
}

func TestWorkflowRepository_CountStalled(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkflowRepository(db.DB, zap.NewNop())

	wf := seedWorkflow(t, repo, "WF00001", "Acme Power")
	seedWorkflow(t, repo, "WF00002", "Metro Water")

	// Everything was last touched on 2026-03-15.
	count, err := repo.CountStalled(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountStalled(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, count)

	// Rejected workflows are not counted.
	require.NoError(t, repo.SetStatus(nil, wf.ID, models.StatusRejected))
	count, err = repo.CountStalled(time.Now().Add(24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
