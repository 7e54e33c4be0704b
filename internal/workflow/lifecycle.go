package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/billerops/onboarding-workflow/internal/models"
	"github.com/billerops/onboarding-workflow/internal/repository"
	"github.com/billerops/onboarding-workflow/pkg/database"
	"go.uber.org/zap"
)

const titlePrefix = "WF"

// Lifecycle manages workflow creation and direct field edits.
type Lifecycle struct {
	db        *database.DB
	workflows *repository.WorkflowRepository
	steps     *repository.StepRepository
	edits     *repository.EditHistoryRepository
	logger    *zap.Logger
	clock     func() time.Time
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle(
	db *database.DB,
	workflows *repository.WorkflowRepository,
	steps *repository.StepRepository,
	edits *repository.EditHistoryRepository,
	logger *zap.Logger,
) *Lifecycle {
	return &Lifecycle{
		db:        db,
		workflows: workflows,
		steps:     steps,
		edits:     edits,
		logger:    logger,
		clock:     time.Now,
	}
}

// CreateWorkflow persists a new workflow with a generated title, InProgress
// status, current step 1 and the full set of Pending steps, all in one
// transaction. Any caller-supplied title is overwritten.
func (l *Lifecycle) CreateWorkflow(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := l.clock()
	err := l.db.WithTransaction(func(tx *sql.Tx) error {
		seq := 1
		latest, err := l.workflows.Latest(tx)
		if err != nil {
			return err
		}
		if latest != nil {
			if n, ok := parseTitleSequence(latest.Title); ok {
				seq = n + 1
			} else {
				seq = int(latest.ID) + 1
			}
		}

		wf.Title = fmt.Sprintf("%s%05d", titlePrefix, seq)
		wf.Status = models.StatusInProgress
		wf.CurrentStep = FirstStep
		wf.SubmitDate = now
		wf.LastUpdatedDate = now

		if err := l.workflows.Create(tx, wf); err != nil {
			return err
		}
		return l.steps.CreateForWorkflow(tx, wf.ID, StepCount)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Workflow created",
		zap.Int64("id", wf.ID),
		zap.String("title", wf.Title),
		zap.String("biller", wf.BillerIntegrationName))

	return wf, nil
}

// UpdateWorkflow applies a partial field update. Each field that actually
// changes is recorded in one EditHistory entry, but only when the update
// carries an editor identity (LastUpdatedBy); updates with no effective
// change, or without an editor, leave no audit entry. last_updated_date is
// refreshed either way.
func (l *Lifecycle) UpdateWorkflow(ctx context.Context, id int64, upd *models.WorkflowUpdate) (*models.Workflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wf, err := l.workflows.GetByID(id)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: id %d", ErrWorkflowNotFound, id)
	}

	changes := make(map[string]models.FieldChange)
	applyUpdate(wf, upd, changes)
	wf.LastUpdatedDate = l.clock()

	err = l.db.WithTransaction(func(tx *sql.Tx) error {
		if err := l.workflows.Update(tx, wf); err != nil {
			return err
		}
		if len(changes) > 0 && upd.LastUpdatedBy != nil && *upd.LastUpdatedBy != "" {
			return l.edits.Create(tx, &models.EditHistory{
				WorkflowID: id,
				EditedBy:   *upd.LastUpdatedBy,
				EditedAt:   wf.LastUpdatedDate,
				Changes:    changes,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		l.logger.Info("Workflow updated",
			zap.Int64("id", id),
			zap.Int("changed_fields", len(changes)))
	}

	return wf, nil
}

// GetEditHistory retrieves a workflow's edit diff log, newest first.
func (l *Lifecycle) GetEditHistory(ctx context.Context, workflowID int64) ([]*models.EditHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.edits.ListByWorkflow(workflowID)
}

// parseTitleSequence extracts the numeric suffix of a WF-prefixed title.
func parseTitleSequence(title string) (int, bool) {
	if !strings.HasPrefix(title, titlePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(title[len(titlePrefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}

// applyUpdate copies every set field of upd onto wf, recording old/new string
// values for the ones that actually differ.
func applyUpdate(wf *models.Workflow, upd *models.WorkflowUpdate, changes map[string]models.FieldChange) {
	applyString("biller_integration_name", &wf.BillerIntegrationName, upd.BillerIntegrationName, changes)
	applyString("category", &wf.Category, upd.Category, changes)
	applyString("integration_type", &wf.IntegrationType, upd.IntegrationType, changes)
	applyString("company_name", &wf.CompanyName, upd.CompanyName, changes)
	applyString("phone_number", &wf.PhoneNumber, upd.PhoneNumber, changes)
	applyString("email", &wf.Email, upd.Email, changes)
	applyString("fees_type", &wf.FeesType, upd.FeesType, changes)
	applyString("fees_style", &wf.FeesStyle, upd.FeesStyle, changes)
	applyFloat("mdr_fee", &wf.MDRFee, upd.MDRFee, changes)
	applyBool("fee_waive", &wf.FeeWaive, upd.FeeWaive, changes)
	applyTime("fee_waive_end_date", &wf.FeeWaiveEndDate, upd.FeeWaiveEndDate, changes)
	applyBool("agent_toggle", &wf.AgentToggle, upd.AgentToggle, changes)
	applyFloat("agent_fee", &wf.AgentFee, upd.AgentFee, changes)
	applyFloat("system_fee", &wf.SystemFee, upd.SystemFee, changes)
	applyFloat("transaction_agent_fee", &wf.TransactionAgentFee, upd.TransactionAgentFee, changes)
	applyFloat("dtr_fee", &wf.DTRFee, upd.DTRFee, changes)
	applyString("business_owner", &wf.BusinessOwner, upd.BusinessOwner, changes)
	applyTime("requested_go_live_date", &wf.RequestedGoLiveDate, upd.RequestedGoLiveDate, changes)
	applyFloat("setup_fee", &wf.SetupFee, upd.SetupFee, changes)
	applyBool("setup_fee_waive", &wf.SetupFeeWaive, upd.SetupFeeWaive, changes)
	applyTime("setup_fee_waive_end_date", &wf.SetupFeeWaiveEndDate, upd.SetupFeeWaiveEndDate, changes)
	applyFloat("maintenance_fee", &wf.MaintenanceFee, upd.MaintenanceFee, changes)
	applyBool("maintenance_fee_waive", &wf.MaintenanceFeeWaive, upd.MaintenanceFeeWaive, changes)
	applyTime("maintenance_fee_waive_end_date", &wf.MaintenanceFeeWaiveEndDate, upd.MaintenanceFeeWaiveEndDate, changes)
	applyFloat("portal_fee", &wf.PortalFee, upd.PortalFee, changes)
	applyBool("portal_fee_waive", &wf.PortalFeeWaive, upd.PortalFeeWaive, changes)
	applyTime("portal_fee_waive_end_date", &wf.PortalFeeWaiveEndDate, upd.PortalFeeWaiveEndDate, changes)
	applyString("requested_by", &wf.RequestedBy, upd.RequestedBy, changes)
	applyString("remarks", &wf.Remarks, upd.Remarks, changes)
	applyString("last_updated_by", &wf.LastUpdatedBy, upd.LastUpdatedBy, changes)
	applyTime("go_live_date", &wf.GoLiveDate, upd.GoLiveDate, changes)
}

func applyString(field string, current *string, updated *string, changes map[string]models.FieldChange) {
	if updated == nil || *current == *updated {
		return
	}
	changes[field] = models.FieldChange{
		OldValue: strPtrOrNil(*current != "", *current),
		NewValue: strPtrOrNil(*updated != "", *updated),
	}
	*current = *updated
}

func applyBool(field string, current *bool, updated *bool, changes map[string]models.FieldChange) {
	if updated == nil || *current == *updated {
		return
	}
	oldVal := strconv.FormatBool(*current)
	newVal := strconv.FormatBool(*updated)
	changes[field] = models.FieldChange{OldValue: &oldVal, NewValue: &newVal}
	*current = *updated
}

func applyFloat(field string, current **float64, updated *float64, changes map[string]models.FieldChange) {
	if updated == nil {
		return
	}
	if *current != nil && **current == *updated {
		return
	}
	var oldVal *string
	if *current != nil {
		s := strconv.FormatFloat(**current, 'f', -1, 64)
		oldVal = &s
	}
	newVal := strconv.FormatFloat(*updated, 'f', -1, 64)
	changes[field] = models.FieldChange{OldValue: oldVal, NewValue: &newVal}
	v := *updated
	*current = &v
}

func applyTime(field string, current **time.Time, updated *time.Time, changes map[string]models.FieldChange) {
	if updated == nil {
		return
	}
	if *current != nil && (*current).Equal(*updated) {
		return
	}
	var oldVal *string
	if *current != nil {
		s := (*current).Format(time.RFC3339)
		oldVal = &s
	}
	newVal := updated.Format(time.RFC3339)
	changes[field] = models.FieldChange{OldValue: oldVal, NewValue: &newVal}
	v := *updated
	*current = &v
}

func strPtrOrNil(ok bool, s string) *string {
	if !ok {
		return nil
	}
	return &s
}
