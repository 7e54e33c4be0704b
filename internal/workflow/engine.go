package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/billerops/onboarding-workflow/internal/models"
	"github.com/billerops/onboarding-workflow/internal/repository"
	"github.com/billerops/onboarding-workflow/pkg/database"
	"go.uber.org/zap"
)

// Engine orchestrates signoff decisions against the fixed step topology. All
// multi-row transitions run inside a single transaction so that a failed
// commit leaves no partial state behind.
type Engine struct {
	db          *database.DB
	workflows   *repository.WorkflowRepository
	steps       *repository.StepRepository
	history     *repository.HistoryRepository
	rejections  *repository.RejectionHistoryRepository
	attachments *repository.AttachmentRepository
	logger      *zap.Logger
	clock       func() time.Time
}

// NewEngine creates a new signoff engine
func NewEngine(
	db *database.DB,
	workflows *repository.WorkflowRepository,
	steps *repository.StepRepository,
	history *repository.HistoryRepository,
	rejections *repository.RejectionHistoryRepository,
	attachments *repository.AttachmentRepository,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		db:          db,
		workflows:   workflows,
		steps:       steps,
		history:     history,
		rejections:  rejections,
		attachments: attachments,
		logger:      logger,
		clock:       time.Now,
	}
}

// SignoffRequest carries one signoff decision for (workflow, step).
type SignoffRequest struct {
	WorkflowID int64
	StepNumber int
	Decision   string // models.SignoffApproved or models.SignoffRejected
	Actor      string
	Remarks    string
	OccurredAt *time.Time
}

// Signoff applies one approval or rejection decision. A request against a
// step other than the workflow's current step returns the stored step
// unchanged; duplicate and out-of-order requests are absorbed rather than
// treated as failures.
func (e *Engine) Signoff(ctx context.Context, req SignoffRequest) (*models.WorkflowStep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wf, err := e.workflows.GetByID(req.WorkflowID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: id %d", ErrWorkflowNotFound, req.WorkflowID)
	}

	step, err := e.steps.GetByNumber(req.WorkflowID, req.StepNumber)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, fmt.Errorf("%w: workflow %d step %d", ErrStepNotFound, req.WorkflowID, req.StepNumber)
	}

	if !CanActOnStep(wf, req.StepNumber) {
		e.logger.Warn("Stale signoff ignored",
			zap.Int64("workflow_id", req.WorkflowID),
			zap.Int("requested_step", req.StepNumber),
			zap.Int("current_step", wf.CurrentStep))
		return step, nil
	}

	switch req.Decision {
	case models.SignoffApproved:
		return e.approve(req)
	case models.SignoffRejected:
		return e.reject(req)
	default:
		return nil, fmt.Errorf("unknown signoff decision %q", req.Decision)
	}
}

func (e *Engine) approve(req SignoffRequest) (*models.WorkflowStep, error) {
	if RequiresAttachmentBeforeApproval(req.StepNumber) {
		count, err := e.attachments.CountByWorkflow(req.WorkflowID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, &GateError{
				Step:    req.StepNumber,
				Message: fmt.Sprintf("Cannot approve step %d without adding GL Detail. Integration Team must upload required GL Detail documentation.", req.StepNumber),
			}
		}
	}

	when := e.signoffTime(req)
	nextStep := req.StepNumber + 1
	if nextStep > StepCount {
		nextStep = StepCount
	}

	err := e.db.WithTransaction(func(tx *sql.Tx) error {
		if err := e.steps.Stamp(tx, req.WorkflowID, req.StepNumber, models.SignoffApproved, req.Actor, when, req.Remarks); err != nil {
			return err
		}
		if err := e.workflows.SetCurrentStep(tx, req.WorkflowID, nextStep); err != nil {
			return err
		}
		if err := e.history.Create(tx, &models.WorkflowHistory{
			WorkflowID: req.WorkflowID,
			Action:     fmt.Sprintf("Approved Step %d, Advanced to Step %d", req.StepNumber, nextStep),
			ActionBy:   req.Actor,
			ActionDate: when,
			Details:    detailsOrDefault(req.Remarks),
		}); err != nil {
			return err
		}
		// Steps ahead of the new pointer may hold stale Approved/Rejected
		// marks from an earlier pass through a rejection restart; clear them
		// every time so re-approval always leaves a clean runway.
		for step := req.StepNumber + 1; step <= StepCount; step++ {
			if err := e.steps.ResetToPending(tx, req.WorkflowID, step); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Step approved",
		zap.Int64("workflow_id", req.WorkflowID),
		zap.Int("step", req.StepNumber),
		zap.Int("next_step", nextStep),
		zap.String("actor", req.Actor))

	return e.steps.GetByNumber(req.WorkflowID, req.StepNumber)
}

func (e *Engine) reject(req SignoffRequest) (*models.WorkflowStep, error) {
	if RequiresAttachmentBeforeRejection(req.StepNumber) {
		count, err := e.attachments.CountByWorkflow(req.WorkflowID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, &GateError{
				Step:    req.StepNumber,
				Message: fmt.Sprintf("Cannot reject step %d without adding GL Detail. Finance Team must upload required GL Detail documentation when rejecting.", req.StepNumber),
			}
		}
	}

	when := e.signoffTime(req)

	// The rejection stamp commits on its own: the fact that the step was
	// rejected must survive even if a later write in this call fails.
	err := e.db.WithTransaction(func(tx *sql.Tx) error {
		return e.steps.Stamp(tx, req.WorkflowID, req.StepNumber, models.SignoffRejected, req.Actor, when, req.Remarks)
	})
	if err != nil {
		return nil, err
	}

	restartStep, hasRestart := RestartStep(req.StepNumber)

	var restartPtr *int
	action := fmt.Sprintf("Rejected at Step %d", req.StepNumber)
	if hasRestart {
		restartPtr = &restartStep
		action = fmt.Sprintf("%s, Restart from Step %d", action, restartStep)
	}

	err = e.db.WithTransaction(func(tx *sql.Tx) error {
		if err := e.rejections.Create(tx, &models.WorkflowRejectionHistory{
			WorkflowID:  req.WorkflowID,
			StepNumber:  req.StepNumber,
			RejectedBy:  req.Actor,
			Remarks:     req.Remarks,
			RestartStep: restartPtr,
			RejectDate:  when,
		}); err != nil {
			return err
		}
		if err := e.history.Create(tx, &models.WorkflowHistory{
			WorkflowID: req.WorkflowID,
			Action:     action,
			ActionBy:   req.Actor,
			ActionDate: when,
			Details:    detailsOrDefault(req.Remarks),
		}); err != nil {
			return err
		}
		if !hasRestart {
			// Terminal by policy: current_step stays on the rejected step.
			return e.workflows.SetStatus(tx, req.WorkflowID, models.StatusRejected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if hasRestart {
		if err := e.restart(req.WorkflowID, req.StepNumber, restartStep); err != nil {
			return nil, err
		}
	}

	e.logger.Info("Step rejected",
		zap.Int64("workflow_id", req.WorkflowID),
		zap.Int("step", req.StepNumber),
		zap.Bool("restart", hasRestart),
		zap.String("actor", req.Actor))

	return e.steps.GetByNumber(req.WorkflowID, req.StepNumber)
}

// restart rewinds the workflow to restartStep after a rejection. The rejected
// step keeps its Rejected mark so the rejection stays visible on the step row
// until a later approval pass resets it.
func (e *Engine) restart(workflowID int64, rejectedStep, restartStep int) error {
	err := e.db.WithTransaction(func(tx *sql.Tx) error {
		if err := e.steps.ResetToPending(tx, workflowID, restartStep); err != nil {
			return err
		}
		if err := e.workflows.SetCurrentStep(tx, workflowID, restartStep); err != nil {
			return err
		}
		if err := e.workflows.SetStatus(tx, workflowID, models.StatusInProgress); err != nil {
			return err
		}
		for step := restartStep + 1; step <= StepCount; step++ {
			if step == rejectedStep {
				continue
			}
			if err := e.steps.ResetToPending(tx, workflowID, step); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Verify-and-retry: one bounded re-apply against lost updates from a
	// concurrent writer on the same workflow row. Not a general retry loop.
	wf, err := e.workflows.GetByID(workflowID)
	if err != nil {
		return err
	}
	if wf == nil {
		return fmt.Errorf("%w: id %d", ErrWorkflowNotFound, workflowID)
	}
	if wf.CurrentStep != restartStep || wf.Status != models.StatusInProgress {
		e.logger.Warn("Restart verification mismatch, re-applying",
			zap.Int64("workflow_id", workflowID),
			zap.Int("current_step", wf.CurrentStep),
			zap.String("status", wf.Status),
			zap.Int("restart_step", restartStep))
		return e.db.WithTransaction(func(tx *sql.Tx) error {
			if err := e.workflows.SetCurrentStep(tx, workflowID, restartStep); err != nil {
				return err
			}
			return e.workflows.SetStatus(tx, workflowID, models.StatusInProgress)
		})
	}
	return nil
}

// GetWorkflow retrieves a workflow by ID.
func (e *Engine) GetWorkflow(ctx context.Context, id int64) (*models.Workflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wf, err := e.workflows.GetByID(id)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: id %d", ErrWorkflowNotFound, id)
	}
	return wf, nil
}

// ListWorkflows retrieves workflows matching the filter plus the total count.
func (e *Engine) ListWorkflows(ctx context.Context, filter repository.ListFilter) ([]*models.Workflow, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return e.workflows.List(filter)
}

// GetSteps retrieves all steps of a workflow in order.
func (e *Engine) GetSteps(ctx context.Context, workflowID int64) ([]*models.WorkflowStep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.steps.ListByWorkflow(workflowID)
}

// GetHistory retrieves a workflow's action log, newest first.
func (e *Engine) GetHistory(ctx context.Context, workflowID int64) ([]*models.WorkflowHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.history.ListByWorkflow(workflowID)
}

// GetRejectionHistory retrieves a workflow's permanent rejection records.
func (e *Engine) GetRejectionHistory(ctx context.Context, workflowID int64) ([]*models.WorkflowRejectionHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wf, err := e.workflows.GetByID(workflowID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: id %d", ErrWorkflowNotFound, workflowID)
	}
	return e.rejections.ListByWorkflow(workflowID)
}

// RecordAttachment stores attachment metadata for a workflow. The gates see
// the attachment from the moment this returns; uploads must complete before
// the gated signoff call they unblock.
func (e *Engine) RecordAttachment(ctx context.Context, att *models.Attachment) (*models.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wf, err := e.workflows.GetByID(att.WorkflowID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: id %d", ErrWorkflowNotFound, att.WorkflowID)
	}
	if att.UploadedAt.IsZero() {
		att.UploadedAt = e.clock()
	}
	if err := e.attachments.Create(nil, att); err != nil {
		return nil, err
	}
	return att, nil
}

// GetAttachment retrieves attachment metadata by ID.
func (e *Engine) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.attachments.GetByID(id)
}

// GetAttachments retrieves all attachment metadata of a workflow.
func (e *Engine) GetAttachments(ctx context.Context, workflowID int64) ([]*models.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.attachments.ListByWorkflow(workflowID)
}

func (e *Engine) signoffTime(req SignoffRequest) time.Time {
	if req.OccurredAt != nil {
		return *req.OccurredAt
	}
	return e.clock()
}

func detailsOrDefault(remarks string) string {
	if remarks == "" {
		return "No remarks provided"
	}
	return remarks
}
