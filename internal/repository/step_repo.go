package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/billerops/onboarding-workflow/internal/models"
	"go.uber.org/zap"
)

// StepRepository handles workflow step table operations
type StepRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStepRepository creates a new step repository
func NewStepRepository(db *sql.DB, logger *zap.Logger) *StepRepository {
	return &StepRepository{
		db:     db,
		logger: logger,
	}
}

// CreateForWorkflow inserts the full set of Pending steps for a new workflow.
// Creating anything other than the complete topology would violate the
// one-row-per-step invariant, so the loop always covers 1..StepCount.
func (r *StepRepository) CreateForWorkflow(tx *sql.Tx, workflowID int64, stepCount int) error {
	for step := 1; step <= stepCount; step++ {
		_, err := on(r.db, tx).Exec(
			`INSERT INTO workflow_steps (workflow_id, step_number, signoff_status) VALUES (?, ?, ?)`,
			workflowID, step, models.SignoffPending,
		)
		if err != nil {
			r.logger.Error("Failed to create workflow step",
				zap.Int64("workflow_id", workflowID),
				zap.Int("step", step),
				zap.Error(err))
			return fmt.Errorf("failed to create step %d: %w", step, err)
		}
	}
	return nil
}

// GetByNumber retrieves one step of a workflow. Returns nil when absent.
func (r *StepRepository) GetByNumber(workflowID int64, stepNumber int) (*models.WorkflowStep, error) {
	row := r.db.QueryRow(`
		SELECT id, workflow_id, step_number, signoff_person, signoff_status, signoff_date, remarks
		FROM workflow_steps
		WHERE workflow_id = ? AND step_number = ?
	`, workflowID, stepNumber)

	step, err := scanStep(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow step",
			zap.Int64("workflow_id", workflowID),
			zap.Int("step", stepNumber),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get step: %w", err)
	}
	return step, nil
}

// ListByWorkflow retrieves all steps of a workflow in step order.
func (r *StepRepository) ListByWorkflow(workflowID int64) ([]*models.WorkflowStep, error) {
	rows, err := r.db.Query(`
		SELECT id, workflow_id, step_number, signoff_person, signoff_status, signoff_date, remarks
		FROM workflow_steps
		WHERE workflow_id = ?
		ORDER BY step_number
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []*models.WorkflowStep
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// Stamp records a signoff decision on a step.
func (r *StepRepository) Stamp(tx *sql.Tx, workflowID int64, stepNumber int, status, person string, date time.Time, remarks string) error {
	_, err := on(r.db, tx).Exec(`
		UPDATE workflow_steps
		SET signoff_status = ?, signoff_person = ?, signoff_date = ?, remarks = ?
		WHERE workflow_id = ? AND step_number = ?
	`, status, person, date, remarks, workflowID, stepNumber)
	if err != nil {
		r.logger.Error("Failed to stamp step",
			zap.Int64("workflow_id", workflowID),
			zap.Int("step", stepNumber),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to stamp step: %w", err)
	}
	return nil
}

// ResetToPending clears a step back to its initial Pending state.
func (r *StepRepository) ResetToPending(tx *sql.Tx, workflowID int64, stepNumber int) error {
	_, err := on(r.db, tx).Exec(`
		UPDATE workflow_steps
		SET signoff_status = ?, signoff_person = NULL, signoff_date = NULL, remarks = NULL
		WHERE workflow_id = ? AND step_number = ?
	`, models.SignoffPending, workflowID, stepNumber)
	if err != nil {
		r.logger.Error("Failed to reset step",
			zap.Int64("workflow_id", workflowID),
			zap.Int("step", stepNumber),
			zap.Error(err))
		return fmt.Errorf("failed to reset step: %w", err)
	}
	return nil
}

func scanStep(row rowScanner) (*models.WorkflowStep, error) {
	var step models.WorkflowStep
	var person, remarks sql.NullString
	var date sql.NullTime

	err := row.Scan(&step.ID, &step.WorkflowID, &step.StepNumber, &person, &step.SignoffStatus, &date, &remarks)
	if err != nil {
		return nil, err
	}

	step.SignoffPerson = person.String
	step.Remarks = remarks.String
	step.SignoffDate = nullTime(date)
	return &step, nil
}
