package repository

import (
	"database/sql"
	"fmt"

	"github.com/billerops/onboarding-workflow/internal/models"
	"go.uber.org/zap"
)

// RejectionHistoryRepository handles the permanent per-rejection log. Rows
// outlive the rejected step's own status, which a later approval cycle resets.
type RejectionHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRejectionHistoryRepository creates a new rejection history repository
func NewRejectionHistoryRepository(db *sql.DB, logger *zap.Logger) *RejectionHistoryRepository {
	return &RejectionHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one rejection record. RestartStep stays NULL when the
// rejected step has no restart rule.
func (r *RejectionHistoryRepository) Create(tx *sql.Tx, rec *models.WorkflowRejectionHistory) error {
	result, err := on(r.db, tx).Exec(`
		INSERT INTO workflow_rejection_history (workflow_id, step_number, rejected_by, remarks, restart_step, reject_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.WorkflowID, rec.StepNumber, rec.RejectedBy, rec.Remarks, rec.RestartStep, rec.RejectDate)
	if err != nil {
		r.logger.Error("Failed to create rejection record", zap.Error(err))
		return fmt.Errorf("failed to create rejection record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// ListByWorkflow retrieves a workflow's rejection records, newest first.
func (r *RejectionHistoryRepository) ListByWorkflow(workflowID int64) ([]*models.WorkflowRejectionHistory, error) {
	rows, err := r.db.Query(`
		SELECT id, workflow_id, step_number, rejected_by, remarks, restart_step, reject_date
		FROM workflow_rejection_history
		WHERE workflow_id = ?
		ORDER BY reject_date DESC, id DESC
	`, workflowID)
	if err != nil {
		r.logger.Error("Failed to list rejection history", zap.Int64("workflow_id", workflowID), zap.Error(err))
		return nil, fmt.Errorf("failed to list rejection history: %w", err)
	}
	defer rows.Close()

	var records []*models.WorkflowRejectionHistory
	for rows.Next() {
		var record models.WorkflowRejectionHistory
		var rejectedBy, remarks sql.NullString
		var restartStep sql.NullInt64
		if err := rows.Scan(&record.ID, &record.WorkflowID, &record.StepNumber, &rejectedBy, &remarks, &restartStep, &record.RejectDate); err != nil {
			return nil, fmt.Errorf("failed to scan rejection record: %w", err)
		}
		record.RejectedBy = rejectedBy.String
		record.Remarks = remarks.String
		if restartStep.Valid {
			step := int(restartStep.Int64)
			record.RestartStep = &step
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}
