package repository

import (
	"database/sql"
	"fmt"

	"github.com/billerops/onboarding-workflow/internal/models"
	"go.uber.org/zap"
)

// HistoryRepository handles the append-only workflow action log.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one action log entry. Rows are never updated or deleted.
func (r *HistoryRepository) Create(tx *sql.Tx, h *models.WorkflowHistory) error {
	result, err := on(r.db, tx).Exec(`
		INSERT INTO workflow_history (workflow_id, action, action_by, action_date, details)
		VALUES (?, ?, ?, ?, ?)
	`, h.WorkflowID, h.Action, h.ActionBy, h.ActionDate, h.Details)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	h.ID = id
	return nil
}

// ListByWorkflow retrieves a workflow's action log, newest first.
func (r *HistoryRepository) ListByWorkflow(workflowID int64) ([]*models.WorkflowHistory, error) {
	rows, err := r.db.Query(`
		SELECT id, workflow_id, action, action_by, action_date, details
		FROM workflow_history
		WHERE workflow_id = ?
		ORDER BY action_date DESC, id DESC
	`, workflowID)
	if err != nil {
		r.logger.Error("Failed to list history", zap.Int64("workflow_id", workflowID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*models.WorkflowHistory
	for rows.Next() {
		var record models.WorkflowHistory
		var actionBy, details sql.NullString
		if err := rows.Scan(&record.ID, &record.WorkflowID, &record.Action, &actionBy, &record.ActionDate, &details); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.ActionBy = actionBy.String
		record.Details = details.String
		records = append(records, &record)
	}
	return records, rows.Err()
}
