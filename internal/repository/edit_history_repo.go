package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/billerops/onboarding-workflow/internal/models"
	"go.uber.org/zap"
)

// EditHistoryRepository handles the append-only field edit diff log.
type EditHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEditHistoryRepository creates a new edit history repository
func NewEditHistoryRepository(db *sql.DB, logger *zap.Logger) *EditHistoryRepository {
	return &EditHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one edit history entry. The changes map is stored as JSON.
func (r *EditHistoryRepository) Create(tx *sql.Tx, h *models.EditHistory) error {
	changesJSON, err := json.Marshal(h.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	result, err := on(r.db, tx).Exec(`
		INSERT INTO edit_history (workflow_id, edited_by, edited_at, changes)
		VALUES (?, ?, ?, ?)
	`, h.WorkflowID, h.EditedBy, h.EditedAt, string(changesJSON))
	if err != nil {
		r.logger.Error("Failed to create edit history record", zap.Error(err))
		return fmt.Errorf("failed to create edit history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	h.ID = id
	return nil
}

// ListByWorkflow retrieves a workflow's edit history, newest first.
func (r *EditHistoryRepository) ListByWorkflow(workflowID int64) ([]*models.EditHistory, error) {
	rows, err := r.db.Query(`
		SELECT id, workflow_id, edited_by, edited_at, changes
		FROM edit_history
		WHERE workflow_id = ?
		ORDER BY edited_at DESC, id DESC
	`, workflowID)
	if err != nil {
		r.logger.Error("Failed to list edit history", zap.Int64("workflow_id", workflowID), zap.Error(err))
		return nil, fmt.Errorf("failed to list edit history: %w", err)
	}
	defer rows.Close()

	var records []*models.EditHistory
	for rows.Next() {
		var record models.EditHistory
		var editedBy sql.NullString
		var changesJSON string
		if err := rows.Scan(&record.ID, &record.WorkflowID, &editedBy, &record.EditedAt, &changesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan edit history record: %w", err)
		}
		record.EditedBy = editedBy.String
		if err := json.Unmarshal([]byte(changesJSON), &record.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}
