package repository

import (
	"database/sql"
	"fmt"

	"github.com/billerops/onboarding-workflow/internal/models"
	"go.uber.org/zap"
)

// AttachmentRepository handles attachment metadata operations. The signoff
// gates only ever read the count.
type AttachmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sql.DB, logger *zap.Logger) *AttachmentRepository {
	return &AttachmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an attachment metadata row.
func (r *AttachmentRepository) Create(tx *sql.Tx, a *models.Attachment) error {
	result, err := on(r.db, tx).Exec(`
		INSERT INTO attachments (workflow_id, file_type, file_name, file_path, uploaded_by, uploaded_at, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.WorkflowID, a.FileType, a.FileName, a.FilePath, a.UploadedBy, a.UploadedAt, a.Description)
	if err != nil {
		r.logger.Error("Failed to create attachment", zap.Error(err))
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = id
	return nil
}

// GetByID retrieves an attachment by ID. Returns nil when absent.
func (r *AttachmentRepository) GetByID(id int64) (*models.Attachment, error) {
	row := r.db.QueryRow(`
		SELECT id, workflow_id, file_type, file_name, file_path, uploaded_by, uploaded_at, description
		FROM attachments
		WHERE id = ?
	`, id)

	att, err := scanAttachment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get attachment", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return att, nil
}

// CountByWorkflow returns the number of attachments recorded for a workflow.
func (r *AttachmentRepository) CountByWorkflow(workflowID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM attachments WHERE workflow_id = ?`, workflowID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count attachments", zap.Int64("workflow_id", workflowID), zap.Error(err))
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}
	return count, nil
}

// ListByWorkflow retrieves all attachments of a workflow, oldest first.
func (r *AttachmentRepository) ListByWorkflow(workflowID int64) ([]*models.Attachment, error) {
	rows, err := r.db.Query(`
		SELECT id, workflow_id, file_type, file_name, file_path, uploaded_by, uploaded_at, description
		FROM attachments
		WHERE workflow_id = ?
		ORDER BY uploaded_at, id
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, att)
	}
	return attachments, rows.Err()
}

func scanAttachment(row rowScanner) (*models.Attachment, error) {
	var a models.Attachment
	var fileType, uploadedBy, description sql.NullString

	err := row.Scan(&a.ID, &a.WorkflowID, &fileType, &a.FileName, &a.FilePath, &uploadedBy, &a.UploadedAt, &description)
	if err != nil {
		return nil, err
	}

	a.FileType = fileType.String
	a.UploadedBy = uploadedBy.String
	a.Description = description.String
	return &a, nil
}
