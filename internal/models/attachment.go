package models

import "time"

// Attachment holds the metadata of an uploaded document. The state machine
// only ever consumes the per-workflow attachment count; file contents are
// never read here.
type Attachment struct {
	ID          int64     `json:"id"`
	WorkflowID  int64     `json:"workflow_id"`
	FileType    string    `json:"file_type,omitempty"`
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"file_path"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Description string    `json:"description,omitempty"`
}
