package models

import "time"

// WorkflowHistory is an append-only audit log entry describing a signoff
// action and the resulting step transition. Rows are never updated or deleted.
type WorkflowHistory struct {
	ID         int64     `json:"id"`
	WorkflowID int64     `json:"workflow_id"`
	Action     string    `json:"action"`
	ActionBy   string    `json:"action_by"`
	ActionDate time.Time `json:"action_date"`
	Details    string    `json:"details"`
}

// WorkflowRejectionHistory records a single rejection event. It is kept
// permanently even after the rejected step row is reset to Pending by a later
// approval cycle; it is the only durable record that the rejection happened.
type WorkflowRejectionHistory struct {
	ID          int64     `json:"id"`
	WorkflowID  int64     `json:"workflow_id"`
	StepNumber  int       `json:"step_number"`
	RejectedBy  string    `json:"rejected_by"`
	Remarks     string    `json:"remarks,omitempty"`
	RestartStep *int      `json:"restart_step"`
	RejectDate  time.Time `json:"reject_date"`
}

// FieldChange holds the stringified before/after values of one edited field.
type FieldChange struct {
	OldValue *string `json:"old_value"`
	NewValue *string `json:"new_value"`
}

// EditHistory is an append-only diff log for direct field edits to a
// workflow. Changes maps field name to its old/new values and only contains
// fields that actually differed.
type EditHistory struct {
	ID         int64                  `json:"id"`
	WorkflowID int64                  `json:"workflow_id"`
	EditedBy   string                 `json:"edited_by"`
	EditedAt   time.Time              `json:"edited_at"`
	Changes    map[string]FieldChange `json:"changes"`
}
