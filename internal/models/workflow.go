package models

import "time"

// Workflow represents a biller onboarding workflow moving through eight
// ordered signoff steps. The fee and contact fields are opaque to the state
// machine; only title, current_step and status participate in transitions.
type Workflow struct {
	ID                         int64      `json:"id"`
	Title                      string     `json:"title"`
	BillerIntegrationName      string     `json:"biller_integration_name"`
	Category                   string     `json:"category,omitempty"`
	IntegrationType            string     `json:"integration_type,omitempty"`
	CompanyName                string     `json:"company_name,omitempty"`
	PhoneNumber                string     `json:"phone_number,omitempty"`
	Email                      string     `json:"email,omitempty"`
	FeesType                   string     `json:"fees_type,omitempty"`
	FeesStyle                  string     `json:"fees_style,omitempty"`
	MDRFee                     *float64   `json:"mdr_fee,omitempty"`
	FeeWaive                   bool       `json:"fee_waive"`
	FeeWaiveEndDate            *time.Time `json:"fee_waive_end_date,omitempty"`
	AgentToggle                bool       `json:"agent_toggle"`
	AgentFee                   *float64   `json:"agent_fee,omitempty"`
	SystemFee                  *float64   `json:"system_fee,omitempty"`
	TransactionAgentFee        *float64   `json:"transaction_agent_fee,omitempty"`
	DTRFee                     *float64   `json:"dtr_fee,omitempty"`
	BusinessOwner              string     `json:"business_owner,omitempty"`
	RequestedGoLiveDate        *time.Time `json:"requested_go_live_date,omitempty"`
	SetupFee                   *float64   `json:"setup_fee,omitempty"`
	SetupFeeWaive              bool       `json:"setup_fee_waive"`
	SetupFeeWaiveEndDate       *time.Time `json:"setup_fee_waive_end_date,omitempty"`
	MaintenanceFee             *float64   `json:"maintenance_fee,omitempty"`
	MaintenanceFeeWaive        bool       `json:"maintenance_fee_waive"`
	MaintenanceFeeWaiveEndDate *time.Time `json:"maintenance_fee_waive_end_date,omitempty"`
	PortalFee                  *float64   `json:"portal_fee,omitempty"`
	PortalFeeWaive             bool       `json:"portal_fee_waive"`
	PortalFeeWaiveEndDate      *time.Time `json:"portal_fee_waive_end_date,omitempty"`
	RequestedBy                string     `json:"requested_by,omitempty"`
	Remarks                    string     `json:"remarks,omitempty"`
	LastUpdatedBy              string     `json:"last_updated_by,omitempty"`
	GoLiveDate                 *time.Time `json:"go_live_date,omitempty"`
	CurrentStep                int        `json:"current_step"`
	Status                     string     `json:"status"`
	SubmitDate                 time.Time  `json:"submit_date"`
	LastUpdatedDate            time.Time  `json:"last_updated_date"`
}

// WorkflowStep represents a single signoff step of a workflow. There is
// exactly one row per (workflow_id, step_number) pair for step numbers 1..8,
// created together with the workflow. Mutated only by the signoff engine.
type WorkflowStep struct {
	ID            int64      `json:"id"`
	WorkflowID    int64      `json:"workflow_id"`
	StepNumber    int        `json:"step_number"`
	SignoffPerson string     `json:"signoff_person,omitempty"`
	SignoffStatus string     `json:"signoff_status"`
	SignoffDate   *time.Time `json:"signoff_date,omitempty"`
	Remarks       string     `json:"remarks,omitempty"`
}

// Workflow status constants
const (
	StatusInProgress = "In Progress"
	StatusRejected   = "Rejected"
)

// Step signoff status constants
const (
	SignoffPending  = "Pending"
	SignoffApproved = "Approved"
	SignoffRejected = "Rejected"
)

// WorkflowUpdate carries a partial field update for a workflow. Nil fields are
// left untouched; non-nil fields overwrite the stored value (last write wins).
type WorkflowUpdate struct {
	BillerIntegrationName      *string    `json:"biller_integration_name,omitempty"`
	Category                   *string    `json:"category,omitempty"`
	IntegrationType            *string    `json:"integration_type,omitempty"`
	CompanyName                *string    `json:"company_name,omitempty"`
	PhoneNumber                *string    `json:"phone_number,omitempty"`
	Email                      *string    `json:"email,omitempty"`
	FeesType                   *string    `json:"fees_type,omitempty"`
	FeesStyle                  *string    `json:"fees_style,omitempty"`
	MDRFee                     *float64   `json:"mdr_fee,omitempty"`
	FeeWaive                   *bool      `json:"fee_waive,omitempty"`
	FeeWaiveEndDate            *time.Time `json:"fee_waive_end_date,omitempty"`
	AgentToggle                *bool      `json:"agent_toggle,omitempty"`
	AgentFee                   *float64   `json:"agent_fee,omitempty"`
	SystemFee                  *float64   `json:"system_fee,omitempty"`
	TransactionAgentFee        *float64   `json:"transaction_agent_fee,omitempty"`
	DTRFee                     *float64   `json:"dtr_fee,omitempty"`
	BusinessOwner              *string    `json:"business_owner,omitempty"`
	RequestedGoLiveDate        *time.Time `json:"requested_go_live_date,omitempty"`
	SetupFee                   *float64   `json:"setup_fee,omitempty"`
	SetupFeeWaive              *bool      `json:"setup_fee_waive,omitempty"`
	SetupFeeWaiveEndDate       *time.Time `json:"setup_fee_waive_end_date,omitempty"`
	MaintenanceFee             *float64   `json:"maintenance_fee,omitempty"`
	MaintenanceFeeWaive        *bool      `json:"maintenance_fee_waive,omitempty"`
	MaintenanceFeeWaiveEndDate *time.Time `json:"maintenance_fee_waive_end_date,omitempty"`
	PortalFee                  *float64   `json:"portal_fee,omitempty"`
	PortalFeeWaive             *bool      `json:"portal_fee_waive,omitempty"`
	PortalFeeWaiveEndDate      *time.Time `json:"portal_fee_waive_end_date,omitempty"`
	RequestedBy                *string    `json:"requested_by,omitempty"`
	Remarks                    *string    `json:"remarks,omitempty"`
	LastUpdatedBy              *string    `json:"last_updated_by,omitempty"`
	GoLiveDate                 *time.Time `json:"go_live_date,omitempty"`
}
