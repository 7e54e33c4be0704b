package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/billerops/onboarding-workflow/internal/models"
	"go.uber.org/zap"
)

// WorkflowRepository handles workflow table operations
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *sql.DB, logger *zap.Logger) *WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

const workflowColumns = `id, title, biller_integration_name, category, integration_type,
	company_name, phone_number, email, fees_type, fees_style, mdr_fee,
	fee_waive, fee_waive_end_date, agent_toggle, agent_fee, system_fee,
	transaction_agent_fee, dtr_fee, business_owner, requested_go_live_date,
	setup_fee, setup_fee_waive, setup_fee_waive_end_date, maintenance_fee,
	maintenance_fee_waive, maintenance_fee_waive_end_date, portal_fee,
	portal_fee_waive, portal_fee_waive_end_date, requested_by, remarks,
	last_updated_by, go_live_date, current_step, status, submit_date,
	last_updated_date`

// ListFilter narrows and pages a workflow listing.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Create inserts a workflow row and sets its generated ID.
func (r *WorkflowRepository) Create(tx *sql.Tx, wf *models.Workflow) error {
	query := `
		INSERT INTO workflows (
			title, biller_integration_name, category, integration_type,
			company_name, phone_number, email, fees_type, fees_style, mdr_fee,
			fee_waive, fee_waive_end_date, agent_toggle, agent_fee, system_fee,
			transaction_agent_fee, dtr_fee, business_owner, requested_go_live_date,
			setup_fee, setup_fee_waive, setup_fee_waive_end_date, maintenance_fee,
			maintenance_fee_waive, maintenance_fee_waive_end_date, portal_fee,
			portal_fee_waive, portal_fee_waive_end_date, requested_by, remarks,
			last_updated_by, go_live_date, current_step, status, submit_date,
			last_updated_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := on(r.db, tx).Exec(query,
		wf.Title, wf.BillerIntegrationName, wf.Category, wf.IntegrationType,
		wf.CompanyName, wf.PhoneNumber, wf.Email, wf.FeesType, wf.FeesStyle, wf.MDRFee,
		wf.FeeWaive, wf.FeeWaiveEndDate, wf.AgentToggle, wf.AgentFee, wf.SystemFee,
		wf.TransactionAgentFee, wf.DTRFee, wf.BusinessOwner, wf.RequestedGoLiveDate,
		wf.SetupFee, wf.SetupFeeWaive, wf.SetupFeeWaiveEndDate, wf.MaintenanceFee,
		wf.MaintenanceFeeWaive, wf.MaintenanceFeeWaiveEndDate, wf.PortalFee,
		wf.PortalFeeWaive, wf.PortalFeeWaiveEndDate, wf.RequestedBy, wf.Remarks,
		wf.LastUpdatedBy, wf.GoLiveDate, wf.CurrentStep, wf.Status, wf.SubmitDate,
		wf.LastUpdatedDate,
	)
	if err != nil {
		r.logger.Error("Failed to create workflow", zap.Error(err))
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	wf.ID = id
	return nil
}

// GetByID retrieves a workflow by ID. Returns nil when absent.
func (r *WorkflowRepository) GetByID(id int64) (*models.Workflow, error) {
	row := r.db.QueryRow(`SELECT `+workflowColumns+` FROM workflows WHERE id = ?`, id)
	wf, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	return wf, nil
}

// Latest retrieves the most recently created workflow, or nil when the table
// is empty. Used by title sequencing.
func (r *WorkflowRepository) Latest(tx *sql.Tx) (*models.Workflow, error) {
	row := on(r.db, tx).QueryRow(`SELECT ` + workflowColumns + ` FROM workflows ORDER BY id DESC LIMIT 1`)
	wf, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest workflow: %w", err)
	}
	return wf, nil
}

// List retrieves workflows matching the filter, newest first, plus the total
// number of matching rows for pagination.
func (r *WorkflowRepository) List(filter ListFilter) ([]*models.Workflow, int, error) {
	where := ""
	var args []any
	if filter.Search != "" {
		where = `WHERE title LIKE ? OR biller_integration_name LIKE ? OR company_name LIKE ?`
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term)
	}

	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM workflows `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count workflows: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM workflows %s ORDER BY id DESC LIMIT ? OFFSET ?`, workflowColumns, where)
	rows, err := r.db.Query(query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		r.logger.Error("Failed to list workflows", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}
	return workflows, total, rows.Err()
}

// Update writes all mutable workflow fields back to the row.
func (r *WorkflowRepository) Update(tx *sql.Tx, wf *models.Workflow) error {
	query := `
		UPDATE workflows SET
			biller_integration_name = ?, category = ?, integration_type = ?,
			company_name = ?, phone_number = ?, email = ?, fees_type = ?,
			fees_style = ?, mdr_fee = ?, fee_waive = ?, fee_waive_end_date = ?,
			agent_toggle = ?, agent_fee = ?, system_fee = ?,
			transaction_agent_fee = ?, dtr_fee = ?, business_owner = ?,
			requested_go_live_date = ?, setup_fee = ?, setup_fee_waive = ?,
			setup_fee_waive_end_date = ?, maintenance_fee = ?,
			maintenance_fee_waive = ?, maintenance_fee_waive_end_date = ?,
			portal_fee = ?, portal_fee_waive = ?, portal_fee_waive_end_date = ?,
			requested_by = ?, remarks = ?, last_updated_by = ?, go_live_date = ?,
			last_updated_date = ?
		WHERE id = ?
	`
	_, err := on(r.db, tx).Exec(query,
		wf.BillerIntegrationName, wf.Category, wf.IntegrationType,
		wf.CompanyName, wf.PhoneNumber, wf.Email, wf.FeesType,
		wf.FeesStyle, wf.MDRFee, wf.FeeWaive, wf.FeeWaiveEndDate,
		wf.AgentToggle, wf.AgentFee, wf.SystemFee,
		wf.TransactionAgentFee, wf.DTRFee, wf.BusinessOwner,
		wf.RequestedGoLiveDate, wf.SetupFee, wf.SetupFeeWaive,
		wf.SetupFeeWaiveEndDate, wf.MaintenanceFee,
		wf.MaintenanceFeeWaive, wf.MaintenanceFeeWaiveEndDate,
		wf.PortalFee, wf.PortalFeeWaive, wf.PortalFeeWaiveEndDate,
		wf.RequestedBy, wf.Remarks, wf.LastUpdatedBy, wf.GoLiveDate,
		wf.LastUpdatedDate,
		wf.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update workflow", zap.Int64("id", wf.ID), zap.Error(err))
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	return nil
}

// SetCurrentStep updates the workflow's active step pointer.
func (r *WorkflowRepository) SetCurrentStep(tx *sql.Tx, id int64, step int) error {
	_, err := on(r.db, tx).Exec(`UPDATE workflows SET current_step = ?, last_updated_date = ? WHERE id = ?`,
		step, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to set current step", zap.Int64("id", id), zap.Int("step", step), zap.Error(err))
		return fmt.Errorf("failed to set current step: %w", err)
	}
	return nil
}

// SetStatus updates the workflow status.
func (r *WorkflowRepository) SetStatus(tx *sql.Tx, id int64, status string) error {
	_, err := on(r.db, tx).Exec(`UPDATE workflows SET status = ?, last_updated_date = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to set status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

// CountStalled counts in-progress workflows not touched since the cutoff.
func (r *WorkflowRepository) CountStalled(cutoff time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM workflows WHERE status = ? AND last_updated_date < ?`,
		models.StatusInProgress, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stalled workflows: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var wf models.Workflow
	var (
		category, integrationType, companyName, phoneNumber, email sql.NullString
		feesType, feesStyle, businessOwner, requestedBy            sql.NullString
		remarks, lastUpdatedBy                                     sql.NullString
		mdrFee, agentFee, systemFee, transactionAgentFee, dtrFee   sql.NullFloat64
		setupFee, maintenanceFee, portalFee                        sql.NullFloat64
		feeWaiveEnd, requestedGoLive, setupWaiveEnd                sql.NullTime
		maintenanceWaiveEnd, portalWaiveEnd, goLive                sql.NullTime
	)

	err := row.Scan(
		&wf.ID, &wf.Title, &wf.BillerIntegrationName, &category, &integrationType,
		&companyName, &phoneNumber, &email, &feesType, &feesStyle, &mdrFee,
		&wf.FeeWaive, &feeWaiveEnd, &wf.AgentToggle, &agentFee, &systemFee,
		&transactionAgentFee, &dtrFee, &businessOwner, &requestedGoLive,
		&setupFee, &wf.SetupFeeWaive, &setupWaiveEnd, &maintenanceFee,
		&wf.MaintenanceFeeWaive, &maintenanceWaiveEnd, &portalFee,
		&wf.PortalFeeWaive, &portalWaiveEnd, &requestedBy, &remarks,
		&lastUpdatedBy, &goLive, &wf.CurrentStep, &wf.Status, &wf.SubmitDate,
		&wf.LastUpdatedDate,
	)
	if err != nil {
		return nil, err
	}

	wf.Category = category.String
	wf.IntegrationType = integrationType.String
	wf.CompanyName = companyName.String
	wf.PhoneNumber = phoneNumber.String
	wf.Email = email.String
	wf.FeesType = feesType.String
	wf.FeesStyle = feesStyle.String
	wf.BusinessOwner = businessOwner.String
	wf.RequestedBy = requestedBy.String
	wf.Remarks = remarks.String
	wf.LastUpdatedBy = lastUpdatedBy.String

	wf.MDRFee = nullFloat(mdrFee)
	wf.AgentFee = nullFloat(agentFee)
	wf.SystemFee = nullFloat(systemFee)
	wf.TransactionAgentFee = nullFloat(transactionAgentFee)
	wf.DTRFee = nullFloat(dtrFee)
	wf.SetupFee = nullFloat(setupFee)
	wf.MaintenanceFee = nullFloat(maintenanceFee)
	wf.PortalFee = nullFloat(portalFee)

	wf.FeeWaiveEndDate = nullTime(feeWaiveEnd)
	wf.RequestedGoLiveDate = nullTime(requestedGoLive)
	wf.SetupFeeWaiveEndDate = nullTime(setupWaiveEnd)
	wf.MaintenanceFeeWaiveEndDate = nullTime(maintenanceWaiveEnd)
	wf.PortalFeeWaiveEndDate = nullTime(portalWaiveEnd)
	wf.GoLiveDate = nullTime(goLive)

	return &wf, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
