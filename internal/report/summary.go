// Package report renders a workflow's onboarding state as an Excel summary
// sheet for circulation outside the tool.
package report

import (
	"bytes"
	"fmt"

	"github.com/billerops/onboarding-workflow/internal/models"
	"github.com/billerops/onboarding-workflow/internal/workflow"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Onboarding Summary"

// SummaryWriter builds Excel summaries of workflows.
type SummaryWriter struct {
	logger *zap.Logger
}

// NewSummaryWriter creates a summary writer.
func NewSummaryWriter(logger *zap.Logger) *SummaryWriter {
	return &SummaryWriter{logger: logger}
}

// Write renders the workflow, its steps and its rejection history into a
// workbook and returns the serialized xlsx bytes.
func (w *SummaryWriter) Write(wf *models.Workflow, steps []*models.WorkflowStep, rejections []*models.WorkflowRejectionHistory) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	w.setCell(f, "A1", "Workflow")
	w.setCell(f, "B1", wf.Title)
	w.setCell(f, "A2", "Biller Integration")
	w.setCell(f, "B2", wf.BillerIntegrationName)
	w.setCell(f, "A3", "Company")
	w.setCell(f, "B3", wf.CompanyName)
	w.setCell(f, "A4", "Status")
	w.setCell(f, "B4", wf.Status)
	w.setCell(f, "A5", "Current Step")
	w.setCell(f, "B5", fmt.Sprintf("%d - %s", wf.CurrentStep, workflow.StepName(wf.CurrentStep)))
	w.setCell(f, "A6", "Submitted")
	w.setCell(f, "B6", wf.SubmitDate.Format("2006-01-02"))
	w.setCell(f, "A7", "Business Owner")
	w.setCell(f, "B7", wf.BusinessOwner)
	w.setCell(f, "A8", "Requested By")
	w.setCell(f, "B8", wf.RequestedBy)

	// Step table
	headerRow := 10
	w.setCell(f, fmt.Sprintf("A%d", headerRow), "Step")
	w.setCell(f, fmt.Sprintf("B%d", headerRow), "Name")
	w.setCell(f, fmt.Sprintf("C%d", headerRow), "Status")
	w.setCell(f, fmt.Sprintf("D%d", headerRow), "Signed Off By")
	w.setCell(f, fmt.Sprintf("E%d", headerRow), "Date")
	w.setCell(f, fmt.Sprintf("F%d", headerRow), "Remarks")

	row := headerRow + 1
	for _, step := range steps {
		w.setCell(f, fmt.Sprintf("A%d", row), fmt.Sprintf("%d", step.StepNumber))
		w.setCell(f, fmt.Sprintf("B%d", row), workflow.StepName(step.StepNumber))
		w.setCell(f, fmt.Sprintf("C%d", row), step.SignoffStatus)
		w.setCell(f, fmt.Sprintf("D%d", row), step.SignoffPerson)
		if step.SignoffDate != nil {
			w.setCell(f, fmt.Sprintf("E%d", row), step.SignoffDate.Format("2006-01-02"))
		}
		w.setCell(f, fmt.Sprintf("F%d", row), step.Remarks)
		row++
	}

	if len(rejections) > 0 {
		row++
		w.setCell(f, fmt.Sprintf("A%d", row), "Rejections")
		row++
		w.setCell(f, fmt.Sprintf("A%d", row), "Step")
		w.setCell(f, fmt.Sprintf("B%d", row), "Rejected By")
		w.setCell(f, fmt.Sprintf("C%d", row), "Date")
		w.setCell(f, fmt.Sprintf("D%d", row), "Restart From")
		w.setCell(f, fmt.Sprintf("E%d", row), "Remarks")
		row++
		for _, rec := range rejections {
			w.setCell(f, fmt.Sprintf("A%d", row), fmt.Sprintf("%d", rec.StepNumber))
			w.setCell(f, fmt.Sprintf("B%d", row), rec.RejectedBy)
			w.setCell(f, fmt.Sprintf("C%d", row), rec.RejectDate.Format("2006-01-02"))
			if rec.RestartStep != nil {
				w.setCell(f, fmt.Sprintf("D%d", row), fmt.Sprintf("%d", *rec.RestartStep))
			} else {
				w.setCell(f, fmt.Sprintf("D%d", row), "none")
			}
			w.setCell(f, fmt.Sprintf("E%d", row), rec.Remarks)
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	w.logger.Debug("Summary sheet generated",
		zap.Int64("workflow_id", wf.ID),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func (w *SummaryWriter) setCell(f *excelize.File, cell, value string) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
