package workflow

import "github.com/billerops/onboarding-workflow/internal/models"

// Step gate evaluator: pure predicates deciding whether a signoff may act on
// a step right now. Attachment counting is done by the caller; these checks
// never touch storage.

// RequiresAttachmentBeforeApproval reports whether the step may only be
// approved once the workflow has at least one attachment.
func RequiresAttachmentBeforeApproval(step int) bool {
	return approvalAttachmentGates[step]
}

// RequiresAttachmentBeforeRejection reports whether the step may only be
// rejected once the workflow has at least one attachment.
func RequiresAttachmentBeforeRejection(step int) bool {
	return rejectionAttachmentGates[step]
}

// CanActOnStep reports whether stepNumber is the workflow's single active
// step. Signoffs against any other step are treated as stale no-ops, not
// errors; callers detect them by the returned step being unchanged.
func CanActOnStep(wf *models.Workflow, stepNumber int) bool {
	return wf.CurrentStep == stepNumber
}
