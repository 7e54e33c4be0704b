package workflow

// The onboarding process is a fixed eight-step pipeline. The step count, the
// attachment-gated steps and the rejection restart rules are domain knowledge,
// not configuration; they are declared here as a single reviewable table.

// StepCount is the number of signoff steps in every workflow.
const StepCount = 8

// FirstStep is where every new workflow starts.
const FirstStep = 1

var stepNames = map[int]string{
	1: "UAT Integration Setup",
	2: "UAT Testing and Demo",
	3: "Contract Negotiation",
	4: "Pre-Production Integration Setup",
	5: "Pre-Production QA Testing",
	6: "Pre-Production Finance Verification",
	7: "Production Deployment",
	8: "Go-Live Announcement",
}

// restartRules maps a rejected step to the step the workflow restarts from.
// Steps absent from the map have no restart rule; rejecting them leaves the
// workflow in the Rejected status.
var restartRules = map[int]int{
	2: 1,
	5: 4,
	6: 4,
}

// approvalAttachmentGates lists steps that cannot be approved until the
// workflow carries at least one attachment (the GL Detail upload).
var approvalAttachmentGates = map[int]bool{
	4: true,
}

// rejectionAttachmentGates lists steps that cannot be rejected until the
// workflow carries at least one attachment.
var rejectionAttachmentGates = map[int]bool{
	6: true,
}

// StepName returns the display name of a step number, or an empty string for
// an unknown step.
func StepName(step int) string {
	return stepNames[step]
}

// ValidStep reports whether step is within the fixed 1..8 topology.
func ValidStep(step int) bool {
	return step >= FirstStep && step <= StepCount
}

// RestartStep returns the restart target for a rejection at the given step
// and whether a restart rule exists for it.
func RestartStep(rejectedStep int) (int, bool) {
	target, ok := restartRules[rejectedStep]
	return target, ok
}
