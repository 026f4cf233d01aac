package submission

// WorkflowState is a state of the submission workflow.
type WorkflowState string

const (
	StateIdle                        WorkflowState = "Idle"
	StateAnalyzingInputs             WorkflowState = "AnalyzingInputs"
	StateAnalysisFailed              WorkflowState = "AnalysisFailed"
	StateAwaitingUserOnSliceFallback WorkflowState = "AwaitingUserOnSliceFallback"
	StateInputsReady                 WorkflowState = "InputsReady"
	StateComparingSimilarity         WorkflowState = "ComparingSimilarity"
	StateSimilarFoundAwaitingUser    WorkflowState = "SimilarFoundAwaitingUser"
	StateNoSimilarFound              WorkflowState = "NoSimilarFound"
	StateConfirmingWithUser          WorkflowState = "ConfirmingWithUser"
	StateSubmitting                  WorkflowState = "Submitting"
	StatePolling                     WorkflowState = "Polling"
	StateSucceeded                   WorkflowState = "Succeeded"
	StateFailed                      WorkflowState = "Failed"
	StateCancelled                   WorkflowState = "Cancelled"
)

// Terminal reports whether no transition leaves the state.
func (s WorkflowState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Status is the terminal status of an Outcome.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// State maps the status to its terminal workflow state.
func (s Status) State() WorkflowState {
	switch s {
	case StatusSucceeded:
		return StateSucceeded
	case StatusCancelled:
		return StateCancelled
	default:
		return StateFailed
	}
}
