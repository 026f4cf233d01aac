package contracts

import (
	"context"
	"time"

	"github.com/meysamhadeli/assemble/feature_repository/models"
	"github.com/meysamhadeli/assemble/slicer"
)

// SliceFallbackChoice is the author's answer to an analysis failure.
type SliceFallbackChoice int

const (
	// IgnoreAnalysisFailure skips the similarity check and goes on to confirmation.
	IgnoreAnalysisFailure SliceFallbackChoice = iota
	// SubmitSlicedCode analyses the dependency slice of the active unit instead.
	SubmitSlicedCode
	// CancelSubmission aborts the run.
	CancelSubmission
)

// IPrompter is the only surface the orchestrator talks to the author through. Every question blocks until the
// author answers or ctx ends, and at most one of them is open at a time.
type IPrompter interface {
	// ShowProgress opens a non-interactive progress indicator and returns the function that closes it.
	ShowProgress(title string) func()
	OfferSliceFallback(ctx context.Context, failure *slicer.AnalysisError, slicedCode string) (SliceFallbackChoice, error)
	// ReviewSimilar returns true when the author wants to continue despite the matches.
	ReviewSimilar(ctx context.Context, candidate models.NewFeatureCandidate, similar []models.FeatureRecord) (bool, error)
	ConfirmSubmit(ctx context.Context, code string, previous *HistoryEntry) (bool, error)
	ShowSuccess(url string, state models.SubmissionState)
	ShowError(title, message string)
}

// HistoryEntry is one successful submission remembered locally.
type HistoryEntry struct {
	Key         string
	RunID       string
	URL         string
	SubmittedAt time.Time
}

// ISubmissionHistory remembers what was already submitted from this machine.
type ISubmissionHistory interface {
	Lookup(code string) (*HistoryEntry, bool, error)
	Record(code string, entry HistoryEntry) error
}
