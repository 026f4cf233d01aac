package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	repository_contracts "github.com/meysamhadeli/assemble/feature_repository/contracts"
	"github.com/meysamhadeli/assemble/feature_repository/models"
	"github.com/meysamhadeli/assemble/similarity"
	"github.com/meysamhadeli/assemble/slicer"
	slicer_contracts "github.com/meysamhadeli/assemble/slicer/contracts"
	slicer_models "github.com/meysamhadeli/assemble/slicer/models"
	"github.com/meysamhadeli/assemble/submission/contracts"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxSliceRetries bounds how many times the author may retry analysis with sliced code.
const DefaultMaxSliceRetries = 3

var (
	ErrNotAuthenticated = errors.New("not authenticated with GitHub, run `assemble auth` first")
	ErrAnalysisRetries  = errors.New("analysis kept failing")
)

// SubmissionFailure is the terminal status payload of a submission the server rejected. It is the Err of the
// failed Outcome.
type SubmissionFailure struct {
	Message   string
	Traceback string
}

func (e *SubmissionFailure) Error() string {
	return fmt.Sprintf("submission failed: %s", e.Message)
}

// Request is what the author asked to submit.
type Request struct {
	Document   slicer_models.SourceDocument
	ActiveUnit string
}

// Outcome is the terminal result of one run.
type Outcome struct {
	RunID     string
	Status    Status
	URL       string
	Message   string
	Traceback string
	State     models.SubmissionState
	Code      string
	Trace     []WorkflowState
	Polls     int
	// Err is the cause of a failed run: a *SubmissionFailure when the service rejected the submission.
	Err error
}

// OrchestratorConfig wires the collaborators of an Orchestrator. History and Engine may be nil.
type OrchestratorConfig struct {
	Repository      repository_contracts.IFeatureRepository
	Authenticator   repository_contracts.IAuthenticator
	Engine          slicer_contracts.IDependencySlicingEngine
	Prompter        contracts.IPrompter
	History         contracts.ISubmissionHistory
	Logger          *pterm.Logger
	PollInterval    time.Duration
	MaxSliceRetries int
}

// Orchestrator drives one submission from similarity checking to a terminal status.
type Orchestrator struct {
	repository      repository_contracts.IFeatureRepository
	authenticator   repository_contracts.IAuthenticator
	engine          slicer_contracts.IDependencySlicingEngine
	prompter        contracts.IPrompter
	history         contracts.ISubmissionHistory
	logger          *pterm.Logger
	pollInterval    time.Duration
	maxSliceRetries int

	mutex       sync.Mutex
	subscribers []chan models.SubmissionState
}

func NewOrchestrator(config OrchestratorConfig) *Orchestrator {
	logger := config.Logger
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	maxSliceRetries := config.MaxSliceRetries
	if maxSliceRetries <= 0 {
		maxSliceRetries = DefaultMaxSliceRetries
	}

	return &Orchestrator{
		repository:      config.Repository,
		authenticator:   config.Authenticator,
		engine:          config.Engine,
		prompter:        config.Prompter,
		history:         config.History,
		logger:          logger,
		pollInterval:    pollInterval,
		maxSliceRetries: maxSliceRetries,
	}
}

// Subscribe returns a channel receiving every accumulated submission state published while polling, in order.
// The channel is closed when the next run reaches a terminal state, before the outcome is shown to the author.
// The subscriber must keep receiving or the run stalls.
func (o *Orchestrator) Subscribe(buffer int) <-chan models.SubmissionState {
	ch := make(chan models.SubmissionState, buffer)
	o.mutex.Lock()
	o.subscribers = append(o.subscribers, ch)
	o.mutex.Unlock()
	return ch
}

func (o *Orchestrator) publish(ctx context.Context, state models.SubmissionState) error {
	o.mutex.Lock()
	subscribers := append([]chan models.SubmissionState(nil), o.subscribers...)
	o.mutex.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- state.Clone():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (o *Orchestrator) closeSubscribers() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	for _, ch := range o.subscribers {
		close(ch)
	}
	o.subscribers = nil
}

// run is the mutable state of one Run call.
type run struct {
	id      string
	outcome *Outcome
	logger  *pterm.Logger
}

func (r *run) transition(state WorkflowState) {
	r.outcome.Trace = append(r.outcome.Trace, state)
	r.logger.Debug("submission state changed", r.logger.Args("run_id", r.id, "state", state))
}

func (r *run) finish(status Status) *Outcome {
	r.outcome.Status = status
	r.transition(status.State())
	return r.outcome
}

// Run executes the workflow. Failures reported by the service end in a failed Outcome; the error return is
// reserved for a missing authentication, a cancelled context and prompter failures.
func (o *Orchestrator) Run(ctx context.Context, request Request) (*Outcome, error) {
	defer o.closeSubscribers()

	r := &run{
		id:      uuid.NewString(),
		outcome: &Outcome{Code: request.ActiveUnit, State: models.NewSubmissionState()},
		logger:  o.logger,
	}
	r.outcome.RunID = r.id
	r.transition(StateIdle)

	authenticated, err := o.authenticator.IsAuthenticated(ctx)
	if err != nil {
		return o.fail(r, "Error checking authentication", err), nil
	}
	if !authenticated {
		o.prompter.ShowError("Not authenticated", "You're not authenticated with GitHub - run `assemble auth` to connect!")
		r.outcome.Message = ErrNotAuthenticated.Error()
		r.outcome.Err = ErrNotAuthenticated
		return r.finish(StatusFailed), ErrNotAuthenticated
	}

	code := request.ActiveUnit
	skipSimilarity := false
	var existing []models.FeatureRecord
	var candidates []models.NewFeatureCandidate

	for retries := 0; ; retries++ {
		r.transition(StateAnalyzingInputs)

		var analysisErr *slicer.AnalysisError
		existing, candidates, analysisErr, err = o.analyze(ctx, code)
		if err != nil {
			if ctx.Err() != nil {
				return r.finish(StatusCancelled), ctx.Err()
			}
			return o.fail(r, "Error checking for similar features", err), nil
		}
		if analysisErr == nil {
			r.transition(StateInputsReady)
			break
		}

		r.transition(StateAnalysisFailed)
		r.logger.Debug("analysis failed", r.logger.Args("run_id", r.id, "message", analysisErr.Message, "retries", retries))
		if retries >= o.maxSliceRetries {
			r.outcome.Traceback = analysisErr.Traceback
			return o.fail(r, "Error analyzing code", fmt.Errorf("%w after %d retries: %s", ErrAnalysisRetries, retries, analysisErr.Message)), nil
		}

		sliced := o.sliceActiveUnit(ctx, request)

		r.transition(StateAwaitingUserOnSliceFallback)
		choice, err := o.prompter.OfferSliceFallback(ctx, analysisErr, sliced)
		if err != nil {
			return o.abort(ctx, r, fmt.Errorf("failed to read choice: %w", err))
		}

		if choice == contracts.CancelSubmission {
			return r.finish(StatusCancelled), nil
		}
		if choice == contracts.IgnoreAnalysisFailure || sliced == "" {
			skipSimilarity = true
			break
		}
		code = sliced
		r.outcome.Code = code
	}

	if !skipSimilarity {
		cancelled, err := o.compare(ctx, r, candidates, existing)
		if err != nil {
			return o.abort(ctx, r, err)
		}
		if cancelled {
			return r.finish(StatusCancelled), nil
		}
	}

	r.transition(StateConfirmingWithUser)
	confirmed, err := o.prompter.ConfirmSubmit(ctx, code, o.previousSubmission(r, code))
	if err != nil {
		return o.abort(ctx, r, fmt.Errorf("failed to read confirmation: %w", err))
	}
	if !confirmed {
		return r.finish(StatusCancelled), nil
	}

	return o.submit(ctx, r, code)
}

func (o *Orchestrator) analyze(ctx context.Context, code string) ([]models.FeatureRecord, []models.NewFeatureCandidate, *slicer.AnalysisError, error) {
	closeProgress := o.prompter.ShowProgress("Checking for similar features...")
	defer closeProgress()

	var existing []models.FeatureRecord
	var candidates []models.NewFeatureCandidate
	var analysisErr *slicer.AnalysisError

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		existing, err = o.repository.ListFeatures(gctx)
		if err != nil {
			return fmt.Errorf("failed to list existing features: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		candidates, analysisErr, err = o.repository.Inspect(gctx, code)
		if err != nil {
			return fmt.Errorf("failed to inspect code: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return existing, candidates, analysisErr, nil
}

// sliceActiveUnit returns the dependency slice of the active unit, or "" when it cannot be computed.
func (o *Orchestrator) sliceActiveUnit(ctx context.Context, request Request) string {
	if o.engine == nil {
		return ""
	}

	closeProgress := o.prompter.ShowProgress("Computing dependency slice...")
	sliced, err := slicer.SliceActiveUnit(ctx, o.engine, request.ActiveUnit, request.Document)
	closeProgress()

	if err != nil {
		o.logger.Warn("failed to slice active unit", o.logger.Args("error", err))
		o.prompter.ShowError("Error slicing code", err.Error())
		return ""
	}
	return sliced
}

// compare reports whether the author cancelled while reviewing similar features.
func (o *Orchestrator) compare(ctx context.Context, r *run, candidates []models.NewFeatureCandidate, existing []models.FeatureRecord) (bool, error) {
	r.transition(StateComparingSimilarity)

	found := false
	for _, match := range similarity.FindSimilar(candidates, existing) {
		if !match.HasMatches() {
			continue
		}
		found = true

		r.transition(StateSimilarFoundAwaitingUser)
		similar := o.withCode(ctx, match.Similar)

		proceed, err := o.prompter.ReviewSimilar(ctx, match.Candidate, similar)
		if err != nil {
			return false, fmt.Errorf("failed to read review answer: %w", err)
		}
		if !proceed {
			return true, nil
		}
		r.transition(StateComparingSimilarity)
	}

	if !found {
		r.transition(StateNoSimilarFound)
	}
	return false, nil
}

// withCode returns a copy of records with their code fetched. A failed fetch leaves Code empty.
func (o *Orchestrator) withCode(ctx context.Context, records []models.FeatureRecord) []models.FeatureRecord {
	closeProgress := o.prompter.ShowProgress("Fetching similar features...")
	defer closeProgress()

	out := make([]models.FeatureRecord, len(records))
	copy(out, records)

	var g errgroup.Group
	g.SetLimit(4)
	for i := range out {
		i := i
		g.Go(func() error {
			code, err := o.repository.FeatureCode(ctx, out[i].ID)
			if err != nil {
				o.logger.Warn("failed to fetch feature code", o.logger.Args("feature", out[i].ID, "error", err))
				return nil
			}
			out[i].Code = code
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (o *Orchestrator) previousSubmission(r *run, code string) *contracts.HistoryEntry {
	if o.history == nil {
		return nil
	}
	entry, found, err := o.history.Lookup(code)
	if err != nil {
		r.logger.Warn("failed to read submission history", r.logger.Args("error", err))
		return nil
	}
	if !found {
		return nil
	}
	return entry
}

func (o *Orchestrator) submit(ctx context.Context, r *run, code string) (*Outcome, error) {
	r.transition(StateSubmitting)

	// the status endpoint reports failures of the submission itself
	if _, err := o.repository.Submit(ctx, code); err != nil {
		r.logger.Warn("submit request failed, polling for status anyway", r.logger.Args("run_id", r.id, "error", err))
	}

	// subscribers render the progress of this stage
	r.transition(StatePolling)

	accumulated := models.NewSubmissionState()
	var final *models.SubmissionResponse

	poller := Poller{Interval: o.pollInterval}
	polls, err := poller.PollUntil(ctx, func(ctx context.Context) (bool, error) {
		response, err := o.repository.GetSubmission(ctx)
		if err != nil {
			return false, err
		}
		if response.State != nil {
			accumulated = accumulated.Merge(*response.State)
		}
		if response.URL != "" || response.Message != "" {
			final = response
			return true, nil
		}
		return false, o.publish(ctx, accumulated)
	})

	r.outcome.Polls = polls
	r.outcome.State = accumulated

	if err != nil {
		if ctx.Err() != nil {
			return r.finish(StatusCancelled), ctx.Err()
		}
		return o.fail(r, "Error submitting feature", fmt.Errorf("failed to poll submission status: %w", err)), nil
	}

	o.closeSubscribers()

	if final.URL == "" {
		failure := &SubmissionFailure{Message: final.Message, Traceback: final.Traceback}
		r.outcome.Message = failure.Message
		r.outcome.Traceback = failure.Traceback
		r.outcome.Err = failure
		o.prompter.ShowError("Error submitting feature", fmt.Sprintf("Oops - there was a problem submitting your feature: %s.", failure.Message))
		r.logger.Error("submission failed", r.logger.Args("run_id", r.id, "error", failure))
		return r.finish(StatusFailed), nil
	}

	r.outcome.URL = final.URL
	if o.history != nil {
		if err := o.history.Record(code, contracts.HistoryEntry{RunID: r.id, URL: final.URL, SubmittedAt: time.Now()}); err != nil {
			r.logger.Warn("failed to record submission", r.logger.Args("error", err))
		}
	}

	o.prompter.ShowSuccess(final.URL, accumulated)
	r.logger.Info("feature submitted", r.logger.Args("run_id", r.id, "url", final.URL, "polls", polls))
	return r.finish(StatusSucceeded), nil
}

func (o *Orchestrator) fail(r *run, title string, err error) *Outcome {
	o.closeSubscribers()
	r.outcome.Message = err.Error()
	r.outcome.Err = err
	o.prompter.ShowError(title, err.Error())
	r.logger.Error(title, r.logger.Args("run_id", r.id, "error", err))
	return r.finish(StatusFailed)
}

// abort ends the run after a prompt could not be answered. A prompt interrupted by ctx cancels the run.
func (o *Orchestrator) abort(ctx context.Context, r *run, err error) (*Outcome, error) {
	if ctx.Err() != nil {
		return r.finish(StatusCancelled), ctx.Err()
	}
	r.outcome.Err = err
	return r.finish(StatusFailed), err
}
