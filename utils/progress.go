package utils

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/meysamhadeli/assemble/feature_repository/models"
	"github.com/meysamhadeli/assemble/submission/contracts"
	"github.com/schollz/progressbar/v3"
)

// StageTrail renders submission states as a progress bar over the pipeline stages.
type StageTrail struct {
	out  io.Writer
	bar  *progressbar.ProgressBar
	done chan struct{}

	mutex    sync.Mutex
	last     models.SubmissionState
	rendered bool
}

func NewStageTrail(out io.Writer) *StageTrail {
	bar := progressbar.NewOptions(len(models.Stages),
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Feature submission in progress[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
	return &StageTrail{out: out, bar: bar, done: make(chan struct{})}
}

// Update moves the bar to the number of completed stages and names the latest one.
func (t *StageTrail) Update(state models.SubmissionState) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.last = state
	t.rendered = true
	if current, ok := LatestStage(state); ok {
		t.bar.Describe(fmt.Sprintf("[cyan]%s[reset]", current.Label()))
	}
	_ = t.bar.Set(state.Completed())
}

// Follow renders every state received on updates until the channel is closed, then finishes the bar.
func (t *StageTrail) Follow(updates <-chan models.SubmissionState) {
	defer close(t.done)

	for state := range updates {
		t.Update(state)
	}
	if t.Rendered() {
		_ = t.bar.Exit()
		fmt.Fprintln(t.out)
	}
}

// Rendered reports whether any state has been drawn.
func (t *StageTrail) Rendered() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.rendered
}

// Wait blocks until Follow has returned.
func (t *StageTrail) Wait() {
	<-t.done
}

// TrailPrompter holds back the final boxes of a confirmed submission until the trail is finished,
// so the bar never lands below or inside them. Boxes shown before the author confirms do not wait.
type TrailPrompter struct {
	*TerminalPrompter
	trail     *StageTrail
	confirmed bool
}

func NewTrailPrompter(prompter *TerminalPrompter, trail *StageTrail) *TrailPrompter {
	return &TrailPrompter{TerminalPrompter: prompter, trail: trail}
}

func (p *TrailPrompter) ConfirmSubmit(ctx context.Context, code string, previous *contracts.HistoryEntry) (bool, error) {
	confirmed, err := p.TerminalPrompter.ConfirmSubmit(ctx, code, previous)
	p.confirmed = confirmed && err == nil
	return confirmed, err
}

func (p *TrailPrompter) ShowSuccess(url string, state models.SubmissionState) {
	p.waitForTrail()
	p.TerminalPrompter.ShowSuccess(url, state)
}

func (p *TrailPrompter) ShowError(title, message string) {
	p.waitForTrail()
	p.TerminalPrompter.ShowError(title, message)
}

func (p *TrailPrompter) waitForTrail() {
	if p.confirmed {
		p.trail.Wait()
	}
}
