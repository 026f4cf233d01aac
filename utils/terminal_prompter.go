package utils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/meysamhadeli/assemble/feature_repository/models"
	"github.com/meysamhadeli/assemble/slicer"
	"github.com/meysamhadeli/assemble/submission/contracts"
	"github.com/pterm/pterm"
)

var sliceFallbackOptions = []string{
	"Ignore the failure and submit the active cell as is",
	"Check the dependency slice of the active cell instead",
	"Cancel the submission",
}

// TerminalPrompter talks to the author on a terminal. It is the production IPrompter.
type TerminalPrompter struct {
	reader  *bufio.Reader
	out     io.Writer
	theme   string
	spinner bool
}

func NewTerminalPrompter(in io.Reader, out io.Writer, theme string) *TerminalPrompter {
	return &TerminalPrompter{
		reader:  bufio.NewReader(in),
		out:     out,
		theme:   theme,
		spinner: true,
	}
}

// WithoutSpinner makes ShowProgress print its title once instead of animating.
func (p *TerminalPrompter) WithoutSpinner() *TerminalPrompter {
	p.spinner = false
	return p
}

func (p *TerminalPrompter) ShowProgress(title string) func() {
	if !p.spinner {
		fmt.Fprintln(p.out, lipgloss.Gray.Render(title))
		return func() {}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true).WithWriter(p.out)

	spinnerInstance, err := spinner.Start(title)
	if err != nil {
		return func() {}
	}
	return func() {
		_ = spinnerInstance.Stop()
		fmt.Fprint(p.out, "\r")
	}
}

func (p *TerminalPrompter) OfferSliceFallback(ctx context.Context, failure *slicer.AnalysisError, slicedCode string) (contracts.SliceFallbackChoice, error) {
	message := "The code could not be analyzed."
	if failure != nil && failure.Message != "" {
		message = fmt.Sprintf("The code could not be analyzed: %s", failure.Message)
	}
	fmt.Fprintln(p.out, lipgloss.ErrorBoxStyle.Render(message))
	if failure != nil && failure.Traceback != "" {
		fmt.Fprintln(p.out, lipgloss.Gray.Render(failure.Traceback))
	}

	options := sliceFallbackOptions
	if slicedCode == "" {
		options = []string{sliceFallbackOptions[0], sliceFallbackOptions[2]}
	} else {
		fmt.Fprintln(p.out, lipgloss.Info.Render("Dependency slice of the active cell:"))
		RenderCodeBlock(p.out, slicedCode, p.theme)
	}

	choice, err := ChoicePrompt(ctx, "How do you want to continue?", options, 0, p.reader, p.out)
	if err != nil {
		return contracts.CancelSubmission, err
	}

	switch options[choice] {
	case sliceFallbackOptions[1]:
		return contracts.SubmitSlicedCode, nil
	case sliceFallbackOptions[2]:
		return contracts.CancelSubmission, nil
	default:
		return contracts.IgnoreAnalysisFailure, nil
	}
}

func (p *TerminalPrompter) ReviewSimilar(ctx context.Context, candidate models.NewFeatureCandidate, similar []models.FeatureRecord) (bool, error) {
	header := fmt.Sprintf("Feature %q uses inputs [%s]; %d existing feature(s) use the same inputs:",
		candidate.Name, strings.Join(candidate.Inputs, ", "), len(similar))
	fmt.Fprintln(p.out, lipgloss.Yellow.Render(header))

	for _, feature := range similar {
		fmt.Fprintln(p.out, lipgloss.BoxStyle.Render(fmt.Sprintf("%s\nby %s · %s\ninputs: %s",
			feature.Name, feature.Author, feature.ID, strings.Join(feature.Inputs, ", "))))
		if feature.Code != "" {
			RenderCodeBlock(p.out, feature.Code, p.theme)
		}
	}

	return ConfirmPrompt(ctx, "Your feature may duplicate an existing one. Continue anyway?", p.reader, p.out)
}

func (p *TerminalPrompter) ConfirmSubmit(ctx context.Context, code string, previous *contracts.HistoryEntry) (bool, error) {
	fmt.Fprintln(p.out, lipgloss.Info.Render("Code to submit:"))
	RenderCodeBlock(p.out, code, p.theme)

	if previous != nil {
		warning := fmt.Sprintf("This code was already submitted on %s", previous.SubmittedAt.Format("2006-01-02 15:04"))
		if previous.URL != "" {
			warning += fmt.Sprintf(" (%s)", previous.URL)
		}
		fmt.Fprintln(p.out, lipgloss.Yellow.Render(warning+"."))
	}

	return ConfirmPrompt(ctx, "Submit this feature?", p.reader, p.out)
}

func (p *TerminalPrompter) ShowSuccess(url string, state models.SubmissionState) {
	body := fmt.Sprintf("Feature submitted! Your pull request is at\n%s\n\n%s\n\n%s",
		url,
		FormatStageTrail(state),
		"Please do not submit this same feature more than once.")
	fmt.Fprintln(p.out, lipgloss.BoxStyle.Render(lipgloss.Green.Render(body)))
}

func (p *TerminalPrompter) ShowError(title, message string) {
	fmt.Fprintln(p.out, lipgloss.ErrorBoxStyle.Render(lipgloss.Red.Render(title)+"\n"+message))
}
