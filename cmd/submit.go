package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/meysamhadeli/assemble/notebook"
	"github.com/meysamhadeli/assemble/submission"
	"github.com/meysamhadeli/assemble/submission/contracts"
	"github.com/meysamhadeli/assemble/utils"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <notebook>",
	Short: "Submit the active cell of a notebook as a new feature.",
	Long: `The 'submit' command takes one code cell of a notebook (.ipynb or a '# %%' script), checks whether the
features it defines already exist in the repository, and submits it as a pull request. When the cell cannot be
analyzed on its own you can retry with its dependency slice, the minimal code the cell needs from earlier cells.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cell, _ := cmd.Flags().GetInt("cell")

		rootDependencies := handleRootCommand(cmd)
		defer rootDependencies.Close()

		if !handleSubmitCommand(rootDependencies, args[0], cell) {
			rootDependencies.Close()
			os.Exit(1)
		}
	},
}

func init() {
	submitCmd.Flags().Int("cell", -1, "Index of the code cell to submit among code cells; negative values count from the end")

	rootCmd.AddCommand(submitCmd)
}

// handleSubmitCommand runs one submission and reports whether it ended without a failure.
func handleSubmitCommand(rootDependencies *RootDependencies, path string, cell int) bool {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	nb, err := notebook.Load(path)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error loading notebook: %v", err)))
		return false
	}

	activeUnit, err := nb.ActiveCell(cell)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error selecting cell: %v", err)))
		return false
	}

	rootDependencies.openHistory()

	var submissionHistory contracts.ISubmissionHistory
	if rootDependencies.History != nil {
		submissionHistory = rootDependencies.History
	}

	trail := utils.NewStageTrail(os.Stdout)

	submissionConfig := rootDependencies.Config.SubmissionConfig
	orchestrator := submission.NewOrchestrator(submission.OrchestratorConfig{
		Repository:      rootDependencies.Client,
		Authenticator:   rootDependencies.Client,
		Engine:          rootDependencies.Engine,
		Prompter:        utils.NewTrailPrompter(rootDependencies.Prompter, trail),
		History:         submissionHistory,
		Logger:          rootDependencies.Logger,
		PollInterval:    submissionConfig.PollInterval,
		MaxSliceRetries: submissionConfig.MaxSliceRetries,
	})

	updates := orchestrator.Subscribe(0)
	go trail.Follow(updates)

	outcome, err := orchestrator.Run(ctx, submission.Request{
		Document:   nb.Document(),
		ActiveUnit: activeUnit,
	})
	trail.Wait()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println(lipgloss.Yellow.Render("\n🔄 Submission cancelled."))
			return true
		}
		if !errors.Is(err, submission.ErrNotAuthenticated) {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
		return false
	}

	rootDependencies.Logger.Debug("submission finished", rootDependencies.Logger.Args(
		"run_id", outcome.RunID, "status", outcome.Status, "polls", outcome.Polls))

	switch outcome.Status {
	case submission.StatusCancelled:
		fmt.Println(lipgloss.Yellow.Render("Submission cancelled."))
		return true
	case submission.StatusFailed:
		return false
	default:
		return true
	}
}
