package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/meysamhadeli/assemble/notebook"
	"github.com/meysamhadeli/assemble/slicer"
	"github.com/meysamhadeli/assemble/utils"
	"github.com/spf13/cobra"
)

var sliceCmd = &cobra.Command{
	Use:   "slice <notebook>",
	Short: "Print the dependency slice of a notebook cell.",
	Long: `The 'slice' command prints the minimal code from the notebook that the selected cell depends on,
the same code 'submit' offers when the cell cannot be analyzed on its own.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cell, _ := cmd.Flags().GetInt("cell")
		raw, _ := cmd.Flags().GetBool("raw")

		rootDependencies := handleRootCommand(cmd)
		if !handleSliceCommand(rootDependencies, args[0], cell, raw) {
			os.Exit(1)
		}
	},
}

func init() {
	sliceCmd.Flags().Int("cell", -1, "Index of the code cell to slice among code cells; negative values count from the end")
	sliceCmd.Flags().Bool("raw", false, "Print the slice without highlighting")

	rootCmd.AddCommand(sliceCmd)
}

func handleSliceCommand(rootDependencies *RootDependencies, path string, cell int, raw bool) bool {
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

	closeProgress := rootDependencies.Prompter.ShowProgress("Computing dependency slice...")
	sliced, err := slicer.SliceActiveUnit(ctx, rootDependencies.Engine, activeUnit, nb.Document())
	closeProgress()
	if err != nil {
		rootDependencies.Prompter.ShowError("Error slicing code", err.Error())
		return false
	}

	if raw {
		fmt.Println(sliced)
		return true
	}
	utils.RenderCodeBlock(os.Stdout, sliced, rootDependencies.Config.Theme)
	return true
}
