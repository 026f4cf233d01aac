package cmd

import (
	"fmt"

	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the features submitted from this machine.",
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		defer rootDependencies.Close()

		rootDependencies.openHistory()
		if rootDependencies.History == nil {
			fmt.Println(lipgloss.Yellow.Render("Submission history is not available."))
			return
		}

		entries, err := rootDependencies.History.List()
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading submission history: %v", err)))
			return
		}
		if len(entries) == 0 {
			fmt.Println(lipgloss.Yellow.Render("No submissions yet."))
			return
		}

		for _, entry := range entries {
			fmt.Printf("%s  %s  %s\n",
				lipgloss.Gray.Render(entry.SubmittedAt.Local().Format("2006-01-02 15:04")),
				entry.URL,
				lipgloss.Gray.Render(entry.RunID))
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
