package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the feature repository service and your authentication.",
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if !handleStatusCommand(rootDependencies) {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func handleStatusCommand(rootDependencies *RootDependencies) bool {
	ctx, cancel := context.WithTimeout(context.Background(), rootDependencies.Config.ServerConfig.Timeout())
	defer cancel()

	client := rootDependencies.Client
	fmt.Printf("  Server: %s\n", client.EndpointURL(""))

	if err := client.Status(ctx); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("  Status: unreachable (%v)", err)))
		return false
	}
	fmt.Println(lipgloss.Green.Render("  Status: ok"))

	if version, err := client.Version(ctx); err == nil {
		fmt.Printf("  Versions: assemble %s, ballet %s, project %s\n", version.Assemble, version.Ballet, version.Project)
	} else {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  Versions: unavailable (%v)", err)))
	}

	authenticated, err := client.IsAuthenticated(ctx)
	switch {
	case err != nil:
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  GitHub: unknown (%v)", err)))
	case authenticated:
		fmt.Println(lipgloss.Green.Render("  GitHub: authenticated"))
	default:
		fmt.Println(lipgloss.Yellow.Render("  GitHub: not authenticated, run `assemble auth`"))
	}
	return true
}
