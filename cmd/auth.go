package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/meysamhadeli/assemble/feature_repository"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Connect your GitHub account to the feature repository service.",
	Long: `The 'auth' command prints the page to open in a browser to authorize the service with GitHub and waits
until the service reports the session as authenticated.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if !handleAuthCommand(rootDependencies) {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func handleAuthCommand(rootDependencies *RootDependencies) bool {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootDependencies.Client.BeginInteractiveAuth(ctx)
	switch {
	case err == nil:
		fmt.Println(lipgloss.Green.Render("✓ Authenticated with GitHub!"))
		return true
	case errors.Is(err, feature_repository.ErrAlreadyAuthenticated):
		fmt.Println(lipgloss.BlueSky.Render("Already authenticated"))
		return true
	case errors.Is(err, context.Canceled):
		fmt.Println(lipgloss.Yellow.Render("\n🔄 Authentication cancelled."))
		return false
	default:
		rootDependencies.Prompter.ShowError("Error authenticating", err.Error())
		return false
	}
}
