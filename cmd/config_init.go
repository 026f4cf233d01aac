package cmd

import (
	"fmt"

	"github.com/meysamhadeli/assemble/config"
	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the assemble configuration file.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to assemble-config.yml in the current directory.",
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		rootDependencies := handleRootCommand(cmd)
		path, err := config.WriteDefaultConfig(rootDependencies.Cwd, force)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			return
		}
		config.ClearConfigCache()
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Configuration written to %s", path)))
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
