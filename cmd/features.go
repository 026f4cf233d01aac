package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/meysamhadeli/assemble/feature_repository/models"
	"github.com/meysamhadeli/assemble/similarity"
	"github.com/meysamhadeli/assemble/utils"
	"github.com/spf13/cobra"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the features already in the repository.",
	Long: `The 'features' command lists the features of the repository. With --inputs only the features whose
inputs include all the given columns are shown, which is what 'submit' reports as similar.`,
	Run: func(cmd *cobra.Command, args []string) {
		inputs, _ := cmd.Flags().GetStringSlice("inputs")
		showCode, _ := cmd.Flags().GetBool("code")

		rootDependencies := handleRootCommand(cmd)
		if !handleFeaturesCommand(rootDependencies, inputs, showCode) {
			os.Exit(1)
		}
	},
}

func init() {
	featuresCmd.Flags().StringSlice("inputs", nil, "Only list features using all of these inputs (comma separated)")
	featuresCmd.Flags().Bool("code", false, "Print the code of every listed feature")

	rootCmd.AddCommand(featuresCmd)
}

func handleFeaturesCommand(rootDependencies *RootDependencies, inputs []string, showCode bool) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	closeProgress := rootDependencies.Prompter.ShowProgress("Loading features...")
	features, err := rootDependencies.Client.ListFeatures(ctx)
	closeProgress()
	if err != nil {
		rootDependencies.Prompter.ShowError("Error loading features", err.Error())
		return false
	}

	if len(inputs) > 0 {
		match := similarity.FindSimilar([]models.NewFeatureCandidate{{Name: "query", Inputs: inputs}}, features)
		features = match[0].Similar
	}

	if len(features) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No features found."))
		return true
	}

	for _, feature := range features {
		fmt.Printf("%s %s %s\n",
			lipgloss.Info.Render(feature.Name),
			lipgloss.Gray.Render(fmt.Sprintf("(%s by %s)", feature.ID, feature.Author)),
			strings.Join(feature.Inputs, ", "))

		if showCode {
			code, err := rootDependencies.Client.FeatureCode(ctx, feature.ID)
			if err != nil {
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error loading code of %s: %v", feature.ID, err)))
				continue
			}
			utils.RenderCodeBlock(os.Stdout, code, rootDependencies.Config.Theme)
		}
	}
	return true
}
