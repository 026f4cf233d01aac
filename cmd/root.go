package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/assemble/config"
	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/meysamhadeli/assemble/feature_repository"
	"github.com/meysamhadeli/assemble/history"
	"github.com/meysamhadeli/assemble/slicer"
	slicer_contracts "github.com/meysamhadeli/assemble/slicer/contracts"
	"github.com/meysamhadeli/assemble/slicer/treesitter"
	"github.com/meysamhadeli/assemble/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// RootDependencies holds everything the subcommands share.
type RootDependencies struct {
	Cwd      string
	Config   *config.Config
	Logger   *pterm.Logger
	Client   *feature_repository.Client
	Engine   slicer_contracts.IDependencySlicingEngine
	Cache    *slicer.CacheManager
	History  *history.BoltStore
	Prompter *utils.TerminalPrompter
}

var rootCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Submit features from your notebook to a collaborative feature repository.",
	Long: `assemble takes a feature written in a notebook cell, checks it against the features already in the
repository, slices away unrelated code when the analysis fails, and turns it into a pull request.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			rootDependencies := handleRootCommand(cmd)
			defer rootDependencies.Close()
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("assemble version: %s", rootDependencies.Config.Version)))
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}

func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	rootDependencies := &RootDependencies{}

	var err error
	rootDependencies.Cwd, err = os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		os.Exit(1)
	}

	rootDependencies.Config = config.LoadConfigWithCache(cmd, rootDependencies.Cwd)
	rootDependencies.Logger = utils.NewLogger(rootDependencies.Config.LogLevel, os.Stderr)

	if rootDependencies.Config.EnableCache {
		rootDependencies.Cache, err = slicer.NewCacheManager(filepath.Join(rootDependencies.Cwd, ".cache", "assemble", "slices"))
		if err != nil {
			rootDependencies.Logger.Warn("parse cache disabled", rootDependencies.Logger.Args("error", err))
		}
	}
	rootDependencies.Engine = treesitter.NewEngine(rootDependencies.Cache, rootDependencies.Logger)

	if rootDependencies.Config.ServerConfig == nil {
		rootDependencies.Config.ServerConfig = config.DefaultConfig.ServerConfig
	}
	if rootDependencies.Config.SubmissionConfig == nil {
		rootDependencies.Config.SubmissionConfig = config.DefaultConfig.SubmissionConfig
	}
	serverConfig := rootDependencies.Config.ServerConfig
	submissionConfig := rootDependencies.Config.SubmissionConfig

	rootDependencies.Client, err = feature_repository.NewClient(feature_repository.ClientConfig{
		BaseURL:          serverConfig.BaseURL,
		Token:            serverConfig.Token,
		RequestTimeout:   serverConfig.RequestTimeout,
		AuthPollInterval: submissionConfig.AuthPollInterval,
		AuthTimeout:      submissionConfig.AuthTimeout,
		OnAuthorize: func(authorizeURL string) {
			fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("Open this page to connect your GitHub account:\n%s", authorizeURL)))
		},
		Logger: rootDependencies.Logger,
	})
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	rootDependencies.Prompter = utils.NewTerminalPrompter(os.Stdin, os.Stdout, rootDependencies.Config.Theme)

	return rootDependencies
}

// openHistory opens the submission history. A history that cannot be opened only costs the duplicate warning.
func (d *RootDependencies) openHistory() {
	if d.Config.HistoryPath == "" {
		return
	}
	store, err := history.NewBoltStore(d.Config.HistoryPath)
	if err != nil {
		d.Logger.Warn("submission history unavailable", d.Logger.Args("path", d.Config.HistoryPath, "error", err))
		return
	}
	d.History = store
}

// Close releases the resources opened by handleRootCommand.
func (d *RootDependencies) Close() {
	if d.History != nil {
		if err := d.History.Close(); err != nil {
			d.Logger.Warn("error closing submission history", d.Logger.Args("error", err))
		}
		d.History = nil
	}
}
