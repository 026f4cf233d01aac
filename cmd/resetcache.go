package cmd

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/meysamhadeli/assemble/config"
	"github.com/meysamhadeli/assemble/constants/lipgloss"
	"github.com/meysamhadeli/assemble/slicer"
	"github.com/meysamhadeli/assemble/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the parse cache used when slicing code",
	Long: `The 'reset-cache' command removes the parsed programs cached under '.cache/assemble/slices' and the
in-memory configuration cache. Use --prune to only drop old entries instead of everything.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		prune, _ := cmd.Flags().GetDuration("prune")

		handleResetCacheCommand(force, stats, prune, cmd)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")
	resetCacheCmd.Flags().Duration("prune", 0, "Only remove entries older than this age (e.g. 72h)")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool, prune time.Duration, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	cache := rootDependencies.Cache

	if cache == nil {
		fmt.Println(lipgloss.Yellow.Render("Cache is disabled. No cache to reset."))
		return
	}

	if showStats {
		printCacheStats(cache)
		return
	}

	if prune > 0 {
		removed, err := cache.SmartCleanupCache(slicer.CacheCleanupOptions{MaxAge: prune})
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error pruning cache: %v", err)))
			return
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d cached program(s) older than %s", removed, prune)))
		return
	}

	if !force {
		confirmed, err := utils.ConfirmPrompt(cmd.Context(), "Are you sure you want to reset the entire parse cache?", bufio.NewReader(os.Stdin), os.Stdout)
		if err != nil || !confirmed {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting parse cache...")

	err := cache.ClearCache()
	config.ClearConfigCache()
	cache.ResetPerformanceStats()

	spinnerInstance.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}
	fmt.Println(lipgloss.Green.Render("✓ Parse cache has been successfully reset!"))
}

func printCacheStats(cache *slicer.CacheManager) {
	fmt.Println(lipgloss.Info.Render("Cache Statistics:"))

	cacheStats, err := cache.GetCacheStats()
	if err != nil {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: Could not show statistics: %v", err)))
		return
	}

	if dir, ok := cacheStats["cache_dir"].(string); ok {
		fmt.Printf("  Cache Directory: %s\n", dir)
	}
	if files, ok := cacheStats["cache_files"].(int); ok {
		fmt.Printf("  Cached Programs: %d\n", files)
	}
	if size, ok := cacheStats["total_size"].(int64); ok {
		fmt.Printf("  Total Size: %.2f KB\n", float64(size)/1024)
	}
	if entries, ok := config.GetConfigCacheStats()["cached_files"].(int); ok {
		fmt.Printf("  Cached Config Files: %d\n", entries)
	}
}
