package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// configWarn surfaces non-fatal config diagnostics on stderr.
func configWarn(format string, args ...any) {
	fmt.Fprintln(os.Stderr, color.YellowString("warning: "+fmt.Sprintf(format, args...)))
}

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Task orchestration across capability pools",
	Long: `Forge routes development tasks to specialized capability pools,
executes them under a bounded-concurrency policy with dependency
ordering, and lets pools exchange handoff and query messages mid-flight.

The CLI is a thin surface over the orchestration core: it routes
descriptions, lists the configured pools, and reports dispatch
statistics.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(statsCmd)
}
