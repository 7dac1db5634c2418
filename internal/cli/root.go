// Package cli defines the Cobra command tree for the fewshot CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fewshot",
	Short: "Build label hierarchies and few-shot labelling prompts from email dumps",
	Long: `fewshot turns a directory of labelled email dumps into a label hierarchy,
selects a balanced, token-budgeted set of examples per label, and renders
them into a few-shot prompt for labelling new emails with an LLM.

Run 'fewshot init' in a directory holding your email_dumps/ to get started.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug detail to stderr")

	rootCmd.AddCommand(
		newInitCmd(),
		newSetupCmd(),
		newHierarchyCmd(),
		newPathCmd(),
		newExamplesCmd(),
		newPromptCmd(),
		newLabelCmd(),
		newWatchCmd(),
		newServeCmd(),
		newStatusCmd(),
		newExportCmd(),
		newPruneCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fewshot %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
