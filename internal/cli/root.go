// Package cli defines the Cobra command tree for the reflectbot binary.
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
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reflectbot",
	Short: "Telegram journaling assistant with AI-powered daily reflection",
	Long: `Reflectbot turns a Telegram chat into a daily journaling practice.

You tell it how your day went; it asks a language model to reflect on your
entry against a fixed rubric (gratitude, time use, memorable moments, habit
patterns, a day summary and a rating), stores a distilled diary entry on
disk, and can read each section back to you as audio.

Run 'reflectbot setup' once, then 'reflectbot serve' to start the bot.`,
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
	rootCmd.AddCommand(
		newServeCmd(),
		newSetupCmd(),
		newListCmd(),
		newReadCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("reflectbot %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
