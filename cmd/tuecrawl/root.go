// Package main provides the entry point for the tuecrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for tuecrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tuecrawl",
		Short: "Polite topical web crawler",
		Long: `tuecrawl crawls the web from a set of seed URLs, scores pages for
topical relevance, and stores extracted text in a local SQLite database.

It is built to be a good citizen: robots.txt rules and crawl delays are
honored, each domain is fetched at most once per delay interval, and
domains that keep failing are backed off from and eventually banned.
A stopped crawl resumes exactly where it left off.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewResetCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getDebugFlag retrieves the debug flag from the command or its parent.
func getDebugFlag(cmd *cobra.Command) bool {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		debug, err = cmd.Root().PersistentFlags().GetBool("debug")
		if err != nil {
			return false
		}
	}
	return debug
}
