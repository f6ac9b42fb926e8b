package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/config"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/database"
)

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all persisted crawl state",
		Long: `Reset clears the crawl database: crawled pages, the pending frontier,
policy verdicts, error logs, and domain health state. The next crawl
starts from scratch.

This is destructive and cannot be undone, so --force is required.`,
		Args: cobra.NoArgs,
		RunE: runResetCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the crawl database")
	cmd.Flags().BoolP("force", "f", false,
		"Actually delete the crawl state")

	return cmd
}

// runResetCmd executes the reset command.
func runResetCmd(cmd *cobra.Command, _ []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	if !force {
		return errors.New("refusing to delete crawl state without --force")
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	store, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close() //nolint:errcheck // close on exit

	if err := store.Reset(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "crawl state cleared")
	return nil
}
