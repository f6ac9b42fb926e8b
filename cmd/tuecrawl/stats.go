package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/config"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/database"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/report"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for the crawl database",
		Long: `Stats summarizes the crawl database: pages crawled, URLs pending,
policy blocks, errors, banned domains, and the most crawled domains.

Examples:
  # Terminal summary
  tuecrawl stats

  # Markdown report written to a file
  tuecrawl stats --markdown --output report.md`,
		Args: cobra.NoArgs,
		RunE: runStatsCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the crawl database")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Also write the report to the specified file path")
	cmd.Flags().Int("top", 10,
		"Number of top domains to list")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	topN, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	store, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close() //nolint:errcheck // read-only close on exit

	stats, err := store.CollectStats(cmd.Context(), topN)
	if err != nil {
		return err
	}

	writers := []report.Writer{newStatsWriter(cmd.OutOrStdout(), jsonOut, markdownOut)}
	if outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		f, err := os.Create(outputPath) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // best effort on a report file
		writers = append(writers, newStatsWriter(f, jsonOut, markdownOut))
	}

	_, err = report.NewMultiWriter(writers...).Write(stats)
	return err
}

// newStatsWriter picks the report format for one destination.
func newStatsWriter(w io.Writer, jsonOut, markdownOut bool) report.Writer {
	switch {
	case jsonOut:
		return report.NewJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case markdownOut:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w)
	}
}
