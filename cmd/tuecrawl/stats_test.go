package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/database"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/report"
)

// TestNewStatsCmd tests the stats command creation.
func TestNewStatsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewStatsCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "stats" {
			t.Errorf("expected use 'stats', got %q", cmd.Use)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has markdown flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown")
		if flag == nil {
			t.Fatal("expected markdown flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})
}

// seedStatsDB creates a crawl database with one crawled page and returns
// its directory.
func seedStatsDB(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	store, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer store.Close() //nolint:errcheck // test cleanup

	err = store.MarkCrawled(context.Background(), database.CrawledPage{
		URL:        "https://www.example.org/",
		Domain:     "www.example.org",
		Title:      "Example",
		Text:       "example text",
		Score:      0.5,
		StatusCode: 200,
	})
	if err != nil {
		t.Fatalf("failed to mark page crawled: %v", err)
	}
	return dir
}

// TestRunStatsCmd tests the stats command end to end.
func TestRunStatsCmd(t *testing.T) {
	t.Run("rejects json combined with markdown", func(t *testing.T) {
		cmd := NewStatsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--json", "--markdown"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for conflicting output formats")
		}
	})

	t.Run("fails on missing database", func(t *testing.T) {
		cmd := NewStatsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("prints text summary", func(t *testing.T) {
		dir := seedStatsDB(t)

		var buf bytes.Buffer
		cmd := NewStatsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CRAWL STATISTICS") {
			t.Errorf("expected statistics header, got %q", output)
		}
		if !strings.Contains(output, "www.example.org") {
			t.Errorf("expected top domain in output, got %q", output)
		}
	})

	t.Run("prints json snapshot", func(t *testing.T) {
		dir := seedStatsDB(t)

		var buf bytes.Buffer
		cmd := NewStatsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir, "--json"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var snapshot report.Snapshot
		if err := json.Unmarshal(buf.Bytes(), &snapshot); err != nil {
			t.Fatalf("failed to parse JSON output: %v", err)
		}
		if snapshot.Stats == nil || snapshot.Stats.Crawled != 1 {
			t.Errorf("expected 1 crawled page in snapshot, got %+v", snapshot.Stats)
		}
		if snapshot.Version == "" {
			t.Error("expected version in snapshot")
		}
	})

	t.Run("writes report file alongside terminal output", func(t *testing.T) {
		dir := seedStatsDB(t)
		outPath := filepath.Join(t.TempDir(), "reports", "crawl.md")

		var buf bytes.Buffer
		cmd := NewStatsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir, "--markdown", "--output", outPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(outPath) //nolint:gosec // path built from t.TempDir
		if err != nil {
			t.Fatalf("failed to read report file: %v", err)
		}
		if !strings.Contains(string(data), "Crawl Statistics") {
			t.Errorf("expected markdown report in file, got %q", string(data))
		}
		if buf.Len() == 0 {
			t.Error("expected terminal output alongside the file")
		}
	})
}
