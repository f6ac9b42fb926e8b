package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/config"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl" {
			t.Errorf("expected use 'crawl', got %q", cmd.Use)
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has seeds flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("seeds")
		if flag == nil {
			t.Fatal("expected seeds flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
	})

	t.Run("has max-workers flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-workers")
		if flag == nil {
			t.Fatal("expected max-workers flag")
		}
		if flag.Shorthand != "w" {
			t.Errorf("expected shorthand 'w', got %q", flag.Shorthand)
		}
	})

	t.Run("has batch-size flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("batch-size")
		if flag == nil {
			t.Fatal("expected batch-size flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
	})

	t.Run("has max-pages flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("max-pages")
		if flag == nil {
			t.Fatal("expected max-pages flag")
		}
		if flag.Shorthand != "p" {
			t.Errorf("expected shorthand 'p', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("multiprocessing defaults to true", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("multiprocessing")
		if flag == nil {
			t.Fatal("expected multiprocessing flag")
		}
		if flag.DefValue != "true" {
			t.Errorf("expected default 'true', got %q", flag.DefValue)
		}
	})
}

// TestBuildCrawlConfig tests configuration building from flags.
func TestBuildCrawlConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxWorkers != config.DefaultMaxWorkers {
			t.Errorf("expected MaxWorkers %d, got %d", config.DefaultMaxWorkers, cfg.MaxWorkers)
		}
		if cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("expected BatchSize %d, got %d", config.DefaultBatchSize, cfg.BatchSize)
		}
		if cfg.DomainDelay != config.DefaultDomainDelay {
			t.Errorf("expected DomainDelay %v, got %v", config.DefaultDomainDelay, cfg.DomainDelay)
		}
	})

	t.Run("converts fractional domain-delay seconds", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("domain-delay", "2.5")
		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.DomainDelay != 2500*time.Millisecond {
			t.Errorf("expected DomainDelay 2.5s, got %v", cfg.DomainDelay)
		}
	})

	t.Run("disabling multiprocessing forces one worker", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("multiprocessing", "false")
		_ = cmd.Flags().Set("max-workers", "16")
		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxWorkers != 1 {
			t.Errorf("expected MaxWorkers 1, got %d", cfg.MaxWorkers)
		}
	})

	t.Run("reads domain health flags", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("utema-tau", "30s")
		_ = cmd.Flags().Set("utema-threshold", "0.8")
		_ = cmd.Flags().Set("utema-min-samples", "7")
		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.UTEMATau != 30*time.Second {
			t.Errorf("expected UTEMATau 30s, got %v", cfg.UTEMATau)
		}
		if cfg.UTEMAThreshold != 0.8 {
			t.Errorf("expected UTEMAThreshold 0.8, got %v", cfg.UTEMAThreshold)
		}
		if cfg.UTEMAMinSamples != 7 {
			t.Errorf("expected UTEMAMinSamples 7, got %d", cfg.UTEMAMinSamples)
		}
	})

	t.Run("reads seeds from seed file", func(t *testing.T) {
		seedFile := filepath.Join(t.TempDir(), "seeds.txt")
		content := "# comment line\nhttps://www.example.org\n\nhttps://blog.example.org\n"
		if err := os.WriteFile(seedFile, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write seed file: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("seeds", "https://first.example.org")
		_ = cmd.Flags().Set("seed-file", seedFile)
		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			"https://first.example.org",
			"https://www.example.org",
			"https://blog.example.org",
		}
		if len(cfg.Seeds) != len(want) {
			t.Fatalf("expected %d seeds, got %d: %v", len(want), len(cfg.Seeds), cfg.Seeds)
		}
		for i, seed := range want {
			if cfg.Seeds[i] != seed {
				t.Errorf("seed %d: expected %q, got %q", i, seed, cfg.Seeds[i])
			}
		}
	})

	t.Run("loads explicit config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), ".tuecrawl")
		content := `seeds:
  - https://www.example.org
topicTerms:
  - food
  - recipes
domains:
  slow.example.org:
    delay: 20s
  broken.example.org:
    skip: true
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://www.example.org" {
			t.Errorf("expected file seeds, got %v", cfg.Seeds)
		}
		if len(cfg.TopicTerms) != 2 {
			t.Errorf("expected 2 topic terms, got %v", cfg.TopicTerms)
		}
		slow := cfg.DomainOverrides.DomainConfigFor("slow.example.org")
		if slow.Delay != 20*time.Second {
			t.Errorf("expected 20s delay override, got %+v", slow)
		}
		broken := cfg.DomainOverrides.DomainConfigFor("broken.example.org")
		if !broken.Skip {
			t.Errorf("expected skip override, got %+v", broken)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yml"))
		_, err := buildCrawlConfig(cmd)
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
		if !strings.Contains(err.Error(), "configuration file not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestReadSeedFile tests seed file parsing.
func TestReadSeedFile(t *testing.T) {
	t.Parallel()

	t.Run("skips blanks and comments", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "seeds.txt")
		content := "\n# header\nhttps://a.example.org\n   \nhttps://b.example.org   \n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write seed file: %v", err)
		}

		seeds, err := readSeedFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seeds) != 2 {
			t.Fatalf("expected 2 seeds, got %v", seeds)
		}
		if seeds[0] != "https://a.example.org" || seeds[1] != "https://b.example.org" {
			t.Errorf("unexpected seeds: %v", seeds)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()
		if _, err := readSeedFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// TestRunCrawlCmdNoSeeds tests that a fresh crawl without seeds fails fast.
func TestRunCrawlCmdNoSeeds(t *testing.T) {
	var buf bytes.Buffer
	cmd := NewCrawlCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		"--db-dir", t.TempDir(),
		"--fresh-start",
	})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for fresh crawl without seeds")
	}
	if !errors.Is(err, config.ErrNoSeeds) {
		t.Errorf("expected ErrNoSeeds, got %v", err)
	}
}
