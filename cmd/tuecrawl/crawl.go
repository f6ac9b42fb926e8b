package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/config"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/database"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/engine"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/log"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the web starting from seed URLs",
		Long: `Crawl fetches pages starting from the seed URLs, extracts their text
and outbound links, and stores everything in the crawl database.

The crawler honors robots.txt, keeps a per-domain crawl delay, retries
transient failures with exponential backoff, and bans domains whose
time-decayed failure average stays high. Interrupting the crawl with
Ctrl-C is safe: in-flight fetches finish, their results are persisted,
and the next run resumes from the stored frontier.

Examples:
  # Crawl from two seeds
  tuecrawl crawl --seeds https://www.example.org,https://blog.example.org

  # Resume a previous crawl (no new seeds needed)
  tuecrawl crawl

  # Crawl through a SOCKS5 proxy, politely
  tuecrawl crawl --seeds https://www.example.org \
    --proxy socks5://127.0.0.1:9050 --simulate-human-behavior

Configuration file (.tuecrawl) example:
  seeds:
    - https://www.example.org
  topicTerms:
    - food
    - recipes
  domains:
    slow.example.org:
      delay: 20s
    broken.example.org:
      skip: true`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Seed selection
	cmd.Flags().StringSliceP("seeds", "s", nil,
		"Seed URLs (comma separated, may be repeated)")
	cmd.Flags().String("seed-file", "",
		"File with one seed URL per line ('#' starts a comment)")

	// Crawl behavior
	cmd.Flags().Bool("multiprocessing", true,
		"Fetch concurrently through a worker pool; disable to fetch one page at a time")
	cmd.Flags().IntP("max-workers", "w", config.DefaultMaxWorkers,
		"Number of concurrent fetch workers")
	cmd.Flags().IntP("batch-size", "b", config.DefaultBatchSize,
		"Number of URLs drawn from the frontier per round")
	cmd.Flags().Float64("domain-delay", config.DefaultDomainDelay.Seconds(),
		"Minimum delay between fetches to one domain, in seconds")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request fetch timeout")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Stop after this many crawled pages (0 = unlimited)")
	cmd.Flags().Bool("simulate-human-behavior", false,
		"Pause a random interval before each fetch")

	// Proxy
	cmd.Flags().String("proxy", "",
		"Route fetches through a proxy URL (socks5://, http://, or https://)")
	cmd.Flags().Duration("proxy-timeout", config.DefaultProxyTimeout,
		"Per-request timeout when a proxy is configured")

	// Domain health
	cmd.Flags().Duration("utema-tau", config.DefaultUTEMATau,
		"Decay time constant of the per-domain failure average")
	cmd.Flags().Float64("utema-threshold", config.DefaultUTEMAThreshold,
		"Failure average above which a domain is banned")
	cmd.Flags().Int("utema-min-samples", config.DefaultUTEMAMinSamples,
		"Fetches observed from a domain before a ban may fire")

	// Storage
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the crawl database")
	cmd.Flags().Bool("fresh-start", false,
		"Drop all persisted crawl state before starting")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .tuecrawl in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, draining in-flight fetches...")
		cancel()
	}()

	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close() //nolint:errcheck // read-mostly close on exit

	if len(cfg.Seeds) == 0 {
		if cfg.FreshStart {
			return config.ErrNoSeeds
		}
		pending, err := store.LoadFrontier(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return config.ErrNoSeeds
		}
	}

	eng, err := engine.New(cfg, store, logger)
	if err != nil {
		return err
	}
	if err := eng.Run(ctx); err != nil {
		return err
	}

	stats, err := store.CollectStats(context.Background(), 10)
	if err != nil {
		return err
	}
	_, err = report.NewSimpleWriter(cmd.OutOrStdout()).Write(stats)
	return err
}

// buildCrawlConfig creates a Config from cobra command flags and the
// optional configuration file. Flag values win over file values.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Debug = getDebugFlag(cmd)

	var err error

	cfg.Seeds, err = cmd.Flags().GetStringSlice("seeds")
	if err != nil {
		return nil, err
	}
	seedFile, err := cmd.Flags().GetString("seed-file")
	if err != nil {
		return nil, err
	}
	if seedFile != "" {
		seeds, err := readSeedFile(seedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		cfg.Seeds = append(cfg.Seeds, seeds...)
	}

	multiprocessing, err := cmd.Flags().GetBool("multiprocessing")
	if err != nil {
		return nil, err
	}
	cfg.MaxWorkers, err = cmd.Flags().GetInt("max-workers")
	if err != nil {
		return nil, err
	}
	if !multiprocessing {
		cfg.MaxWorkers = 1
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch-size")
	if err != nil {
		return nil, err
	}

	delaySeconds, err := cmd.Flags().GetFloat64("domain-delay")
	if err != nil {
		return nil, err
	}
	cfg.DomainDelay = time.Duration(delaySeconds * float64(time.Second))

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}
	cfg.SimulateHuman, err = cmd.Flags().GetBool("simulate-human-behavior")
	if err != nil {
		return nil, err
	}

	cfg.ProxyURL, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}
	cfg.ProxyTimeout, err = cmd.Flags().GetDuration("proxy-timeout")
	if err != nil {
		return nil, err
	}

	cfg.UTEMATau, err = cmd.Flags().GetDuration("utema-tau")
	if err != nil {
		return nil, err
	}
	cfg.UTEMAThreshold, err = cmd.Flags().GetFloat64("utema-threshold")
	if err != nil {
		return nil, err
	}
	cfg.UTEMAMinSamples, err = cmd.Flags().GetInt("utema-min-samples")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	cfg.FreshStart, err = cmd.Flags().GetBool("fresh-start")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the configuration file. An explicitly specified file must
	// exist; the default search locations may come up empty.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.DomainOverrides = file
		cfg.Seeds = append(cfg.Seeds, file.Seeds...)
		cfg.TopicTerms = file.TopicTerms
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.DomainOverrides = &config.File{Domains: make(map[string]config.DomainConfig)}
	}

	return cfg, nil
}

// readSeedFile parses a seed list: one URL per line, blank lines and
// '#' comments ignored.
func readSeedFile(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided seed path is intentional
	if err != nil {
		return nil, err
	}

	var seeds []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	return seeds, nil
}
