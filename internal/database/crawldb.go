package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/model"
)

// Store provides SQLite-based persistence for the crawl: fetched pages,
// the pending frontier, terminal verdicts, and per-domain health state.
// A single database file holds one crawl's state so that a restarted
// process resumes exactly where the previous one stopped.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "tuecrawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; all access goes through the engine
	// goroutine anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Successfully fetched pages. This table is the downstream contract:
	-- the indexing pipeline reads it and nothing else.
	CREATE TABLE IF NOT EXISTS crawled (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		domain TEXT NOT NULL,
		title TEXT,
		text TEXT,
		score REAL NOT NULL DEFAULT 0,
		status_code INTEGER,
		crawled_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_crawled_domain ON crawled(domain);
	CREATE INDEX IF NOT EXISTS idx_crawled_at ON crawled(crawled_at);

	-- Pending URLs. A row survives until a terminal verdict is written,
	-- so a crash or shutdown never loses queued work.
	CREATE TABLE IF NOT EXISTS frontier (
		url TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		score REAL NOT NULL DEFAULT 0,
		depth INTEGER NOT NULL DEFAULT 0,
		retry_count INTEGER NOT NULL DEFAULT 0,
		parent_url TEXT,
		discovered_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_frontier_domain ON frontier(domain);
	CREATE INDEX IF NOT EXISTS idx_frontier_score ON frontier(score);

	-- URLs blocked by policy: robots.txt, redirect loops, exhausted
	-- status budgets, domain bans.
	CREATE TABLE IF NOT EXISTS disallowed (
		url TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		reason TEXT NOT NULL,
		disallowed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_disallowed_domain ON disallowed(domain);

	-- Diagnostic log of abandoned URLs and parse failures.
	CREATE TABLE IF NOT EXISTS errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		detail TEXT NOT NULL,
		occurred_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_errors_url ON errors(url);

	-- Per-domain scheduling and health state, persisted so a resumed
	-- crawl keeps its bans and backoffs.
	CREATE TABLE IF NOT EXISTS domains (
		domain TEXT PRIMARY KEY,
		health_sum REAL NOT NULL DEFAULT 0,
		health_mass REAL NOT NULL DEFAULT 0,
		health_seen DATETIME,
		crawl_delay_ms INTEGER NOT NULL DEFAULT 0,
		next_fetch DATETIME,
		disallowed INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// CrawledPage is a successfully fetched page ready for persistence.
type CrawledPage struct {
	URL        string
	Domain     string
	Title      string
	Text       string
	Score      float64
	StatusCode int
}

// MarkCrawled persists a fetched page and removes its frontier row in one
// transaction. Write-once: a second call for the same URL is a no-op.
func (s *Store) MarkCrawled(ctx context.Context, page CrawledPage) error {
	return s.terminal(ctx, page.URL, `
	INSERT INTO crawled (url, domain, title, text, score, status_code)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO NOTHING
	`, page.URL, page.Domain, page.Title, page.Text, page.Score, page.StatusCode)
}

// MarkDisallowed persists a policy block and removes the frontier row in
// one transaction. Write-once per URL.
func (s *Store) MarkDisallowed(ctx context.Context, url, domain, reason string) error {
	return s.terminal(ctx, url, `
	INSERT INTO disallowed (url, domain, reason)
	VALUES (?, ?, ?)
	ON CONFLICT(url) DO NOTHING
	`, url, domain, reason)
}

// MarkErrored records an abandoned URL and removes its frontier row in
// one transaction.
func (s *Store) MarkErrored(ctx context.Context, url, detail string) error {
	return s.terminal(ctx, url, `
	INSERT INTO errors (url, detail)
	VALUES (?, ?)
	`, url, detail)
}

// terminal runs a terminal-verdict insert plus the frontier delete as one
// transaction, so a crash between the two cannot strand or duplicate work.
func (s *Store) terminal(ctx context.Context, url, insertQuery string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, insertQuery, args...); err != nil {
		return fmt.Errorf("failed to record terminal state for %s: %w", url, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM frontier WHERE url = ?`, url); err != nil {
		return fmt.Errorf("failed to dequeue %s: %w", url, err)
	}
	return tx.Commit()
}

// RecordError appends a diagnostic errors row without touching the
// frontier. Used for parse failures on pages that still count as crawled.
func (s *Store) RecordError(ctx context.Context, url, detail string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO errors (url, detail) VALUES (?, ?)`, url, detail)
	if err != nil {
		return fmt.Errorf("failed to record error for %s: %w", url, err)
	}
	return nil
}

// UpsertFrontier inserts or refreshes a pending URL's frontier row.
func (s *Store) UpsertFrontier(ctx context.Context, rec *model.URLRecord) error {
	query := `
	INSERT INTO frontier (url, domain, score, depth, retry_count, parent_url)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		score = excluded.score,
		retry_count = excluded.retry_count
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.URL, rec.Domain, rec.Score, rec.Depth, rec.RetryCount(), rec.ParentURL)
	if err != nil {
		return fmt.Errorf("failed to upsert frontier row for %s: %w", rec.URL, err)
	}
	return nil
}

// DeleteFrontierDomain removes every pending row for a domain. Used by
// the ban cascade together with MarkDisallowed for each dropped URL.
func (s *Store) DeleteFrontierDomain(ctx context.Context, domain string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM frontier WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("failed to drop frontier rows for %s: %w", domain, err)
	}
	return nil
}

// LoadFrontier returns all pending URL records, highest score first.
// Used to hydrate the in-memory frontier on startup.
func (s *Store) LoadFrontier(ctx context.Context) ([]*model.URLRecord, error) {
	query := `
	SELECT url, domain, score, depth, retry_count, COALESCE(parent_url, ''), discovered_at
	FROM frontier
	ORDER BY score DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load frontier: %w", err)
	}
	defer rows.Close()

	var records []*model.URLRecord
	for rows.Next() {
		var rec model.URLRecord
		var retries int
		var discovered string
		if err := rows.Scan(&rec.URL, &rec.Domain, &rec.Score, &rec.Depth, &retries, &rec.ParentURL, &discovered); err != nil {
			return nil, fmt.Errorf("failed to scan frontier row: %w", err)
		}
		// Persisted retries collapse into the transport class; the exact
		// split does not survive restarts and does not need to.
		rec.Retries[model.ClassTransport] = retries
		rec.State = model.StatePending
		rec.FirstSeen = parseTimestamp(discovered)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// LoadSeenURLs returns every URL the crawl has ever recorded, across the
// frontier and all terminal tables. Used to hydrate the dedup set.
func (s *Store) LoadSeenURLs(ctx context.Context) (map[string]struct{}, error) {
	query := `
	SELECT url FROM frontier
	UNION SELECT url FROM crawled
	UNION SELECT url FROM disallowed
	UNION SELECT url FROM errors
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load seen URLs: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan seen URL: %w", err)
		}
		seen[url] = struct{}{}
	}
	return seen, rows.Err()
}

// UpsertDomain persists a domain's scheduling and health state.
func (s *Store) UpsertDomain(ctx context.Context, rec *model.DomainRecord) error {
	query := `
	INSERT INTO domains (domain, health_sum, health_mass, health_seen, crawl_delay_ms, next_fetch, disallowed)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(domain) DO UPDATE SET
		health_sum = excluded.health_sum,
		health_mass = excluded.health_mass,
		health_seen = excluded.health_seen,
		crawl_delay_ms = excluded.crawl_delay_ms,
		next_fetch = excluded.next_fetch,
		disallowed = excluded.disallowed
	`
	disallowed := 0
	if rec.Disallowed {
		disallowed = 1
	}
	_, err := s.db.ExecContext(ctx, query,
		rec.Domain,
		rec.Health.Sum,
		rec.Health.Mass,
		rec.Health.LastSeen.UTC().Format(time.RFC3339Nano),
		rec.CrawlDelay.Milliseconds(),
		rec.NextFetch.UTC().Format(time.RFC3339Nano),
		disallowed,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert domain %s: %w", rec.Domain, err)
	}
	return nil
}

// LoadDomains returns all persisted domain records.
func (s *Store) LoadDomains(ctx context.Context) ([]*model.DomainRecord, error) {
	query := `
	SELECT domain, health_sum, health_mass, COALESCE(health_seen, ''), crawl_delay_ms, COALESCE(next_fetch, ''), disallowed
	FROM domains
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load domains: %w", err)
	}
	defer rows.Close()

	var records []*model.DomainRecord
	for rows.Next() {
		var rec model.DomainRecord
		var seen, next string
		var delayMS int64
		var disallowed int
		if err := rows.Scan(&rec.Domain, &rec.Health.Sum, &rec.Health.Mass, &seen, &delayMS, &next, &disallowed); err != nil {
			return nil, fmt.Errorf("failed to scan domain row: %w", err)
		}
		rec.Health.LastSeen = parseTimestamp(seen)
		rec.CrawlDelay = time.Duration(delayMS) * time.Millisecond
		rec.NextFetch = parseTimestamp(next)
		rec.Disallowed = disallowed != 0
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// IsCrawled reports whether a URL already has a crawled row.
func (s *Store) IsCrawled(ctx context.Context, url string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crawled WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check crawled state: %w", err)
	}
	return count > 0, nil
}

// IsDisallowed reports whether a URL has a disallowed row.
func (s *Store) IsDisallowed(ctx context.Context, url string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM disallowed WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check disallowed state: %w", err)
	}
	return count > 0, nil
}

// Reset drops all crawl state. Used by --fresh-start and the reset command.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"crawled", "frontier", "disallowed", "errors", "domains"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
