package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The retry and health defaults were tuned against real crawl traffic and
// can all be overridden via CLI flags or the configuration file.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "tuecrawl"

	// DefaultMaxWorkers is the number of concurrent fetch workers.
	// Each batch entry targets a distinct domain, so this also bounds the
	// number of domains contacted simultaneously.
	DefaultMaxWorkers = 8

	// DefaultBatchSize is the number of URLs drawn from the frontier per
	// dispatch round. Each batch holds at most one URL per domain.
	DefaultBatchSize = 32

	// DefaultDomainDelay is the minimum interval between two fetches to the
	// same domain when robots.txt declares no crawl-delay of its own.
	DefaultDomainDelay = 5 * time.Second

	// DefaultRobotsDelay is the crawl delay assumed for domains whose
	// robots.txt is missing, unreachable, or silent on crawl-delay.
	DefaultRobotsDelay = 5 * time.Second

	// DefaultTimeout is the per-request fetch timeout. It covers connection
	// establishment through reading the full (size-limited) body.
	DefaultTimeout = 15 * time.Second

	// DefaultProxyTimeout is the fetch timeout used when requests are
	// routed through an upstream proxy, which adds its own latency.
	DefaultProxyTimeout = 30 * time.Second

	// DefaultUserAgent identifies the crawler in HTTP requests so site
	// operators can recognize and contact us.
	DefaultUserAgent = "tuecrawl/1.0 (+https://github.com/StephenTaf/Modern-Search-Engines-Project)"

	// DefaultMaxBodySize limits the response body size read per fetch.
	// Larger bodies are truncated.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultMaxDepth is the maximum link distance from a seed. URLs
	// discovered beyond this depth are not enqueued.
	DefaultMaxDepth = 30

	// DefaultUTEMATau is the decay time constant of the per-domain badness
	// average. Samples older than a few τ contribute almost nothing.
	DefaultUTEMATau = 5 * time.Second

	// DefaultUTEMAThreshold is the badness average above which a domain is
	// banned, provided enough sample mass has accumulated.
	DefaultUTEMAThreshold = 0.5

	// DefaultUTEMAMinSamples is the number of fetches observed from a
	// domain before the badness average may trigger a ban. Keeps a single
	// early failure from condemning a domain.
	DefaultUTEMAMinSamples = 20

	// DefaultMaxTransportRetries is the number of transport-level failures
	// (timeout, reset, DNS) tolerated before a URL is abandoned as errored.
	DefaultMaxTransportRetries = 3

	// DefaultMaxBackoff caps the exponential per-URL retry backoff.
	DefaultMaxBackoff = time.Hour

	// DefaultAcceptScore is the relevance score below which a crawled
	// page's outbound links receive no priority boost.
	DefaultAcceptScore = 0.1
)

// DefaultRetryThresholds returns the per-status-class attempt budgets.
// When a URL's failure counter for a class exceeds its budget, the URL is
// disallowed (or errored, for the transport class).
func DefaultRetryThresholds() map[string]int {
	return map[string]int{
		"bad_request":  3,  // HTTP 400
		"client_error": 2,  // other 4xx
		"rate_limited": 10, // HTTP 429
		"server_error": 5,  // 500-506, 599
		"storage_full": 3,  // 507-509
		"transport":    3,  // below HTTP
		"unknown":      3,  // unrecognized codes
	}
}

// Config holds all configuration options for the crawler.
// It is populated from CLI flags and the optional configuration file, then
// passed through the application by dependency injection, never as global
// state. All tunables that shape crawl behavior live here; no component
// hard-codes a threshold.
type Config struct {
	// Seeds are the initial URLs. On a fresh start they populate the
	// frontier at depth 0; on resume they are only added if unseen.
	Seeds []string

	// MaxWorkers is the number of concurrent fetch workers.
	MaxWorkers int

	// BatchSize is the number of URLs drawn from the frontier per round.
	BatchSize int

	// DomainDelay is the minimum interval between fetches to one domain.
	// The effective delay per domain is the maximum of this value, the
	// robots.txt crawl-delay, and any active backoff.
	DomainDelay time.Duration

	// RobotsDelay is the crawl delay assumed when robots.txt declares none.
	RobotsDelay time.Duration

	// Timeout is the per-request fetch timeout.
	Timeout time.Duration

	// ProxyURL routes all fetches through an upstream proxy when set.
	// Supported schemes: socks5, http, https. Empty means direct fetches.
	ProxyURL string

	// ProxyTimeout replaces Timeout when ProxyURL is set.
	ProxyTimeout time.Duration

	// SimulateHuman inserts a small random pause before each fetch.
	SimulateHuman bool

	// Debug enables slog.LevelDebug output.
	Debug bool

	// UserAgent is sent with every HTTP request and used for robots.txt
	// agent-group matching.
	UserAgent string

	// MaxBodySize is the response body read limit in bytes.
	MaxBodySize int64

	// MaxDepth is the maximum link distance from a seed.
	MaxDepth int

	// MaxPages stops the crawl after this many successful page fetches.
	// Zero means unlimited.
	MaxPages int

	// UTEMATau is the decay time constant of the domain badness average.
	UTEMATau time.Duration

	// UTEMAThreshold is the badness average that triggers a domain ban.
	UTEMAThreshold float64

	// UTEMAMinSamples is the number of observed fetches a domain needs
	// before a ban may fire.
	UTEMAMinSamples int

	// RetryThresholds maps status-class names to attempt budgets.
	// See DefaultRetryThresholds for the class names.
	RetryThresholds map[string]int

	// MaxBackoff caps the exponential per-URL retry backoff.
	MaxBackoff time.Duration

	// AcceptScore is the relevance score below which a page's links gain
	// no priority boost.
	AcceptScore float64

	// TopicTerms are the lowercase terms the default scorer matches
	// against page text. Loaded from the configuration file when present.
	TopicTerms []string

	// DBDir is the directory holding the SQLite crawl store.
	// Defaults to the XDG data directory.
	DBDir string

	// FreshStart drops all persisted crawl state before starting.
	FreshStart bool

	// ConfigFilePath is an explicit configuration file path. If empty, the
	// tool searches for .tuecrawl in the working directory and then in the
	// user's home directory.
	ConfigFilePath string

	// DomainOverrides holds per-domain settings from the config file.
	DomainOverrides *File
}

// NewConfig creates a Config with default values. Callers override fields
// from flags and the configuration file after creation; flag values win
// over file values.
func NewConfig() *Config {
	return &Config{
		MaxWorkers:      DefaultMaxWorkers,
		BatchSize:       DefaultBatchSize,
		DomainDelay:     DefaultDomainDelay,
		RobotsDelay:     DefaultRobotsDelay,
		Timeout:         DefaultTimeout,
		ProxyTimeout:    DefaultProxyTimeout,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		MaxDepth:        DefaultMaxDepth,
		UTEMATau:        DefaultUTEMATau,
		UTEMAThreshold:  DefaultUTEMAThreshold,
		UTEMAMinSamples: DefaultUTEMAMinSamples,
		RetryThresholds: DefaultRetryThresholds(),
		MaxBackoff:      DefaultMaxBackoff,
		AcceptScore:     DefaultAcceptScore,
		DBDir:           XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for the crawler.
// On Linux: ~/.local/share/tuecrawl
// On macOS: ~/Library/Application Support/tuecrawl
// On Windows: %LOCALAPPDATA%\tuecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// FetchTimeout returns the effective per-request timeout: ProxyTimeout
// when a proxy is configured, Timeout otherwise.
func (c *Config) FetchTimeout() time.Duration {
	if c.ProxyURL != "" {
		return c.ProxyTimeout
	}
	return c.Timeout
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag and file parsing, before the store is
// opened, so invalid settings fail fast with a clear message.
func (c *Config) Validate() error {
	if c.MaxWorkers <= 0 {
		return ErrInvalidMaxWorkers
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.Timeout <= 0 || c.ProxyTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.DomainDelay < 0 || c.RobotsDelay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.UTEMATau <= 0 {
		return ErrInvalidUTEMATau
	}
	if c.UTEMAThreshold <= 0 || c.UTEMAThreshold > 1 {
		return ErrInvalidUTEMAThreshold
	}
	if c.UTEMAMinSamples < 0 {
		return ErrInvalidUTEMAMinSamples
	}
	for class, n := range c.RetryThresholds {
		if n <= 0 {
			return ErrInvalidRetryThreshold
		}
		if _, ok := DefaultRetryThresholds()[class]; !ok {
			return ErrUnknownStatusClass
		}
	}
	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		if err != nil || u.Host == "" {
			return ErrInvalidProxyURL
		}
		switch u.Scheme {
		case "socks5", "http", "https":
		default:
			return ErrInvalidProxyURL
		}
	}
	return nil
}
