package model

import "time"

// StatusClass groups HTTP outcomes that share a retry budget.
// Each class has its own counter on a URLRecord and its own threshold in
// the configuration; counters never reset once incremented.
type StatusClass int

const (
	// ClassBadRequest covers HTTP 400 responses.
	ClassBadRequest StatusClass = iota

	// ClassClientError covers 4xx responses other than 400 and 429.
	ClassClientError

	// ClassRateLimited covers HTTP 429 responses.
	ClassRateLimited

	// ClassServerError covers 500-506 and 599 responses.
	ClassServerError

	// ClassStorageFull covers 507-509 responses.
	ClassStorageFull

	// ClassTransport covers failures below HTTP: timeouts, resets, DNS.
	ClassTransport

	// ClassUnknown covers status codes outside all recognized ranges.
	ClassUnknown

	// NumStatusClasses is the number of distinct retry counters.
	NumStatusClasses
)

// String returns a short identifier for the status class.
func (c StatusClass) String() string {
	switch c {
	case ClassBadRequest:
		return "bad_request"
	case ClassClientError:
		return "client_error"
	case ClassRateLimited:
		return "rate_limited"
	case ClassServerError:
		return "server_error"
	case ClassStorageFull:
		return "storage_full"
	case ClassTransport:
		return "transport"
	case ClassUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// URLRecord tracks everything the crawler knows about a single URL.
// The normalized URL is the identity key: two raw URLs that normalize to
// the same string share one record.
type URLRecord struct {
	// URL is the normalized absolute URL. Never empty.
	URL string

	// Domain is the lowercase host extracted from URL.
	Domain string

	// State is the lifecycle state. See State for transition rules.
	State State

	// Depth is the link distance from the nearest seed. Seeds have depth 0.
	Depth int

	// Score is the relevance priority used by the frontier, higher first.
	Score float64

	// ParentURL is the page on which this URL was discovered.
	// Empty for seeds.
	ParentURL string

	// Retries holds the per-class failure counters. Indexed by StatusClass.
	Retries [NumStatusClasses]int

	// LastStatus is the HTTP status of the most recent attempt, or 0 if the
	// URL has never been fetched or the attempt failed below HTTP.
	LastStatus int

	// FirstSeen is when the URL entered the frontier.
	FirstSeen time.Time

	// LastAttempt is when the most recent fetch was dispatched.
	// Zero if never attempted.
	LastAttempt time.Time
}

// RetryCount returns the total number of recorded failures across classes.
func (r *URLRecord) RetryCount() int {
	total := 0
	for _, n := range r.Retries {
		total += n
	}
	return total
}

// DomainRecord tracks scheduling and health state for one domain.
// The engine goroutine is the sole writer.
type DomainRecord struct {
	// Domain is the lowercase host.
	Domain string

	// Health is the time-decayed badness average state for the domain.
	Health HealthState

	// CrawlDelay is the minimum interval between fetches to this domain.
	// It starts at the effective robots delay and grows under backoff.
	CrawlDelay time.Duration

	// NextFetch is the earliest time another fetch may be dispatched.
	NextFetch time.Time

	// Disallowed marks a banned domain. Once set it is never cleared.
	Disallowed bool
}

// HealthState is the persistable state of an unbiased time-exponential
// moving average: the decayed sum S, the decayed sample mass N, and the
// timestamp of the last observation. The current average is S/N.
type HealthState struct {
	Sum      float64
	Mass     float64
	LastSeen time.Time
}

// Average returns the current badness average, or 0 before any sample.
func (h HealthState) Average() float64 {
	if h.Mass == 0 {
		return 0
	}
	return h.Sum / h.Mass
}
