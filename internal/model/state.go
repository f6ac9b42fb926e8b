package model

// State represents the lifecycle state of a URL known to the crawler.
// Transitions are one-directional: Pending may become Crawled, Disallowed,
// or Errored, and the three latter states are terminal. A URL in a terminal
// state is never fetched again for the lifetime of the crawl store.
type State int

const (
	// StatePending indicates the URL is queued in the frontier and has not
	// yet produced a terminal outcome. Retries keep a URL in this state.
	StatePending State = iota

	// StateCrawled indicates the URL was fetched successfully and its
	// content has been persisted. Pages that fail extraction are still
	// Crawled; the parse failure is recorded separately.
	StateCrawled

	// StateDisallowed indicates the URL was blocked by policy: robots.txt,
	// a redirect loop, an exhausted HTTP status budget, or a domain ban.
	StateDisallowed

	// StateErrored indicates the URL was abandoned after repeated transport
	// failures (timeouts, connection resets, DNS errors).
	StateErrored
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCrawled:
		return "crawled"
	case StateDisallowed:
		return "disallowed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state permits no further fetch attempts.
func (s State) Terminal() bool {
	return s != StatePending
}
