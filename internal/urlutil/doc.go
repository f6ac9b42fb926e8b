// Package urlutil provides URL normalization, domain extraction, and
// crawlability filtering. Normalized URLs are the identity keys for
// deduplication across the frontier and the crawl store, so normalization
// must be deterministic and idempotent.
package urlutil
