// Package model defines the core data structures shared across the crawler.
//
// This package contains the following main types:
//   - URLRecord: A URL's lifecycle state, retry counters, and relevance score
//   - DomainRecord: Per-domain health, crawl delay, and scheduling state
//   - RedirectChain: A bounded record of consecutive redirect hops
//   - FetchResult: The immutable outcome of a single fetch attempt
//   - Page: Title, text, and outbound links extracted from a response body
//
// Multiple packages (frontier, classify, fetch, engine, database) need these
// types, so centralizing them prevents import cycles. All persistent types
// are designed to round-trip through the SQLite store.
package model
