// Package main provides the entry point for the tuecrawl CLI.
//
// tuecrawl is a polite topical web crawler: it fetches pages starting
// from seed URLs, honors robots.txt and per-domain rate limits, backs
// off from failing sites, and stores extracted page text in a local
// SQLite database for downstream indexing.
//
// Usage:
//
//	tuecrawl crawl --seeds https://www.example.org
//	tuecrawl stats
//
// See --help for all available options.
package main

// main is the entry point for tuecrawl.
func main() {
	Execute()
}
