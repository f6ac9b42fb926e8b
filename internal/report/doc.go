// Package report renders crawl statistics in multiple output formats:
// plain text for the terminal, Markdown for documentation, and JSON for
// tool integration. All writers implement the same Writer interface, and
// MultiWriter fans one report out to several destinations at once.
package report
