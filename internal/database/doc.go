// Package database provides SQLite-based persistence for crawl state.
// It stores fetched pages, the pending frontier, terminal verdicts, and
// per-domain health, using modernc.org/sqlite (pure Go, no CGO) so the
// crawler remains a single static binary. Terminal verdicts and frontier
// removal are committed in one transaction so queued work survives any
// crash or shutdown.
package database
