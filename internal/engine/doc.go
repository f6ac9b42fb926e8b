// Package engine runs the crawl loop. It owns all mutable crawl state:
// the frontier, the per-domain scheduling records, the robots.txt cache,
// and the domain health tracker. One goroutine drives the loop; fetches
// fan out through the dispatcher's worker pool and their results return
// to the engine goroutine for classification and persistence.
//
// The loop repeats four steps until the frontier drains, the page limit
// is reached, or the context is cancelled: draw a domain-diverse batch
// of pending URLs, gate each through the per-domain configuration and
// robots.txt, fetch the survivors concurrently, and apply the classified
// outcome of every result. Cancellation stops new dispatches but never
// abandons results already in flight; the engine drains the batch
// channel completely and persists every verdict before Run returns.
package engine
