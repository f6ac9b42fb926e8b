// Package frontier maintains the priority queue of URLs waiting to be
// fetched. Priority is the relevance score with a depth penalty applied on
// admission; batches drawn from the frontier contain at most one URL per
// domain so a single large site cannot monopolize the worker pool.
//
// The frontier deduplicates against every URL the crawl has ever seen,
// pending or terminal, and writes through to the SQLite store so pending
// work survives restarts.
package frontier
