// Package classify turns fetch results into crawl decisions. It maps each
// HTTP status (or transport failure) to one of: success, follow-redirect,
// retry with backoff, disallow, or error-out, while maintaining per-URL
// retry budgets and the badness sample fed to the domain health tracker.
//
// The mapping distinguishes misbehavior that is the crawler's problem
// (rate limiting, transient server errors) from misbehavior that makes a
// URL worthless (client errors, redirect loops), and budgets retries
// separately per status class so one noisy failure mode cannot consume
// another's allowance.
package classify
