// Package fetch issues the crawler's HTTP requests. The dispatcher owns
// the HTTP client, the optional upstream proxy (SOCKS5 or HTTP), the
// per-request timeout, the body size limit, and the bounded worker pool
// for batch fetching.
//
// Redirects are never followed automatically: the classifier must see
// every 3xx hop to enforce the redirect chain limit. In-flight requests
// run on contexts detached from the engine's cancellable context, so a
// shutdown lets dispatched fetches finish instead of aborting them.
package fetch
