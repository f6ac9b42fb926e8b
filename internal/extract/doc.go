// Package extract parses fetched HTML into the crawler's Page model:
// the title, the visible text, and the outbound links already resolved
// and normalized. It uses golang.org/x/net/html, which tolerates the
// malformed markup that is routine on the open web.
package extract
