// Package robots caches per-domain robots.txt policies for the lifetime
// of a crawl. Each new domain costs exactly one robots.txt fetch; a
// missing or unfetchable file yields an allow-all policy with the
// configured default crawl delay, so unreachable robots.txt never blocks
// a crawl and never removes politeness.
package robots
