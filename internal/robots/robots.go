package robots

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/temoto/robotstxt"
)

// maxRobotsSize bounds the robots.txt body read. Real files are a few KB;
// anything larger is treated as unparsable.
const maxRobotsSize = 512 * 1024

// Doer issues HTTP requests. Satisfied by *http.Client; the dispatcher
// provides one that shares the crawl's proxy and timeout settings.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Policy is the parsed crawl policy for one domain. The zero group means
// allow-all. Policies are immutable once built.
type Policy struct {
	group        *robotstxt.Group
	crawlDelay   time.Duration
	defaultDelay time.Duration
}

// Allowed reports whether the path may be fetched. The most specific
// matching rule wins, per the robots.txt de-facto standard.
func (p *Policy) Allowed(path string) bool {
	if p.group == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	return p.group.Test(path)
}

// CrawlDelay returns the declared crawl delay, or the configured default
// when the file declares none.
func (p *Policy) CrawlDelay() time.Duration {
	if p.crawlDelay > 0 {
		return p.crawlDelay
	}
	return p.defaultDelay
}

// Cache fetches and retains one Policy per domain. It is not safe for
// concurrent use; the engine goroutine is the sole caller.
type Cache struct {
	client       Doer
	agent        string
	defaultDelay time.Duration
	entries      map[string]*Policy
}

// NewCache creates a Cache. agent is the user agent string used both for
// the robots.txt request and for agent-group matching; defaultDelay is
// assumed when a file is silent or missing.
func NewCache(client Doer, agent string, defaultDelay time.Duration) *Cache {
	return &Cache{
		client:       client,
		agent:        agent,
		defaultDelay: defaultDelay,
		entries:      make(map[string]*Policy),
	}
}

// Policy returns the cached policy for a domain, fetching robots.txt on
// first sight. Any failure along the way (transport error, non-2xx,
// unparsable content) degrades to allow-all with the default delay; the
// degraded policy is cached like any other so the fetch is not repeated.
func (c *Cache) Policy(ctx context.Context, domain string) *Policy {
	if p, ok := c.entries[domain]; ok {
		return p
	}
	p := c.fetch(ctx, domain)
	c.entries[domain] = p
	return p
}

// Forget drops a domain's cached policy. Called when the domain is
// banned; a later unban (new crawl) refetches.
func (c *Cache) Forget(domain string) {
	delete(c.entries, domain)
}

// Len returns the number of cached policies.
func (c *Cache) Len() int {
	return len(c.entries)
}

// fetch retrieves and parses robots.txt, trying https then http.
func (c *Cache) fetch(ctx context.Context, domain string) *Policy {
	allowAll := &Policy{defaultDelay: c.defaultDelay}

	for _, scheme := range []string{"https", "http"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, scheme+"://"+domain+"/robots.txt", nil)
		if err != nil {
			return allowAll
		}
		req.Header.Set("User-Agent", c.agent)

		resp, err := c.client.Do(req)
		if err != nil {
			continue
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
		resp.Body.Close()
		if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
			continue
		}

		data, err := robotstxt.FromBytes(body)
		if err != nil {
			return allowAll
		}
		group := data.FindGroup(c.agent)
		if group == nil {
			return allowAll
		}
		return &Policy{
			group:        group,
			crawlDelay:   group.CrawlDelay,
			defaultDelay: c.defaultDelay,
		}
	}
	return allowAll
}
