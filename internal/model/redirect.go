package model

// RedirectChainLimit is the number of consecutive redirect hops tolerated
// before the entire chain is treated as a loop and disallowed.
const RedirectChainLimit = 5

// Hop is one step in a redirect chain: the URL that was fetched and the
// 3xx status it answered with.
type Hop struct {
	URL    string
	Status int
}

// RedirectChain records consecutive redirect hops for one logical fetch.
// Capacity is fixed at RedirectChainLimit; Push reports whether the hop
// was accepted. A full chain means the crawl of this URL is abandoned and
// every URL on the chain is disallowed. Chains are in-memory bookkeeping
// only and are discarded once a terminal decision is reached.
type RedirectChain struct {
	hops [RedirectChainLimit]Hop
	n    int
}

// Push appends a hop to the chain. It returns false when the chain is
// already full, which signals a redirect loop.
func (c *RedirectChain) Push(url string, status int) bool {
	if c.n >= RedirectChainLimit {
		return false
	}
	c.hops[c.n] = Hop{URL: url, Status: status}
	c.n++
	return true
}

// Full reports whether the chain has reached its hop limit.
func (c *RedirectChain) Full() bool {
	return c.n >= RedirectChainLimit
}

// Len returns the number of recorded hops.
func (c *RedirectChain) Len() int {
	return c.n
}

// Hops returns the recorded hops in order.
func (c *RedirectChain) Hops() []Hop {
	return c.hops[:c.n]
}

// Contains reports whether the given URL already appears on the chain.
// A revisited URL is a loop regardless of remaining capacity.
func (c *RedirectChain) Contains(url string) bool {
	for i := 0; i < c.n; i++ {
		if c.hops[i].URL == url {
			return true
		}
	}
	return false
}
