package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/config"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/model"
)

// ErrUnsupportedProxyScheme is returned for proxy URLs whose scheme is
// not socks5, http, or https.
var ErrUnsupportedProxyScheme = errors.New("unsupported proxy scheme")

// Human-pacing bounds. When enabled, each fetch waits a random interval
// in this range before dispatch, approximating a person clicking links.
const (
	humanPauseMin = 300 * time.Millisecond
	humanPauseMax = 1200 * time.Millisecond
)

// Dispatcher performs the crawler's HTTP fetches. It is safe for
// concurrent use; all mutable crawl state lives in the engine, the
// dispatcher only moves bytes.
type Dispatcher struct {
	client        *http.Client
	robotsClient  *http.Client
	userAgent     string
	timeout       time.Duration
	maxBodySize   int64
	maxWorkers    int
	simulateHuman bool

	// uniform returns a pseudo-random float64 in [0, 1). Replaceable in
	// tests.
	uniform func() float64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRandom replaces the pseudo-random source used for human pacing.
func WithRandom(uniform func() float64) Option {
	return func(d *Dispatcher) {
		d.uniform = uniform
	}
}

// NewDispatcher creates a Dispatcher from the crawl configuration.
// An unsupported proxy scheme is an error.
func NewDispatcher(cfg *config.Config, opts ...Option) (*Dispatcher, error) {
	transport, err := newTransport(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		// The crawl client never follows redirects: each 3xx is a
		// classification event of its own.
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		// robots.txt fetches do follow redirects (http to https moves are
		// common there) but stay bounded.
		robotsClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.FetchTimeout(),
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:     cfg.UserAgent,
		timeout:       cfg.FetchTimeout(),
		maxBodySize:   cfg.MaxBodySize,
		maxWorkers:    cfg.MaxWorkers,
		simulateHuman: cfg.SimulateHuman,
		uniform:       rand.Float64,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// newTransport builds the shared HTTP transport, routing through the
// configured proxy when one is set.
func newTransport(proxyURL string) (*http.Transport, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	if proxyURL == "" {
		return transport, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	switch u.Scheme {
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: password}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProxyScheme, u.Scheme)
	}
	return transport, nil
}

// Client returns an HTTP client sharing the dispatcher's transport and
// timeout that follows redirects. The robots cache uses it.
func (d *Dispatcher) Client() *http.Client {
	return d.robotsClient
}

// Fetch performs one HTTP GET and returns the result. Transport failures
// land in FetchResult.Err; HTTP responses of any status are returned as
// data. The request runs on its own timeout context detached from ctx's
// cancellation, so an engine shutdown cannot abort a dispatched fetch;
// ctx is honored only for the optional human pause before dispatch.
func (d *Dispatcher) Fetch(ctx context.Context, fetchURL string) model.FetchResult {
	if d.simulateHuman {
		d.pause(ctx)
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	start := time.Now()
	result := model.FetchResult{URL: fetchURL}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, fetchURL, nil)
	if err != nil {
		result.Err = fmt.Errorf("failed to build request: %w", err)
		return result
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,de;q=0.7")

	resp, err := d.client.Do(req)
	if err != nil {
		result.Err = err
		result.Elapsed = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodySize))
	result.Elapsed = time.Since(start)
	if err != nil {
		result.Err = fmt.Errorf("failed to read body: %w", err)
		return result
	}

	result.Status = resp.StatusCode
	result.Headers = resp.Header
	result.Body = body
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			result.ContentType = strings.ToLower(mediaType)
		}
	}
	return result
}

// FetchBatch fetches all URLs concurrently through a pool of at most
// MaxWorkers goroutines and streams results on the returned channel in
// completion order. The channel closes once every URL is accounted for;
// the engine drains it fully even during shutdown, so no dispatched
// fetch is ever lost.
func (d *Dispatcher) FetchBatch(ctx context.Context, urls []string) <-chan model.FetchResult {
	results := make(chan model.FetchResult, len(urls))

	var g errgroup.Group
	g.SetLimit(d.maxWorkers)
	for _, u := range urls {
		g.Go(func() error {
			results <- d.Fetch(ctx, u)
			return nil
		})
	}
	go func() {
		g.Wait() //nolint:errcheck // workers never return errors
		close(results)
	}()
	return results
}

// pause sleeps a human-like random interval, returning early if ctx ends.
func (d *Dispatcher) pause(ctx context.Context) {
	span := float64(humanPauseMax - humanPauseMin)
	wait := humanPauseMin + time.Duration(d.uniform()*span)
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
