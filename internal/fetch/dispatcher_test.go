package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/config"
)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Timeout = 5 * time.Second
	cfg.MaxWorkers = 4
	return cfg
}

func newTestDispatcher(t *testing.T, cfg *config.Config) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(cfg)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d
}

func TestFetchReturnsResponse(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "tuecrawl") {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer ts.Close()

	d := newTestDispatcher(t, testConfig())
	res := d.Fetch(context.Background(), ts.URL+"/page")

	if res.Err != nil {
		t.Fatalf("Fetch() Err = %v", res.Err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", res.Status)
	}
	if res.ContentType != "text/html" {
		t.Errorf("ContentType = %q, want text/html", res.ContentType)
	}
	if !strings.Contains(string(res.Body), "ok") {
		t.Errorf("Body = %q", res.Body)
	}
	if res.Elapsed <= 0 {
		t.Error("Elapsed not recorded")
	}
}

func TestFetchDoesNotFollowRedirects(t *testing.T) {
	t.Parallel()

	var followed atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, "/target", http.StatusMovedPermanently)
		case "/target":
			followed.Store(true)
			w.Write([]byte("should not be fetched"))
		}
	}))
	defer ts.Close()

	d := newTestDispatcher(t, testConfig())
	res := d.Fetch(context.Background(), ts.URL+"/start")

	if res.Err != nil {
		t.Fatalf("Fetch() Err = %v", res.Err)
	}
	if res.Status != http.StatusMovedPermanently {
		t.Errorf("Status = %d, want 301", res.Status)
	}
	if got := res.Location(); got != "/target" {
		t.Errorf("Location() = %q, want /target", got)
	}
	if followed.Load() {
		t.Error("dispatcher followed the redirect")
	}
}

func TestFetchTransportFailure(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t, testConfig())
	res := d.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")

	if res.Err == nil {
		t.Fatal("Fetch() Err = nil for an unreachable host")
	}
	if res.Status != 0 {
		t.Errorf("Status = %d, want 0 on transport failure", res.Status)
	}
}

func TestFetchTimesOut(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.Timeout = 100 * time.Millisecond
	d := newTestDispatcher(t, cfg)

	res := d.Fetch(context.Background(), ts.URL)
	if res.Err == nil {
		t.Fatal("Fetch() Err = nil, want timeout")
	}
}

func TestFetchTruncatesLargeBodies(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64*1024))
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 1024
	d := newTestDispatcher(t, cfg)

	res := d.Fetch(context.Background(), ts.URL)
	if res.Err != nil {
		t.Fatalf("Fetch() Err = %v", res.Err)
	}
	if len(res.Body) != 1024 {
		t.Errorf("Body length = %d, want truncated to 1024", len(res.Body))
	}
}

func TestFetchSurvivesCancelledContext(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte("late but complete"))
	}))
	defer ts.Close()

	d := newTestDispatcher(t, testConfig())

	// Cancelling the engine context mid-flight must not abort the fetch.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res := d.Fetch(ctx, ts.URL)
	if res.Err != nil {
		t.Fatalf("Fetch() Err = %v, want completion despite cancelled context", res.Err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", res.Status)
	}
}

func TestFetchBatch(t *testing.T) {
	t.Parallel()

	var concurrent, peak atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := concurrent.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		concurrent.Add(-1)
		w.Write([]byte("ok " + r.URL.Path))
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.MaxWorkers = 3
	d := newTestDispatcher(t, cfg)

	urls := make([]string, 9)
	for i := range urls {
		urls[i] = ts.URL + "/" + string(rune('a'+i))
	}

	var got int
	for res := range d.FetchBatch(context.Background(), urls) {
		if res.Err != nil {
			t.Errorf("result for %s: %v", res.URL, res.Err)
		}
		got++
	}
	if got != len(urls) {
		t.Errorf("received %d results, want %d", got, len(urls))
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", p)
	}
}

func TestNewDispatcherRejectsBadProxy(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ProxyURL = "gopher://proxy.example:70"
	if _, err := NewDispatcher(cfg); !errors.Is(err, ErrUnsupportedProxyScheme) {
		t.Errorf("NewDispatcher() error = %v, want ErrUnsupportedProxyScheme", err)
	}
}

func TestHTTPProxyIsUsed(t *testing.T) {
	t.Parallel()

	// A proxy sees the absolute-form request URL.
	var sawProxy atomic.Bool
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.RequestURI, "http://") {
			sawProxy.Store(true)
		}
		w.Write([]byte("proxied"))
	}))
	defer proxySrv.Close()

	cfg := testConfig()
	cfg.ProxyURL = proxySrv.URL
	d := newTestDispatcher(t, cfg)

	res := d.Fetch(context.Background(), "http://origin.invalid/page")
	if res.Err != nil {
		t.Fatalf("Fetch() Err = %v", res.Err)
	}
	if !sawProxy.Load() {
		t.Error("request did not pass through the HTTP proxy")
	}
}

func TestHumanPacingDelaysFetch(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.SimulateHuman = true
	d, err := NewDispatcher(cfg, WithRandom(func() float64 { return 0 }))
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	res := d.Fetch(context.Background(), ts.URL)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if elapsed := time.Since(start); elapsed < humanPauseMin {
		t.Errorf("fetch returned after %v, want at least the %v pause", elapsed, humanPauseMin)
	}
}
