package classify

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/config"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/model"
)

// newTestClassifier uses the default thresholds with a deterministic
// jitter source that always picks the upper bound.
func newTestClassifier() *Classifier {
	return NewClassifier(
		config.DefaultRetryThresholds(),
		time.Second,
		time.Hour,
		WithRandom(func() float64 { return 1 }),
	)
}

func result(status int, headers map[string]string) model.FetchResult {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return model.FetchResult{URL: "https://a.example/x", Status: status, Headers: h}
}

func TestClassifySuccess(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()
	rec := &model.URLRecord{URL: "https://a.example/x"}

	d := c.Classify(rec, result(200, nil), nil)
	if d.Kind != KindSuccess {
		t.Errorf("Kind = %v, want success", d.Kind)
	}
	if d.Badness != 0 {
		t.Errorf("Badness = %v, want 0", d.Badness)
	}
	if rec.RetryCount() != 0 {
		t.Errorf("success touched retry counters: %d", rec.RetryCount())
	}
	if rec.LastStatus != 200 {
		t.Errorf("LastStatus = %d, want 200", rec.LastStatus)
	}
}

func TestClassifyRedirect(t *testing.T) {
	t.Parallel()

	t.Run("follows with target", func(t *testing.T) {
		t.Parallel()

		c := newTestClassifier()
		rec := &model.URLRecord{URL: "https://a.example/x"}
		var chain model.RedirectChain

		d := c.Classify(rec, result(301, map[string]string{"Location": "https://a.example/y"}), &chain)
		if d.Kind != KindFollowRedirect {
			t.Fatalf("Kind = %v, want follow_redirect", d.Kind)
		}
		if d.RedirectTarget != "https://a.example/y" {
			t.Errorf("RedirectTarget = %q", d.RedirectTarget)
		}
		if d.Badness != 0 {
			t.Errorf("Badness = %v, want 0 for a pure redirect", d.Badness)
		}
		if chain.Len() != 1 {
			t.Errorf("chain length = %d, want 1", chain.Len())
		}
	})

	t.Run("five hops is a loop", func(t *testing.T) {
		t.Parallel()

		// Distinct targets throughout: the chain length alone, not a
		// revisited URL, must end the chase on the fifth consecutive 3xx.
		c := newTestClassifier()
		var chain model.RedirectChain
		for i := 1; i <= model.RedirectChainLimit; i++ {
			rec := &model.URLRecord{URL: fmt.Sprintf("https://a.example/hop%d", i)}
			target := fmt.Sprintf("https://a.example/hop%d", i+1)
			d := c.Classify(rec, result(302, map[string]string{"Location": target}), &chain)

			if i < model.RedirectChainLimit {
				if d.Kind != KindFollowRedirect {
					t.Fatalf("hop %d: Kind = %v, want follow_redirect", i, d.Kind)
				}
				continue
			}
			if d.Kind != KindDisallow || !d.DisallowChain {
				t.Fatalf("hop %d: decision = %+v, want chain disallow", i, d)
			}
			if d.Badness != 1 {
				t.Errorf("Badness = %v, want 1", d.Badness)
			}
		}
	})

	t.Run("revisited target is a loop", func(t *testing.T) {
		t.Parallel()

		c := newTestClassifier()
		var chain model.RedirectChain
		a := &model.URLRecord{URL: "https://a.example/a"}
		b := &model.URLRecord{URL: "https://a.example/b"}

		d := c.Classify(a, result(302, map[string]string{"Location": "https://a.example/b"}), &chain)
		if d.Kind != KindFollowRedirect {
			t.Fatalf("first hop Kind = %v", d.Kind)
		}
		d = c.Classify(b, result(302, map[string]string{"Location": "https://a.example/a"}), &chain)
		if d.Kind != KindDisallow || !d.DisallowChain {
			t.Errorf("revisit decision = %+v, want chain disallow", d)
		}
	})

	t.Run("missing location", func(t *testing.T) {
		t.Parallel()

		c := newTestClassifier()
		rec := &model.URLRecord{URL: "https://a.example/x"}
		var chain model.RedirectChain

		d := c.Classify(rec, result(302, nil), &chain)
		if d.Kind != KindDisallow {
			t.Errorf("Kind = %v, want disallow", d.Kind)
		}
	})
}

func TestClassifyStatusBudgets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		class       model.StatusClass
		badness     float64
		budget      int
		wantFinally Kind
	}{
		{"bad request", 400, model.ClassBadRequest, 1.0, 3, KindDisallow},
		{"not found", 404, model.ClassClientError, 1.0, 2, KindDisallow},
		{"gone", 410, model.ClassClientError, 1.0, 2, KindDisallow},
		{"rate limited", 429, model.ClassRateLimited, 0.5, 10, KindDisallow},
		{"server error", 503, model.ClassServerError, 1.0, 5, KindDisallow},
		{"network timeout 599", 599, model.ClassServerError, 1.0, 5, KindDisallow},
		{"storage full", 507, model.ClassStorageFull, 0.75, 3, KindDisallow},
		{"unrecognized", 799, model.ClassUnknown, 0.4, 3, KindDisallow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClassifier()
			rec := &model.URLRecord{URL: "https://a.example/x"}

			var d Decision
			for i := 1; i <= tt.budget; i++ {
				d = c.Classify(rec, result(tt.status, nil), nil)
				if d.Class != tt.class {
					t.Fatalf("attempt %d: Class = %v, want %v", i, d.Class, tt.class)
				}
				if d.Badness != tt.badness {
					t.Fatalf("attempt %d: Badness = %v, want %v", i, d.Badness, tt.badness)
				}
				if i < tt.budget && d.Kind != KindRetry {
					t.Fatalf("attempt %d: Kind = %v, want retry", i, d.Kind)
				}
			}
			if d.Kind != tt.wantFinally {
				t.Errorf("final Kind = %v, want %v", d.Kind, tt.wantFinally)
			}
			if rec.Retries[tt.class] != tt.budget {
				t.Errorf("counter = %d, want %d", rec.Retries[tt.class], tt.budget)
			}
		})
	}
}

func TestClassifyTransportFailure(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()
	rec := &model.URLRecord{URL: "https://a.example/x"}
	res := model.FetchResult{URL: rec.URL, Err: errors.New("dial tcp: i/o timeout")}

	d := c.Classify(rec, res, nil)
	if d.Kind != KindRetry {
		t.Fatalf("first failure Kind = %v, want retry", d.Kind)
	}
	if d.Badness != 1 {
		t.Errorf("Badness = %v, want 1", d.Badness)
	}

	c.Classify(rec, res, nil)
	d = c.Classify(rec, res, nil)
	if d.Kind != KindError {
		t.Errorf("third failure Kind = %v, want error", d.Kind)
	}
	if !strings.Contains(d.Reason, "transport failure") {
		t.Errorf("Reason = %q", d.Reason)
	}
}

func TestClassifyRateLimitDomainBackoff(t *testing.T) {
	t.Parallel()

	t.Run("retry-after seconds wins", func(t *testing.T) {
		t.Parallel()

		c := newTestClassifier()
		rec := &model.URLRecord{URL: "https://a.example/x"}

		d := c.Classify(rec, result(429, map[string]string{"Retry-After": "90"}), nil)
		if d.Kind != KindRetry {
			t.Fatalf("Kind = %v, want retry", d.Kind)
		}
		if d.DomainBackoff != 90*time.Second {
			t.Errorf("DomainBackoff = %v, want 90s", d.DomainBackoff)
		}
		if d.Backoff != 90*time.Second {
			t.Errorf("Backoff = %v, want 90s", d.Backoff)
		}
	})

	t.Run("without retry-after uses exponential pause", func(t *testing.T) {
		t.Parallel()

		c := newTestClassifier()
		rec := &model.URLRecord{URL: "https://a.example/x"}

		d := c.Classify(rec, result(429, nil), nil)
		if d.DomainBackoff <= 0 {
			t.Errorf("DomainBackoff = %v, want positive", d.DomainBackoff)
		}
	})

	t.Run("unparsable retry-after ignored", func(t *testing.T) {
		t.Parallel()

		c := newTestClassifier()
		rec := &model.URLRecord{URL: "https://a.example/x"}

		d := c.Classify(rec, result(429, map[string]string{"Retry-After": "soonish"}), nil)
		if d.DomainBackoff <= 0 {
			t.Errorf("DomainBackoff = %v, want positive fallback", d.DomainBackoff)
		}
	})
}

func TestBackoffSchedule(t *testing.T) {
	t.Parallel()

	// With the jitter source pinned to the upper bound the schedule is
	// exactly base·2^attempt until the cap.
	c := NewClassifier(config.DefaultRetryThresholds(), time.Second, time.Hour,
		WithRandom(func() float64 { return 1 }))

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 1024 * time.Second},
	}
	for _, tt := range tests {
		if got := c.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	// Far past the cap the delay pins to the maximum.
	if got := c.backoff(30); got != time.Hour {
		t.Errorf("backoff(30) = %v, want cap %v", got, time.Hour)
	}

	// The lower jitter bound is base·2^n/1.4.
	lo := NewClassifier(config.DefaultRetryThresholds(), time.Second, time.Hour,
		WithRandom(func() float64 { return 0 }))
	lowerBound := float64(4*time.Second) / 1.4
	if got := lo.backoff(2); got != time.Duration(lowerBound) {
		t.Errorf("lower-bound backoff(2) = %v, want %v", got, time.Duration(lowerBound))
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	if got := parseRetryAfter("120"); got != 2*time.Minute {
		t.Errorf("parseRetryAfter(120) = %v", got)
	}
	if got := parseRetryAfter("-5"); got != 0 {
		t.Errorf("parseRetryAfter(-5) = %v, want 0", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("parseRetryAfter(empty) = %v, want 0", got)
	}
	if got := parseRetryAfter("garbage"); got != 0 {
		t.Errorf("parseRetryAfter(garbage) = %v, want 0", got)
	}

	future := time.Now().Add(10 * time.Minute).UTC().Format(http.TimeFormat)
	got := parseRetryAfter(future)
	if got < 9*time.Minute || got > 10*time.Minute {
		t.Errorf("parseRetryAfter(http date) = %v, want ~10m", got)
	}

	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(past); got != 0 {
		t.Errorf("parseRetryAfter(past date) = %v, want 0", got)
	}
}
