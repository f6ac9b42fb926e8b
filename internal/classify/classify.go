package classify

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/model"
)

// Kind is the action the engine must take for a classified fetch result.
type Kind int

const (
	// KindSuccess marks a fetched page ready for extraction and storage.
	KindSuccess Kind = iota

	// KindFollowRedirect instructs the engine to enqueue the redirect
	// target and keep the chain alive.
	KindFollowRedirect

	// KindRetry re-inserts the URL into the frontier after a backoff.
	KindRetry

	// KindDisallow marks the URL terminally blocked.
	KindDisallow

	// KindError marks the URL terminally failed at the transport level.
	KindError
)

// String returns a short identifier for the decision kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFollowRedirect:
		return "follow_redirect"
	case KindRetry:
		return "retry"
	case KindDisallow:
		return "disallow"
	case KindError:
		return "error"
	default:
		return "invalid"
	}
}

// Decision is the full outcome of classifying one fetch result.
type Decision struct {
	// Kind selects the engine action.
	Kind Kind

	// Class is the status class the result fell into.
	Class model.StatusClass

	// Badness is the health sample in [0, 1] for the domain tracker.
	Badness float64

	// Reason is a short human-readable explanation, persisted with
	// disallowed and errored URLs.
	Reason string

	// RedirectTarget is the raw Location value for KindFollowRedirect.
	RedirectTarget string

	// Backoff is the wait before the next attempt for KindRetry.
	Backoff time.Duration

	// DomainBackoff, when positive, pauses the whole domain, not just
	// this URL. Set for rate limiting responses.
	DomainBackoff time.Duration

	// DisallowChain, when true, extends the disallow verdict to every
	// URL on the redirect chain.
	DisallowChain bool
}

// Classifier applies the status-code policy. All thresholds come from the
// configuration; the classifier itself holds no tunable constants.
// It is not safe for concurrent use; the engine goroutine is the sole
// caller.
type Classifier struct {
	thresholds [model.NumStatusClasses]int
	baseDelay  time.Duration
	maxBackoff time.Duration

	// uniform returns a pseudo-random float64 in [0, 1). Replaceable in
	// tests for deterministic backoff checks.
	uniform func() float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRandom replaces the pseudo-random source used for backoff jitter.
func WithRandom(uniform func() float64) Option {
	return func(c *Classifier) {
		c.uniform = uniform
	}
}

// NewClassifier creates a Classifier. thresholds maps status-class names
// (see model.StatusClass.String) to attempt budgets; baseDelay seeds the
// exponential backoff; maxBackoff caps it.
func NewClassifier(thresholds map[string]int, baseDelay, maxBackoff time.Duration, opts ...Option) *Classifier {
	c := &Classifier{
		baseDelay:  baseDelay,
		maxBackoff: maxBackoff,
		uniform:    rand.Float64,
	}
	for class := model.StatusClass(0); class < model.NumStatusClasses; class++ {
		if n, ok := thresholds[class.String()]; ok {
			c.thresholds[class] = n
		} else {
			c.thresholds[class] = 3
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify inspects a fetch result, updates the record's retry counters
// and the redirect chain, and returns the decision. chain may be nil for
// results that cannot be redirects (the engine allocates one lazily).
func (c *Classifier) Classify(rec *model.URLRecord, res model.FetchResult, chain *model.RedirectChain) Decision {
	rec.LastStatus = res.Status

	if res.Err != nil {
		return c.transportFailure(rec, res)
	}

	switch {
	case res.Status >= 200 && res.Status < 300:
		return Decision{Kind: KindSuccess, Badness: 0}

	case res.Status >= 300 && res.Status < 400:
		return c.redirect(rec, res, chain)

	case res.Status == http.StatusBadRequest:
		return c.budgeted(rec, model.ClassBadRequest, 1.0, "HTTP 400", 0)

	case res.Status == http.StatusTooManyRequests:
		return c.rateLimited(rec, res)

	case res.Status >= 400 && res.Status < 500:
		return c.budgeted(rec, model.ClassClientError, 1.0,
			"HTTP "+strconv.Itoa(res.Status), 0)

	case res.Status >= 507 && res.Status <= 509:
		// Server-side resource exhaustion tends to clear slowly; retry on
		// a flat long delay rather than the doubling schedule.
		return c.budgeted(rec, model.ClassStorageFull, 0.75,
			"HTTP "+strconv.Itoa(res.Status), c.maxBackoff)

	case (res.Status >= 500 && res.Status <= 506) || res.Status == 599:
		return c.budgeted(rec, model.ClassServerError, 1.0,
			"HTTP "+strconv.Itoa(res.Status), 0)

	default:
		return c.budgeted(rec, model.ClassUnknown, 0.4,
			"unrecognized HTTP status "+strconv.Itoa(res.Status), 0)
	}
}

// transportFailure budgets failures below HTTP. Exhaustion ends in
// KindError rather than KindDisallow: the URL may be fine, we could not
// reach it.
func (c *Classifier) transportFailure(rec *model.URLRecord, res model.FetchResult) Decision {
	rec.Retries[model.ClassTransport]++
	d := Decision{
		Class:   model.ClassTransport,
		Badness: 1.0,
		Reason:  "transport failure: " + res.Err.Error(),
	}
	if rec.Retries[model.ClassTransport] >= c.thresholds[model.ClassTransport] {
		d.Kind = KindError
		return d
	}
	d.Kind = KindRetry
	d.Backoff = c.backoff(rec.Retries[model.ClassTransport])
	return d
}

// redirect records a hop and either follows it or declares a loop.
// Pure redirects carry no badness and touch no retry counter; only a loop
// or a malformed redirect counts against the domain.
func (c *Classifier) redirect(rec *model.URLRecord, res model.FetchResult, chain *model.RedirectChain) Decision {
	target := res.Location()
	if target == "" {
		return Decision{
			Kind:          KindDisallow,
			Badness:       1.0,
			Reason:        "redirect without Location",
			DisallowChain: true,
		}
	}
	if chain == nil || !chain.Push(rec.URL, res.Status) || chain.Contains(target) {
		return Decision{
			Kind:          KindDisallow,
			Badness:       1.0,
			Reason:        "redirect loop",
			DisallowChain: true,
		}
	}
	// The hop that fills the chain is the last one tolerated: once the
	// last RedirectChainLimit responses were all redirects, the chain is
	// treated as a loop, not followed further.
	if chain.Full() {
		return Decision{
			Kind:          KindDisallow,
			Badness:       1.0,
			Reason:        "redirect loop",
			DisallowChain: true,
		}
	}
	return Decision{
		Kind:           KindFollowRedirect,
		Badness:        0,
		RedirectTarget: target,
	}
}

// rateLimited handles HTTP 429: generous retry budget, half badness, and
// an immediate domain-wide pause honoring Retry-After when present.
func (c *Classifier) rateLimited(rec *model.URLRecord, res model.FetchResult) Decision {
	rec.Retries[model.ClassRateLimited]++

	pause := parseRetryAfter(res.RetryAfter())
	if pause <= 0 {
		pause = c.backoff(rec.Retries[model.ClassRateLimited])
	}
	if pause > c.maxBackoff {
		pause = c.maxBackoff
	}

	d := Decision{
		Class:         model.ClassRateLimited,
		Badness:       0.5,
		Reason:        "HTTP 429",
		DomainBackoff: pause,
	}
	if rec.Retries[model.ClassRateLimited] >= c.thresholds[model.ClassRateLimited] {
		d.Kind = KindDisallow
		return d
	}
	d.Kind = KindRetry
	d.Backoff = pause
	return d
}

// budgeted increments the class counter and retries until the budget is
// spent, then disallows. flatBackoff overrides the doubling schedule when
// positive.
func (c *Classifier) budgeted(rec *model.URLRecord, class model.StatusClass, badness float64, reason string, flatBackoff time.Duration) Decision {
	rec.Retries[class]++
	d := Decision{
		Class:   class,
		Badness: badness,
		Reason:  reason,
	}
	if rec.Retries[class] >= c.thresholds[class] {
		d.Kind = KindDisallow
		return d
	}
	d.Kind = KindRetry
	if flatBackoff > 0 {
		d.Backoff = flatBackoff
	} else {
		d.Backoff = c.backoff(rec.Retries[class])
	}
	return d
}

// backoff computes the jittered exponential delay for the nth attempt:
// base·2^n scaled by a factor drawn uniformly from [1/1.4, 1], capped at
// the configured maximum.
func (c *Classifier) backoff(attempt int) time.Duration {
	d := c.baseDelay
	for i := 0; i < attempt && d < c.maxBackoff; i++ {
		d *= 2
	}
	lo := float64(d) / 1.4
	jittered := time.Duration(lo + c.uniform()*(float64(d)-lo))
	if jittered > c.maxBackoff {
		return c.maxBackoff
	}
	return jittered
}

// parseRetryAfter interprets a Retry-After header value as either a
// non-negative number of seconds or an HTTP date. It returns 0 when the
// value is absent or unparsable.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
