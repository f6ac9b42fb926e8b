package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/classify"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/config"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/database"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/extract"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/fetch"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/frontier"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/health"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/model"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/robots"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/score"
	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/urlutil"
)

// idleWait is how long the loop sleeps when the frontier has work but no
// domain is ready for another fetch yet.
const idleWait = 200 * time.Millisecond

// seedScore is the relevance score assigned to seed URLs.
const seedScore = 1.0

// Engine coordinates one crawl. All fields are owned by the goroutine
// running Run; nothing else touches them.
type Engine struct {
	cfg        *config.Config
	store      *database.Store
	frontier   *frontier.Frontier
	dispatcher *fetch.Dispatcher
	classifier *classify.Classifier
	robots     *robots.Cache
	tracker    *health.Tracker
	scorer     score.Scorer
	logger     *slog.Logger

	domains map[string]*model.DomainRecord

	// chains carries redirect chains across batches, keyed by the URL
	// whose fetch continues the chain.
	chains map[string]*model.RedirectChain

	crawled int
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the default topic scorer.
func WithScorer(s score.Scorer) Option {
	return func(e *Engine) {
		e.scorer = s
	}
}

// New creates an Engine from a validated configuration and an open store.
// The store stays owned by the caller and is not closed by the engine.
func New(cfg *config.Config, store *database.Store, logger *slog.Logger, opts ...Option) (*Engine, error) {
	dispatcher, err := fetch.NewDispatcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:        cfg,
		store:      store,
		frontier:   frontier.New(store, cfg.MaxDepth),
		dispatcher: dispatcher,
		classifier: classify.NewClassifier(cfg.RetryThresholds, cfg.DomainDelay, cfg.MaxBackoff),
		robots:     robots.NewCache(dispatcher.Client(), cfg.UserAgent, cfg.RobotsDelay),
		tracker:    health.NewTracker(cfg.UTEMATau, cfg.UTEMAThreshold, cfg.UTEMAMinSamples),
		scorer:     score.NewTopicScorer(cfg.TopicTerms),
		logger:     logger,
		domains:    make(map[string]*model.DomainRecord),
		chains:     make(map[string]*model.RedirectChain),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the crawl until the frontier drains, the page limit is
// reached, or ctx is cancelled. On cancellation the current batch is
// drained and persisted before Run returns, so no dispatched fetch is
// lost. Domain state is flushed to the store in every case.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.bootstrap(ctx); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			e.logger.Info("crawl interrupted", "crawled", e.crawled, "pending", e.frontier.Len())
			break
		}
		if e.cfg.MaxPages > 0 && e.crawled >= e.cfg.MaxPages {
			e.logger.Info("page limit reached", "crawled", e.crawled)
			break
		}

		now := time.Now()
		batch := e.frontier.ReadBatch(e.cfg.BatchSize, now, func(domain string) bool {
			dom, ok := e.domains[domain]
			if !ok {
				return true
			}
			return !dom.Disallowed && !dom.NextFetch.After(now)
		})

		if len(batch) == 0 {
			if e.frontier.Len() == 0 {
				e.logger.Info("frontier drained", "crawled", e.crawled)
				break
			}
			sleep(ctx, idleWait)
			continue
		}

		e.crawlBatch(ctx, batch, now)
	}

	return e.flush(context.WithoutCancel(ctx))
}

// bootstrap restores persisted state and admits the configured seeds.
func (e *Engine) bootstrap(ctx context.Context) error {
	if e.cfg.FreshStart {
		if err := e.store.Reset(ctx); err != nil {
			return fmt.Errorf("fresh start: %w", err)
		}
	}

	pending, err := e.store.LoadFrontier(ctx)
	if err != nil {
		return err
	}
	seen, err := e.store.LoadSeenURLs(ctx)
	if err != nil {
		return err
	}
	e.frontier.Hydrate(pending, seen)

	domains, err := e.store.LoadDomains(ctx)
	if err != nil {
		return err
	}
	for _, dom := range domains {
		e.domains[dom.Domain] = dom
		if !dom.Disallowed {
			e.tracker.Restore(dom.Domain, dom.Health)
		}
	}
	if len(pending) > 0 || len(domains) > 0 {
		e.logger.Info("resumed crawl state",
			"pending", len(pending), "seen", len(seen), "domains", len(domains))
	}

	for _, seed := range e.cfg.Seeds {
		normalized, err := urlutil.Normalize(seed)
		if err != nil {
			e.logger.Warn("skipping malformed seed", "seed", seed, "err", err)
			continue
		}
		e.enqueue(ctx, normalized, "", 0, seedScore)
	}
	return nil
}

// crawlBatch gates a batch through the domain configuration and
// robots.txt, fetches the survivors, and applies every result. Results
// are drained on a persistence context detached from ctx so shutdown
// cannot interrupt a write.
func (e *Engine) crawlBatch(ctx context.Context, batch []*model.URLRecord, now time.Time) {
	persist := context.WithoutCancel(ctx)

	var urls []string
	recs := make(map[string]*model.URLRecord, len(batch))
	for _, rec := range batch {
		override := e.cfg.DomainOverrides.DomainConfigFor(rec.Domain)
		if override.Skip {
			e.markDisallowed(persist, rec.URL, rec.Domain, "domain excluded by configuration")
			continue
		}

		policy := e.robots.Policy(persist, rec.Domain)
		if !policy.Allowed(pathOf(rec.URL)) {
			e.markDisallowed(persist, rec.URL, rec.Domain, "blocked by robots.txt")
			continue
		}

		dom := e.domain(rec.Domain)
		dom.CrawlDelay = max(e.cfg.DomainDelay, policy.CrawlDelay(), override.Delay)
		dom.NextFetch = now.Add(dom.CrawlDelay)
		rec.LastAttempt = now

		urls = append(urls, rec.URL)
		recs[rec.URL] = rec
	}
	if len(urls) == 0 {
		return
	}

	for res := range e.dispatcher.FetchBatch(ctx, urls) {
		e.handle(persist, recs[res.URL], res)
	}
}

// handle classifies one fetch result and applies the decision.
func (e *Engine) handle(ctx context.Context, rec *model.URLRecord, res model.FetchResult) {
	chain := e.chains[rec.URL]
	delete(e.chains, rec.URL)
	if chain == nil {
		chain = &model.RedirectChain{}
	}

	d := e.classifier.Classify(rec, res, chain)
	avg := e.tracker.Observe(rec.Domain, d.Badness, time.Now())
	e.logger.Debug("classified fetch",
		"url", rec.URL, "status", res.Status, "kind", d.Kind.String(),
		"class", d.Class.String(), "domain_badness", avg)

	// A domain pause applies whatever happens to the URL itself: the last
	// 429 before a URL's budget runs out still carries a Retry-After the
	// rest of the domain must honor.
	if d.DomainBackoff > 0 {
		dom := e.domain(rec.Domain)
		paused := time.Now().Add(d.DomainBackoff)
		if paused.After(dom.NextFetch) {
			dom.NextFetch = paused
		}
	}

	switch d.Kind {
	case classify.KindSuccess:
		e.success(ctx, rec, res)

	case classify.KindFollowRedirect:
		e.followRedirect(ctx, rec, d, chain)

	case classify.KindRetry:
		if err := e.frontier.Requeue(ctx, rec, time.Now().Add(d.Backoff)); err != nil {
			e.logger.Error("requeue failed", "url", rec.URL, "err", err)
		}

	case classify.KindDisallow:
		if d.DisallowChain {
			e.disallowChain(ctx, rec, d.Reason, chain)
		} else {
			e.markDisallowed(ctx, rec.URL, rec.Domain, d.Reason)
		}

	case classify.KindError:
		if err := e.store.MarkErrored(ctx, rec.URL, d.Reason); err != nil {
			e.logger.Error("failed to record errored URL", "url", rec.URL, "err", err)
		}
	}

	if e.tracker.ShouldBan(rec.Domain) {
		e.banDomain(ctx, rec.Domain, avg)
	}
}

// success extracts, scores, and persists a fetched page, then enqueues
// its outbound links. A non-HTML or unparsable body still counts as
// crawled; the failure is recorded as a diagnostic.
func (e *Engine) success(ctx context.Context, rec *model.URLRecord, res model.FetchResult) {
	var page model.Page
	var pageScore float64

	base, err := url.Parse(rec.URL)
	if err == nil {
		page, err = extract.Extract(res.Body, res.ContentType, base)
	}
	if err != nil {
		if recErr := e.store.RecordError(ctx, rec.URL, "extraction failed: "+err.Error()); recErr != nil {
			e.logger.Error("failed to record extraction error", "url", rec.URL, "err", recErr)
		}
		page = model.Page{}
	} else {
		pageScore = e.scorer.Score(page.Title, page.Text)
	}

	if err := e.store.MarkCrawled(ctx, database.CrawledPage{
		URL:        rec.URL,
		Domain:     rec.Domain,
		Title:      page.Title,
		Text:       page.Text,
		Score:      pageScore,
		StatusCode: res.Status,
	}); err != nil {
		e.logger.Error("failed to persist crawled page", "url", rec.URL, "err", err)
		return
	}
	e.crawled++
	e.logger.Info("crawled page",
		"url", rec.URL, "score", pageScore, "links", len(page.Links), "depth", rec.Depth)

	childScore := pageScore
	if pageScore < e.cfg.AcceptScore {
		childScore = 0
	}
	for _, link := range page.Links {
		e.enqueue(ctx, link, rec.URL, rec.Depth+1, childScore)
	}
}

// followRedirect hands the record's pending work over to the redirect
// target, carrying the chain so loops spanning batches are still caught.
// The origin gets a terminal verdict naming the target, so a resumed
// crawl treats it as resolved and never fetches it again.
func (e *Engine) followRedirect(ctx context.Context, rec *model.URLRecord, d classify.Decision, chain *model.RedirectChain) {
	base, _ := url.Parse(rec.URL)
	target, err := urlutil.ResolveAndNormalize(base, d.RedirectTarget)
	if err != nil {
		e.markDisallowed(ctx, rec.URL, rec.Domain, "malformed redirect target")
		return
	}

	// The classifier compares raw Location values; a loop through relative
	// redirects only shows up once the target is normalized.
	if chain.Contains(target) {
		e.disallowChain(ctx, rec, "redirect loop", chain)
		return
	}

	targetDomain, err := urlutil.Domain(target)
	if err != nil {
		e.markDisallowed(ctx, rec.URL, rec.Domain, "malformed redirect target")
		return
	}

	// The same domain gates that enqueue applies: a redirect must not
	// smuggle a URL of a banned or excluded domain into the frontier,
	// where no batch would ever release it.
	if dom, ok := e.domains[targetDomain]; ok && dom.Disallowed {
		e.markDisallowed(ctx, rec.URL, rec.Domain, "redirect into banned domain")
		return
	}
	if e.cfg.DomainOverrides.DomainConfigFor(targetDomain).Skip {
		e.markDisallowed(ctx, rec.URL, rec.Domain, "redirect into excluded domain")
		return
	}

	e.markDisallowed(ctx, rec.URL, rec.Domain, "redirected to "+target)

	trec := &model.URLRecord{
		URL:       target,
		Domain:    targetDomain,
		Depth:     rec.Depth,
		Score:     rec.Score,
		ParentURL: rec.URL,
	}
	added, err := e.frontier.Add(ctx, trec)
	if err != nil {
		e.logger.Error("failed to enqueue redirect target", "url", target, "err", err)
		return
	}
	if added {
		e.chains[target] = chain
	}
}

// enqueue admits a discovered URL unless its domain is banned or skipped.
func (e *Engine) enqueue(ctx context.Context, link, parent string, depth int, linkScore float64) {
	domain, err := urlutil.Domain(link)
	if err != nil {
		return
	}
	if dom, ok := e.domains[domain]; ok && dom.Disallowed {
		return
	}
	if e.cfg.DomainOverrides.DomainConfigFor(domain).Skip {
		return
	}

	rec := &model.URLRecord{
		URL:       link,
		Domain:    domain,
		Depth:     depth,
		Score:     linkScore,
		ParentURL: parent,
	}
	if _, err := e.frontier.Add(ctx, rec); err != nil {
		e.logger.Error("failed to enqueue URL", "url", link, "err", err)
	}
}

// banDomain runs the ban cascade: drop and disallow all pending work for
// the domain, persist the ban, and release the domain's cached state.
func (e *Engine) banDomain(ctx context.Context, domain string, avg float64) {
	e.logger.Warn("banning broken domain", "domain", domain, "badness", avg)

	dropped, err := e.frontier.DropDomain(ctx, domain)
	if err != nil {
		e.logger.Error("failed to drop banned domain's frontier", "domain", domain, "err", err)
	}
	for _, rec := range dropped {
		e.markDisallowed(ctx, rec.URL, domain, "domain banned after repeated failures")
	}

	dom := e.domain(domain)
	if state, ok := e.tracker.State(domain); ok {
		dom.Health = state
	}
	dom.Disallowed = true
	if err := e.store.UpsertDomain(ctx, dom); err != nil {
		e.logger.Error("failed to persist domain ban", "domain", domain, "err", err)
	}

	e.robots.Forget(domain)
	e.tracker.Forget(domain)
}

// disallowChain writes a disallow verdict for a record and every hop on
// its redirect chain.
func (e *Engine) disallowChain(ctx context.Context, rec *model.URLRecord, reason string, chain *model.RedirectChain) {
	e.markDisallowed(ctx, rec.URL, rec.Domain, reason)
	for _, hop := range chain.Hops() {
		if hop.URL == rec.URL {
			continue
		}
		hopDomain, err := urlutil.Domain(hop.URL)
		if err != nil {
			continue
		}
		e.frontier.MarkSeen(hop.URL)
		e.markDisallowed(ctx, hop.URL, hopDomain, reason)
	}
}

// flush persists every domain record, folding in the tracker's latest
// health state.
func (e *Engine) flush(ctx context.Context) error {
	for _, dom := range e.domains {
		if state, ok := e.tracker.State(dom.Domain); ok {
			dom.Health = state
		}
		if err := e.store.UpsertDomain(ctx, dom); err != nil {
			return fmt.Errorf("failed to flush domain state: %w", err)
		}
	}
	return nil
}

// markDisallowed writes a terminal disallow verdict.
func (e *Engine) markDisallowed(ctx context.Context, url, domain, reason string) {
	if err := e.store.MarkDisallowed(ctx, url, domain, reason); err != nil {
		e.logger.Error("failed to record disallowed URL", "url", url, "err", err)
	}
}

// domain returns the scheduling record for a domain, creating it on
// first sight.
func (e *Engine) domain(name string) *model.DomainRecord {
	if dom, ok := e.domains[name]; ok {
		return dom
	}
	dom := &model.DomainRecord{Domain: name, CrawlDelay: e.cfg.DomainDelay}
	e.domains[name] = dom
	return dom
}

// pathOf extracts the path component for robots.txt matching.
func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "/"
	}
	return u.Path
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
