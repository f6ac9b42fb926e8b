package frontier

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/model"
)

// depthPenaltyStep is the per-hop priority discount. A URL five hops from
// a seed keeps 75% of its score; thirty hops zero it out entirely.
const depthPenaltyStep = 0.05

// Storage is the subset of the crawl store the frontier writes through
// to. Satisfied by *database.Store.
type Storage interface {
	UpsertFrontier(ctx context.Context, rec *model.URLRecord) error
	DeleteFrontierDomain(ctx context.Context, domain string) error
}

// Frontier is the in-memory priority queue over pending URL records.
// It is not safe for concurrent use; the engine goroutine is the sole
// caller.
type Frontier struct {
	store    Storage
	heap     itemHeap
	seen     map[string]struct{}
	byDomain map[string]int
	maxDepth int
}

// New creates an empty Frontier writing through to store. maxDepth caps
// the link distance of admitted URLs; deeper discoveries are dropped.
func New(store Storage, maxDepth int) *Frontier {
	return &Frontier{
		store:    store,
		seen:     make(map[string]struct{}),
		byDomain: make(map[string]int),
		maxDepth: maxDepth,
	}
}

// Hydrate installs state loaded from the store: the pending records and
// the full seen set. Called once before the crawl loop starts.
func (f *Frontier) Hydrate(pending []*model.URLRecord, seen map[string]struct{}) {
	for url := range seen {
		f.seen[url] = struct{}{}
	}
	for _, rec := range pending {
		f.seen[rec.URL] = struct{}{}
		f.push(rec, time.Time{})
	}
}

// Add admits a new URL. It returns false without error when the URL was
// already seen (in any state) or lies beyond the depth limit; such URLs
// are silently dropped. An admitted URL is persisted before Add returns.
func (f *Frontier) Add(ctx context.Context, rec *model.URLRecord) (bool, error) {
	if _, dup := f.seen[rec.URL]; dup {
		return false, nil
	}
	if rec.Depth > f.maxDepth {
		return false, nil
	}
	if rec.FirstSeen.IsZero() {
		rec.FirstSeen = time.Now()
	}
	rec.State = model.StatePending

	if err := f.store.UpsertFrontier(ctx, rec); err != nil {
		return false, fmt.Errorf("frontier add: %w", err)
	}
	f.seen[rec.URL] = struct{}{}
	f.push(rec, time.Time{})
	return true, nil
}

// Requeue re-inserts a record after a retryable failure. notBefore delays
// the next attempt; the record keeps its dedup identity and its updated
// retry counters are persisted.
func (f *Frontier) Requeue(ctx context.Context, rec *model.URLRecord, notBefore time.Time) error {
	if err := f.store.UpsertFrontier(ctx, rec); err != nil {
		return fmt.Errorf("frontier requeue: %w", err)
	}
	f.seen[rec.URL] = struct{}{}
	f.push(rec, notBefore)
	return nil
}

// MarkSeen records a URL in the dedup set without queueing it. Used for
// URLs that go terminal without ever entering the frontier, such as
// robots-blocked discoveries.
func (f *Frontier) MarkSeen(url string) {
	f.seen[url] = struct{}{}
}

// Seen reports whether a URL is known in any state.
func (f *Frontier) Seen(url string) bool {
	_, ok := f.seen[url]
	return ok
}

// ReadBatch removes and returns up to n pending records, highest priority
// first, with at most one record per domain. eligible filters domains;
// records whose domain is ineligible, already represented in the batch,
// or whose retry delay has not elapsed stay queued for later rounds.
func (f *Frontier) ReadBatch(n int, now time.Time, eligible func(domain string) bool) []*model.URLRecord {
	var batch []*model.URLRecord
	var skipped []*item
	inBatch := make(map[string]struct{})

	for len(batch) < n && f.heap.Len() > 0 {
		it := heap.Pop(&f.heap).(*item)

		if _, taken := inBatch[it.rec.Domain]; taken {
			skipped = append(skipped, it)
			continue
		}
		if !it.readyAt.IsZero() && it.readyAt.After(now) {
			skipped = append(skipped, it)
			continue
		}
		if eligible != nil && !eligible(it.rec.Domain) {
			skipped = append(skipped, it)
			continue
		}

		inBatch[it.rec.Domain] = struct{}{}
		f.byDomain[it.rec.Domain]--
		batch = append(batch, it.rec)
	}

	for _, it := range skipped {
		heap.Push(&f.heap, it)
	}
	return batch
}

// DropDomain removes every pending record for a domain, both in memory
// and in the store, and returns the removed records so the engine can
// write their terminal verdicts. Part of the ban cascade.
func (f *Frontier) DropDomain(ctx context.Context, domain string) ([]*model.URLRecord, error) {
	if f.byDomain[domain] == 0 {
		return nil, nil
	}

	var dropped []*model.URLRecord
	kept := f.heap[:0]
	for _, it := range f.heap {
		if it.rec.Domain == domain {
			dropped = append(dropped, it.rec)
		} else {
			kept = append(kept, it)
		}
	}
	f.heap = kept
	heap.Init(&f.heap)
	f.byDomain[domain] = 0

	if err := f.store.DeleteFrontierDomain(ctx, domain); err != nil {
		return dropped, fmt.Errorf("frontier drop domain: %w", err)
	}
	return dropped, nil
}

// Len returns the number of queued records.
func (f *Frontier) Len() int {
	return f.heap.Len()
}

// PendingDomains returns the number of distinct domains with queued work.
func (f *Frontier) PendingDomains() int {
	n := 0
	for _, c := range f.byDomain {
		if c > 0 {
			n++
		}
	}
	return n
}

func (f *Frontier) push(rec *model.URLRecord, readyAt time.Time) {
	heap.Push(&f.heap, &item{
		rec:      rec,
		priority: priority(rec),
		readyAt:  readyAt,
	})
	f.byDomain[rec.Domain]++
}

// priority applies the depth penalty to the relevance score. Older
// first-seen times break ties so the queue stays roughly FIFO within a
// score band.
func priority(rec *model.URLRecord) float64 {
	penalty := 1 - depthPenaltyStep*float64(rec.Depth)
	if penalty < 0 {
		penalty = 0
	}
	return rec.Score * penalty
}

// item is a heap entry.
type item struct {
	rec      *model.URLRecord
	priority float64
	readyAt  time.Time
	index    int
}

// itemHeap is a max-heap over items ordered by priority, then age.
type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].rec.FirstSeen.Before(h[j].rec.FirstSeen)
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x any) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
