package health

import (
	"math"
	"time"

	"github.com/StephenTaf/Modern-Search-Engines-Project/internal/model"
)

// Tracker maintains the time-decayed badness average per domain.
// It is not safe for concurrent use; the engine goroutine is the sole
// caller. Updates follow the unbiased time-exponential moving average
// recurrence of Menth and Hauser:
//
//	S ← e^(−Δt/τ)·S + x
//	N ← e^(−Δt/τ)·N + 1
//	A = S/N
//
// where Δt is the time since the previous sample for the same domain.
// The first sample for a domain initializes S = x and N = 1.
type Tracker struct {
	tau        time.Duration
	threshold  float64
	minSamples int
	domains    map[string]model.HealthState

	// counts holds raw observation counts per domain. The decayed mass
	// saturates at 1/(1−e^(−Δ/τ)) under steady fetch spacing Δ, so it
	// cannot gate the ban; the raw count grows without bound.
	counts map[string]int
}

// NewTracker creates a Tracker. tau is the decay time constant, threshold
// the badness average that marks a domain as broken, and minSamples the
// number of observations required before ShouldBan may report true.
func NewTracker(tau time.Duration, threshold float64, minSamples int) *Tracker {
	return &Tracker{
		tau:        tau,
		threshold:  threshold,
		minSamples: minSamples,
		domains:    make(map[string]model.HealthState),
		counts:     make(map[string]int),
	}
}

// Observe records a badness sample for the domain at the given time and
// returns the updated average. Samples outside [0, 1] are clamped.
// Observations must arrive in non-decreasing time order per domain; a
// stale timestamp is treated as zero elapsed time.
func (t *Tracker) Observe(domain string, sample float64, now time.Time) float64 {
	sample = math.Max(0, math.Min(1, sample))
	t.counts[domain]++

	s, ok := t.domains[domain]
	if !ok {
		s = model.HealthState{Sum: sample, Mass: 1, LastSeen: now}
		t.domains[domain] = s
		return s.Average()
	}

	dt := now.Sub(s.LastSeen)
	if dt < 0 {
		dt = 0
	}
	decay := math.Exp(-dt.Seconds() / t.tau.Seconds())
	s.Sum = decay*s.Sum + sample
	s.Mass = decay*s.Mass + 1
	s.LastSeen = now
	t.domains[domain] = s
	return s.Average()
}

// ShouldBan reports whether the domain's badness average exceeds the
// threshold with at least the minimum number of observations behind it.
// The count requirement keeps one early failure from condemning a fresh
// domain.
func (t *Tracker) ShouldBan(domain string) bool {
	s, ok := t.domains[domain]
	if !ok {
		return false
	}
	return t.counts[domain] >= t.minSamples && s.Average() > t.threshold
}

// State returns the persistable health state for a domain and whether the
// domain has been observed at all.
func (t *Tracker) State(domain string) (model.HealthState, bool) {
	s, ok := t.domains[domain]
	return s, ok
}

// Restore installs previously persisted health state for a domain. Used
// when resuming a crawl. The observation count is seeded from the decayed
// mass, the only record of past samples that survives a restart.
func (t *Tracker) Restore(domain string, s model.HealthState) {
	t.domains[domain] = s
	t.counts[domain] = int(s.Mass + 0.5)
}

// Forget drops all state for a domain. Called after a ban, when the
// domain's history no longer matters.
func (t *Tracker) Forget(domain string) {
	delete(t.domains, domain)
	delete(t.counts, domain)
}

// Domains returns the domains with recorded state, in no particular order.
func (t *Tracker) Domains() []string {
	out := make([]string, 0, len(t.domains))
	for d := range t.domains {
		out = append(out, d)
	}
	return out
}
