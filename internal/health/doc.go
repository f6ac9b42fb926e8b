// Package health tracks per-domain failure rates with an unbiased
// time-exponential moving average (UTEMA). Each fetch outcome contributes
// a badness sample in [0, 1]; the average decays with wall time so that a
// burst of old failures cannot ban a domain that has recovered. A domain
// is banned when its average exceeds the configured threshold after enough
// sample mass has accumulated.
package health
