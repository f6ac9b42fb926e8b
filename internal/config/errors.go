package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() so callers can match them with
// errors.Is() while still printing a clear message. Validation stops at
// the first problem; fixing one error often makes others irrelevant.
var (
	// ErrInvalidMaxWorkers is returned when the worker count is not positive.
	ErrInvalidMaxWorkers = errors.New("invalid max workers: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidTimeout is returned when a fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when a politeness delay is negative.
	// Use 0 for no delay.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body size limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidUTEMATau is returned when the health decay constant is not positive.
	ErrInvalidUTEMATau = errors.New("invalid utema tau: must be positive")

	// ErrInvalidUTEMAThreshold is returned when the ban threshold is outside (0, 1].
	ErrInvalidUTEMAThreshold = errors.New("invalid utema threshold: must be in (0, 1]")

	// ErrInvalidUTEMAMinSamples is returned when the minimum observation count is negative.
	ErrInvalidUTEMAMinSamples = errors.New("invalid utema min samples: must be non-negative")

	// ErrInvalidRetryThreshold is returned when a retry budget is not positive.
	ErrInvalidRetryThreshold = errors.New("invalid retry threshold: must be positive")

	// ErrUnknownStatusClass is returned when the retry threshold map names
	// a status class the classifier does not know.
	ErrUnknownStatusClass = errors.New("unknown status class in retry thresholds")

	// ErrInvalidProxyURL is returned when the proxy URL cannot be parsed or
	// uses an unsupported scheme. Supported: socks5, http, https.
	ErrInvalidProxyURL = errors.New("invalid proxy URL: expected socks5://, http://, or https://")

	// ErrNoSeeds is returned when a fresh crawl is started without seeds
	// from flags or the configuration file.
	ErrNoSeeds = errors.New("no seed URLs: provide --seeds, --seed-file, or a config file")
)
