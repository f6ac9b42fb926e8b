// Package config provides configuration structures and utilities for the
// crawler. It defines the politeness, resilience, and scheduling tunables,
// their defaults, validation, and the optional YAML configuration file that
// supplies seeds, topic terms, and per-domain overrides.
package config
