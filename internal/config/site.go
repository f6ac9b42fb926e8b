package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// DomainConfig holds per-domain overrides loaded from the configuration
// file. Keys in File.Domains are bare lowercase hostnames.
type DomainConfig struct {
	// Delay overrides the effective crawl delay for this domain.
	// Zero means no override; the robots.txt delay and the global
	// domain delay apply as usual.
	Delay time.Duration `yaml:"-"`

	// Skip excludes the domain from crawling entirely. Its URLs are
	// recorded as disallowed when encountered.
	Skip bool `yaml:"skip,omitempty"`
}

// UnmarshalYAML decodes a domain override block. The delay field accepts
// Go duration strings such as "20s" or "1m30s".
func (d *DomainConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Delay string `yaml:"delay"`
		Skip  bool   `yaml:"skip"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	d.Skip = raw.Skip
	if raw.Delay != "" {
		delay, err := time.ParseDuration(raw.Delay)
		if err != nil {
			return err
		}
		d.Delay = delay
	}
	return nil
}

// File represents the structure of the .tuecrawl configuration file.
type File struct {
	// Seeds are initial URLs, merged with (and after) the --seeds flag.
	Seeds []string `yaml:"seeds,omitempty"`

	// TopicTerms are lowercase terms for the default relevance scorer.
	TopicTerms []string `yaml:"topicTerms,omitempty"`

	// Domains maps hostnames to their per-domain overrides.
	Domains map[string]DomainConfig `yaml:"domains,omitempty"`
}

// DomainConfigFor returns the overrides for a domain, or the zero value
// when the file declares none.
func (f *File) DomainConfigFor(domain string) DomainConfig {
	if f == nil || f.Domains == nil {
		return DomainConfig{}
	}
	return f.Domains[domain]
}
