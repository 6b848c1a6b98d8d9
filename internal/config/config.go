// Package config carries every tunable knob of the discovery and
// collection pipeline. The confidence-scoring constants in particular
// are empirically tuned and deliberately live here rather than as
// literals, so they can be recalibrated against real fixtures without
// touching pipeline code.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use values like
// "2s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// HTTP controls the shared fetch client. Domain existence checks use
// the shortest timeout, path probing a middle one, and feed content
// fetches the longest.
type HTTP struct {
	UserAgent     string   `yaml:"user_agent"`
	DomainTimeout Duration `yaml:"domain_timeout"`
	ProbeTimeout  Duration `yaml:"probe_timeout"`
	FetchTimeout  Duration `yaml:"fetch_timeout"`
	MaxRedirects  int      `yaml:"max_redirects"`
	MaxBodyBytes  int64    `yaml:"max_body_bytes"`
}

// Scoring holds the feed classifier's confidence model.
type Scoring struct {
	Base           float64 `yaml:"base"`
	ICalFloor      float64 `yaml:"ical_floor"`
	ICalKeyword    float64 `yaml:"ical_keyword"`
	RSSFloor       float64 `yaml:"rss_floor"`
	RSSKeyword     float64 `yaml:"rss_keyword"`
	JSONFloor      float64 `yaml:"json_floor"`
	JSONKeyword    float64 `yaml:"json_keyword"`
	HTMLFloor      float64 `yaml:"html_floor"`
	GovBoost       float64 `yaml:"gov_boost"`
	CalendarURLMin float64 `yaml:"calendar_url_min"`
	DefaultMin     float64 `yaml:"default_min"`
}

// Discovery bounds the domain and path probing phases.
type Discovery struct {
	MaxCandidatesPerDomain int   `yaml:"max_candidates_per_domain"`
	MinWebsiteBytes        int64 `yaml:"min_website_bytes"`
}

// Collection controls the orchestrator's batching and the parsers'
// output caps.
type Collection struct {
	BatchSize        int      `yaml:"batch_size"`
	BatchDelay       Duration `yaml:"batch_delay"`
	MaxEventsPerFeed int      `yaml:"max_events_per_feed"`
}

// Extractor bounds the HTML heuristic extractor.
type Extractor struct {
	MaxEventsPerPage int `yaml:"max_events_per_page"`
	HorizonYears     int `yaml:"horizon_years"`
	Occurrences      int `yaml:"occurrences"`
}

// Config is the full pipeline configuration.
type Config struct {
	HTTP       HTTP       `yaml:"http"`
	Scoring    Scoring    `yaml:"scoring"`
	Discovery  Discovery  `yaml:"discovery"`
	Collection Collection `yaml:"collection"`
	Extractor  Extractor  `yaml:"extractor"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTP{
			UserAgent:     "civiccal/1.0 (public calendar aggregator)",
			DomainTimeout: Duration(5 * time.Second),
			ProbeTimeout:  Duration(8 * time.Second),
			FetchTimeout:  Duration(15 * time.Second),
			MaxRedirects:  5,
			MaxBodyBytes:  2 << 20, // 2 MiB
		},
		Scoring: Scoring{
			Base:           0.3,
			ICalFloor:      0.85,
			ICalKeyword:    0.95,
			RSSFloor:       0.75,
			RSSKeyword:     0.85,
			JSONFloor:      0.7,
			JSONKeyword:    0.75,
			HTMLFloor:      0.5,
			GovBoost:       0.2,
			CalendarURLMin: 0.6,
			DefaultMin:     0.5,
		},
		Discovery: Discovery{
			MaxCandidatesPerDomain: 20,
			MinWebsiteBytes:        512,
		},
		Collection: Collection{
			BatchSize:        5,
			BatchDelay:       Duration(2 * time.Second),
			MaxEventsPerFeed: 10,
		},
		Extractor: Extractor{
			MaxEventsPerPage: 10,
			HorizonYears:     2,
			Occurrences:      3,
		},
	}
}

// Load reads a YAML config file over the defaults. Keys absent from
// the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
