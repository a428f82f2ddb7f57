package ingest

import (
	"embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all data sources. Order matters:
// the aggregator merges results in registry order, and deduplication
// keeps the first occurrence of a title.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig defines one upstream site: where to fetch, how to locate
// content blocks, and the per-source field-derivation rules. Everything
// that used to be branching logic in three near-identical scrapers lives
// here as data.
type SourceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Domain   string `yaml:"domain"`   // emitted as the record's source, and the stats key
	Origin   string `yaml:"origin"`   // scheme+host used to absolutize site-relative links
	BaseURL  string `yaml:"base_url"`
	Strategy string `yaml:"strategy"` // "listing" or "settlement_detail"
	MaxItems int    `yaml:"max_items"`

	// Seconds between consecutive requests to this source's host.
	PolitenessDelaySeconds int `yaml:"politeness_delay_seconds,omitempty"`

	Locator LocatorConfig `yaml:"locator,omitempty"`
	Fields  FieldConfig   `yaml:"fields"`
	Claim   ClaimConfig   `yaml:"claim,omitempty"`
}

// LocatorConfig carries the two-tier block matching patterns. The
// primary pattern matches class attributes; the fallback matches anchor
// hrefs when upstream markup drifted away from the primary.
type LocatorConfig struct {
	BlockClassPattern   string `yaml:"block_class_pattern"`
	FallbackHrefPattern string `yaml:"fallback_href_pattern"`
}

// FieldConfig is the per-source rule table for field derivation. Static
// editorial fields (difficulty, urgency, value) are fixed per source,
// never computed from content.
type FieldConfig struct {
	TitlePrefix         string           `yaml:"title_prefix,omitempty"`
	RelevanceWords      []string         `yaml:"relevance_words,omitempty"`
	Category            string           `yaml:"category"`
	CategoryBuckets     []CategoryBucket `yaml:"category_buckets,omitempty"`
	DeriveAmount        bool             `yaml:"derive_amount,omitempty"`
	DeriveRemedy        bool             `yaml:"derive_remedy,omitempty"`
	Deadline            string           `yaml:"deadline"`
	Difficulty          string           `yaml:"difficulty"`
	Urgency             string           `yaml:"urgency"`
	UrgencyDays         int              `yaml:"urgency_days"`
	Value               string           `yaml:"value"`
	FallbackDescription string           `yaml:"fallback_description"`
}

// CategoryBucket is one entry of an ordered keyword table. Bucket order
// is part of the contract: the first bucket whose keyword list
// intersects the title wins.
type CategoryBucket struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// ClaimConfig drives settlement enumeration and claim-URL resolution.
// The suffix/verb heuristic is deliberately conservative; both lists are
// configuration so precision/recall can be tuned without a release.
type ClaimConfig struct {
	ListingLinkContains string   `yaml:"listing_link_contains"`
	DomainSuffixes      []string `yaml:"domain_suffixes"`
	ActionWords         []string `yaml:"action_words"`
}

// LocatorRules is a LocatorConfig with its patterns compiled.
type LocatorRules struct {
	BlockClass   *regexp.Regexp
	FallbackHref *regexp.Regexp
}

// CompileLocator validates and compiles the locator patterns. Class
// matching is case-insensitive; href shapes are matched verbatim.
func (c SourceConfig) CompileLocator() (LocatorRules, error) {
	if c.Locator.BlockClassPattern == "" || c.Locator.FallbackHrefPattern == "" {
		return LocatorRules{}, fmt.Errorf("source %s: locator patterns are required for the listing strategy", c.ID)
	}

	block, err := regexp.Compile("(?i)" + c.Locator.BlockClassPattern)
	if err != nil {
		return LocatorRules{}, fmt.Errorf("source %s: block_class_pattern: %w", c.ID, err)
	}
	href, err := regexp.Compile(c.Locator.FallbackHrefPattern)
	if err != nil {
		return LocatorRules{}, fmt.Errorf("source %s: fallback_href_pattern: %w", c.ID, err)
	}

	return LocatorRules{BlockClass: block, FallbackHref: href}, nil
}

// LoadRegistry reads the embedded sources.yaml and returns a Registry.
// A non-empty path overrides the embedded copy for local experiments.
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if path != "" {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, err
	}

	for i, src := range reg.Sources {
		if src.ID == "" || src.Domain == "" || src.BaseURL == "" || src.Strategy == "" {
			return nil, fmt.Errorf("source %d: id, domain, base_url and strategy are required", i)
		}
		if src.Strategy == "listing" {
			if _, err := src.CompileLocator(); err != nil {
				return nil, err
			}
		}
	}

	return &reg, nil
}
