// Package platform holds the platform-specific heuristics of the engine:
// aggregator link rewriting, URL-shape identity extraction, and feed-path
// guesses. The rules are data, loadable from a YAML file, so new platforms
// can be added without touching the precedence logic.
package platform

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule describes one platform (typically a link aggregator).
type Rule struct {
	// Name identifies the platform in logs and rule files.
	Name string `yaml:"name"`

	// IDPrefix prefixes identifiers extracted for this platform.
	IDPrefix string `yaml:"id_prefix"`

	// Domains are the hosts (apex, matched with subdomains) that belong
	// to the platform itself.
	Domains []string `yaml:"domains"`

	// MediaSubdomains are hosts serving the platform's own media; links
	// to them never count as the "external" URL during link rewriting.
	MediaSubdomains []string `yaml:"media_subdomains"`

	// IDPatterns are regexps with one capture group, tried against an
	// entry's link to extract the platform's post identifier.
	IDPatterns []string `yaml:"id_patterns"`

	// GUIDTail is a regexp with one capture group extracting an
	// identifier tail from the raw guid when no link pattern matched.
	GUIDTail string `yaml:"guid_tail"`

	// FeedPathGuesses are suffixes appended to a platform URL to guess
	// its feed location (alternate-URL generation).
	FeedPathGuesses []string `yaml:"feed_path_guesses"`

	idPatterns []*regexp.Regexp
	guidTail   *regexp.Regexp
}

// Rules is the full ordered platform rule set.
type Rules struct {
	Platforms []*Rule `yaml:"platforms"`
}

// DefaultRules returns the built-in rule set. Currently the only shipped
// platform is the reddit-style aggregator the engine was tuned against.
func DefaultRules() *Rules {
	r := &Rules{
		Platforms: []*Rule{
			{
				Name:     "reddit",
				IDPrefix: "reddit",
				Domains:  []string{"reddit.com", "redd.it"},
				MediaSubdomains: []string{
					"i.redd.it", "v.redd.it", "preview.redd.it", "external-preview.redd.it",
				},
				IDPatterns: []string{
					`reddit\.com/r/[^/]+/comments/([a-z0-9]+)`,
					`reddit\.com/comments/([a-z0-9]+)`,
					`redd\.it/([a-z0-9]+)`,
				},
				GUIDTail:        `t3_([a-z0-9]+)$`,
				FeedPathGuesses: []string{".rss"},
			},
		},
	}
	if err := r.compile(); err != nil {
		// Built-in patterns are covered by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return r
}

// LoadRules reads a YAML rule file and compiles its patterns.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("read platform rules: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse platform rules: %w", err)
	}
	if err := rules.compile(); err != nil {
		return nil, err
	}
	return &rules, nil
}

func (r *Rules) compile() error {
	for _, p := range r.Platforms {
		p.idPatterns = p.idPatterns[:0]
		for _, pattern := range p.IDPatterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return fmt.Errorf("platform %s: id pattern %q: %w", p.Name, pattern, err)
			}
			p.idPatterns = append(p.idPatterns, re)
		}
		if p.GUIDTail != "" {
			re, err := regexp.Compile(p.GUIDTail)
			if err != nil {
				return fmt.Errorf("platform %s: guid tail %q: %w", p.Name, p.GUIDTail, err)
			}
			p.guidTail = re
		}
	}
	return nil
}

// RuleFor returns the platform rule owning the URL's host, or nil.
func (r *Rules) RuleFor(rawURL string) *Rule {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}
	for _, p := range r.Platforms {
		if p.OwnsHost(host) {
			return p
		}
	}
	return nil
}

// FeedPathGuesses returns the feed-path suffixes to try for a URL, based
// on the platform owning its host. Non-platform URLs get no guesses.
func (r *Rules) FeedPathGuesses(rawURL string) []string {
	if rule := r.RuleFor(rawURL); rule != nil {
		return rule.FeedPathGuesses
	}
	return nil
}

// OwnsHost reports whether the host belongs to the platform, including its
// media subdomains.
func (p *Rule) OwnsHost(host string) bool {
	return matchesAny(host, p.Domains) || matchesAny(host, p.MediaSubdomains)
}

// IsMediaHost reports whether the host is one of the platform's media
// subdomains.
func (p *Rule) IsMediaHost(host string) bool {
	return matchesAny(host, p.MediaSubdomains)
}

func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
