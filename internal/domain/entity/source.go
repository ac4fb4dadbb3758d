package entity

import (
	"net/url"
	"strings"
)

// FeedSource is a feed URL plus its derived domain and a small set of
// mechanically generated alternate URLs to try when the primary URL fails.
// It is ephemeral: computed per fetch attempt, never persisted.
type FeedSource struct {
	URL        string
	Domain     string
	Alternates []string
}

// NewFeedSource derives a FeedSource from a raw URL. Alternates are the
// www/no-www toggle of the host plus any platform-specific feed-path
// guesses supplied by the caller (suffixes appended to the original URL).
func NewFeedSource(rawURL string, pathGuesses []string) FeedSource {
	src := FeedSource{URL: rawURL, Domain: DomainOf(rawURL)}

	if alt := toggleWWW(rawURL); alt != "" && alt != rawURL {
		src.Alternates = append(src.Alternates, alt)
	}
	for _, guess := range pathGuesses {
		candidate := strings.TrimSuffix(rawURL, "/") + guess
		if candidate != rawURL {
			src.Alternates = append(src.Alternates, candidate)
		}
	}
	return src
}

// Candidates returns the ordered list of URLs to attempt: the original
// URL first, then each alternate.
func (s FeedSource) Candidates() []string {
	out := make([]string, 0, 1+len(s.Alternates))
	out = append(out, s.URL)
	out = append(out, s.Alternates...)
	return out
}

// DomainOf extracts the lowercased host of a URL with any leading "www."
// stripped. It returns "" when the URL cannot be parsed or has no host.
// Rate limiting and circuit breaking key on this value so that www and
// apex variants of a host share state.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// toggleWWW flips the presence of a "www." prefix on the URL host.
func toggleWWW(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Host
	if strings.HasPrefix(host, "www.") {
		u.Host = strings.TrimPrefix(host, "www.")
	} else {
		u.Host = "www." + host
	}
	return u.String()
}
