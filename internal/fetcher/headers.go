package fetcher

import "sync/atomic"

// HeaderProvider supplies the request headers for a fetch. It covers
// content negotiation only; conditional-request headers are attached by the
// fetch pipeline from the cache.
type HeaderProvider interface {
	HeadersFor(url string) map[string]string
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
}

const acceptFeeds = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1"

// RotatingHeaderProvider rotates through a user-agent pool per request,
// which spreads fetches across identities against hosts that throttle by
// user agent.
type RotatingHeaderProvider struct {
	userAgents []string
	next       atomic.Uint64
}

// NewRotatingHeaderProvider creates a provider over the given user agents,
// falling back to the built-in pool when none are supplied.
func NewRotatingHeaderProvider(userAgents ...string) *RotatingHeaderProvider {
	if len(userAgents) == 0 {
		userAgents = defaultUserAgents
	}
	return &RotatingHeaderProvider{userAgents: userAgents}
}

// HeadersFor implements HeaderProvider.
func (p *RotatingHeaderProvider) HeadersFor(string) map[string]string {
	n := p.next.Add(1) - 1
	return map[string]string{
		"User-Agent":      p.userAgents[n%uint64(len(p.userAgents))],
		"Accept":          acceptFeeds,
		"Accept-Language": "en-US,en;q=0.8",
		"Cache-Control":   "no-cache",
	}
}
