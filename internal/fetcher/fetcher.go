// Package fetcher implements the resilient feed fetch pipeline: cache
// lookup, circuit-breaker gating, per-domain rate limiting, conditional
// HTTP requests, retry with backoff, and alternate-URL fallback. It
// consumes its collaborators (cache, rate limiter, circuit breaker, header
// provider) through narrow interfaces so the resilience behavior can be
// tested without real network state.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/feedcache"
	"feedwatch/internal/feedparse"
	"feedwatch/internal/observability/metrics"
	"feedwatch/internal/platform"
	"feedwatch/internal/resilience/retry"
)

// RateLimiter paces outbound requests per domain.
type RateLimiter interface {
	Wait(ctx context.Context, domainOrURL string) error
}

// CircuitBreaker tracks per-domain failure state.
type CircuitBreaker interface {
	MayExecute(domain string) bool
	RecordSuccess(domain string)
	RecordFailure(domain string)
}

// Deps are the collaborators a Fetcher requires.
type Deps struct {
	Cache   feedcache.Store
	Limiter RateLimiter
	Breaker CircuitBreaker
	Headers HeaderProvider
	Rules   *platform.Rules
	Client  *http.Client
	Logger  *slog.Logger
}

// Fetcher orchestrates one feed fetch end to end and returns the parsed,
// normalized feed.
type Fetcher struct {
	cfg     Config
	cache   feedcache.Store
	limiter RateLimiter
	breaker CircuitBreaker
	headers HeaderProvider
	rules   *platform.Rules
	parser  *feedparse.Parser
	client  *http.Client
	logger  *slog.Logger
	blocked []*regexp.Regexp
	now     func() time.Time
}

// New creates a Fetcher. It fails only when a blocked-URL pattern does not
// compile.
func New(cfg Config, deps Deps) (*Fetcher, error) {
	blocked := make([]*regexp.Regexp, 0, len(cfg.BlockedURLPatterns))
	for _, pattern := range cfg.BlockedURLPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("blocked url pattern %q: %w", pattern, err)
		}
		blocked = append(blocked, re)
	}

	client := deps.Client
	if client == nil {
		client = &http.Client{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rules := deps.Rules
	if rules == nil {
		rules = platform.DefaultRules()
	}
	headers := deps.Headers
	if headers == nil {
		headers = NewRotatingHeaderProvider()
	}

	return &Fetcher{
		cfg:     cfg,
		cache:   deps.Cache,
		limiter: deps.Limiter,
		breaker: deps.Breaker,
		headers: headers,
		rules:   rules,
		parser:  feedparse.New(rules),
		client:  client,
		logger:  logger,
		blocked: blocked,
		now:     time.Now,
	}, nil
}

// Fetch retrieves and parses the feed at rawURL, trying the original URL
// first and then each mechanically generated alternate. When every
// candidate fails, the error from the original URL is surfaced.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*entity.NormalizedFeed, error) {
	src := entity.NewFeedSource(rawURL, f.rules.FeedPathGuesses(rawURL))
	if src.Domain == "" {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL}
	}

	var firstErr error
	for i, candidate := range src.Candidates() {
		feed, err := f.fetchURL(ctx, candidate, src.Domain)
		if err == nil {
			if i > 0 {
				f.logger.Info("feed fetched via alternate url",
					slog.String("url", rawURL),
					slog.String("alternate", candidate))
			}
			return feed, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		f.logger.Debug("feed candidate failed",
			slog.String("url", candidate),
			slog.String("error", err.Error()))
	}
	return nil, firstErr
}

// fetchURL runs the full pipeline for one candidate URL: cache freshness
// check, block list, then the bounded retry loop. Exactly one breaker
// failure is recorded per call when the loop ends in failure, regardless of
// how many attempts were made; a rejected (circuit open) or cancelled call
// records nothing.
func (f *Fetcher) fetchURL(ctx context.Context, url, domain string) (*entity.NormalizedFeed, error) {
	if entry, ok := f.cache.Get(url); ok && entry.Age(f.now()) <= f.cfg.CacheTTL {
		metrics.RecordCacheEvent("fresh")
		return entry.Feed, nil
	}

	for _, re := range f.blocked {
		if re.MatchString(url) {
			return nil, &Error{Kind: KindBlocked, URL: url, message: "url matches block list"}
		}
	}

	var lastErr *Error
	for attempt := 1; attempt <= f.cfg.Retry.MaxAttempts; attempt++ {
		if !f.breaker.MayExecute(domain) {
			if lastErr == nil {
				lastErr = &Error{Kind: KindCircuitOpen, URL: url, message: "circuit open for " + domain}
			}
			break
		}

		if err := f.limiter.Wait(ctx, domain); err != nil {
			return nil, &Error{Kind: KindNetwork, URL: url, err: err}
		}

		feed, err := f.attempt(ctx, url, domain)
		if err == nil {
			return feed, nil
		}
		if ctx.Err() != nil {
			// Cancelled mid-flight; record neither success nor failure.
			return nil, asError(err, url)
		}

		lastErr = asError(err, url)
		if !lastErr.Retryable() {
			break
		}
		if attempt < f.cfg.Retry.MaxAttempts {
			delay := f.cfg.Retry.Delay(attempt)
			if lastErr.Kind == KindRateLimited {
				delay = f.cfg.Retry.RateLimitDelay(attempt)
			}
			if err := retry.Sleep(ctx, delay); err != nil {
				return nil, lastErr
			}
		}
	}

	if lastErr == nil {
		lastErr = &Error{Kind: KindNetwork, URL: url, message: "no attempts made"}
	}
	if lastErr.Kind != KindCircuitOpen {
		f.breaker.RecordFailure(domain)
	}
	return nil, lastErr
}

// attempt performs a single conditional GET and parse. A success is
// recorded against the breaker as soon as a 2xx arrives; body validation
// and parsing happen after, so a served-but-broken feed still counts as a
// healthy domain.
func (f *Fetcher) attempt(ctx context.Context, url, domain string) (*entity.NormalizedFeed, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, URL: url, err: err}
	}
	for k, v := range f.headers.HeadersFor(url) {
		req.Header.Set(k, v)
	}

	cached, hasCached := f.cache.Get(url)
	if hasCached {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified && hasCached {
		// Origin-confirmed cache hit; the cached feed is returned as is.
		metrics.RecordCacheEvent("revalidated")
		return cached.Feed, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(url, resp.StatusCode)
	}

	f.breaker.RecordSuccess(domain)

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, err: err}
	}

	if looksLikeHTMLPage(body) {
		return nil, &Error{Kind: KindHTMLPage, URL: url, message: "response is an html page, not a feed"}
	}

	feed, err := f.parser.Parse(feedparse.Document{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         url,
	})
	if err != nil {
		kind := KindParse
		if errors.Is(err, feedparse.ErrUnknownFormat) || errors.Is(err, feedparse.ErrEmptyDocument) {
			kind = KindInvalidFeed
		}
		return nil, &Error{Kind: kind, URL: url, err: err}
	}

	metrics.RecordCacheEvent("miss")
	f.cache.SetWithHeaders(url, feed, feedcache.Validators{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	})
	return feed, nil
}

var htmlPageMarkers = [][]byte{
	[]byte("<!doctype html"),
	[]byte("<html"),
}

// looksLikeHTMLPage reports whether the body starts with an HTML document
// root where a feed was expected. HTML inside CDATA or item bodies does not
// trigger it because only the document head is inspected.
func looksLikeHTMLPage(body []byte) bool {
	head := bytes.ToLower(bytes.TrimLeft(body, " \t\r\n\xef\xbb\xbf"))
	if len(head) > 256 {
		head = head[:256]
	}
	for _, marker := range htmlPageMarkers {
		if bytes.HasPrefix(head, marker) {
			return true
		}
	}
	return false
}

func asError(err error, url string) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: KindNetwork, URL: url, err: err}
}
