package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedwatch/internal/feedcache"
	"feedwatch/internal/observability/metrics"
	"feedwatch/internal/platform"
	"feedwatch/internal/resilience/retry"
)

const rssBody = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Test Feed</title>
<link>https://example.com/</link>
<item><title>Post</title><link>https://example.com/post</link><guid>post-1</guid></item>
</channel></rss>`

type fakeBreaker struct {
	mu        sync.Mutex
	allow     bool
	successes map[string]int
	failures  map[string]int
}

func newFakeBreaker() *fakeBreaker {
	return &fakeBreaker{allow: true, successes: map[string]int{}, failures: map[string]int{}}
}

func (b *fakeBreaker) MayExecute(string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allow
}

func (b *fakeBreaker) RecordSuccess(domain string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.successes[domain]++
}

func (b *fakeBreaker) RecordFailure(domain string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[domain]++
}

func (b *fakeBreaker) totalSuccesses() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.successes {
		n += v
	}
	return n
}

func (b *fakeBreaker) totalFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.failures {
		n += v
	}
	return n
}

type fakeLimiter struct {
	mu    sync.Mutex
	waits int
}

func (l *fakeLimiter) Wait(ctx context.Context, _ string) error {
	l.mu.Lock()
	l.waits++
	l.mu.Unlock()
	return ctx.Err()
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		Multiplier:      2.0,
		RateLimitDelays: []time.Duration{time.Millisecond, 2 * time.Millisecond},
	}
}

type fetchEnv struct {
	fetcher *Fetcher
	cache   *feedcache.MemoryStore
	breaker *fakeBreaker
	limiter *fakeLimiter
}

func newFetchEnv(t *testing.T, cfg Config) *fetchEnv {
	t.Helper()
	env := &fetchEnv{
		cache:   feedcache.NewMemoryStore(),
		breaker: newFakeBreaker(),
		limiter: &fakeLimiter{},
	}
	f, err := New(cfg, Deps{
		Cache:   env.cache,
		Limiter: env.limiter,
		Breaker: env.breaker,
	})
	require.NoError(t, err)
	env.fetcher = f
	return env
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retry = fastRetry()
	return cfg
}

func TestFetch_Success(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Header().Set("ETag", `"v1"`)
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	env := newFetchEnv(t, testConfig())

	feed, err := env.fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Test Feed", feed.Title)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "post-1", feed.Items[0].ID)

	assert.Equal(t, 1, requests)
	assert.Equal(t, 1, env.breaker.totalSuccesses())
	assert.Zero(t, env.breaker.totalFailures())
	assert.Equal(t, 1, env.cache.Len())

	entry, ok := env.cache.Get(srv.URL)
	require.True(t, ok)
	assert.Equal(t, `"v1"`, entry.ETag)
}

func TestFetch_FreshCacheSkipsNetwork(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	env := newFetchEnv(t, testConfig())

	first, err := env.fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	second, err := env.fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 1, requests, "second fetch served from cache")
	assert.Same(t, first, second)
	assert.Equal(t, 1, env.limiter.waits, "no rate limiter interaction on cache hit")
}

func TestFetch_ConditionalRevalidation(t *testing.T) {
	var requests int
	var sawValidator bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"v1"` {
			sawValidator = true
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Header().Set("ETag", `"v1"`)
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.CacheTTL = 0 // every fetch revalidates
	env := newFetchEnv(t, cfg)

	first, err := env.fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	second, err := env.fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	assert.True(t, sawValidator)
	assert.Same(t, first, second, "not-modified returns the cached feed unchanged")
	assert.Equal(t, 1, env.breaker.totalSuccesses(), "304 does not record a breaker success")
}

func TestFetch_CacheEventCounters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Header().Set("ETag", `"v1"`)
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	miss := testutil.ToFloat64(metrics.CacheEventsTotal.WithLabelValues("miss"))
	fresh := testutil.ToFloat64(metrics.CacheEventsTotal.WithLabelValues("fresh"))
	revalidated := testutil.ToFloat64(metrics.CacheEventsTotal.WithLabelValues("revalidated"))

	env := newFetchEnv(t, testConfig())

	_, err := env.fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, miss+1, testutil.ToFloat64(metrics.CacheEventsTotal.WithLabelValues("miss")),
		"full network fetch counts as a miss")

	_, err = env.fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, fresh+1, testutil.ToFloat64(metrics.CacheEventsTotal.WithLabelValues("fresh")),
		"fetch within the TTL counts as a fresh hit")

	// Expire freshness so the next fetch revalidates with the stored ETag.
	env.fetcher.cfg.CacheTTL = 0
	_, err = env.fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, revalidated+1, testutil.ToFloat64(metrics.CacheEventsTotal.WithLabelValues("revalidated")),
		"304 counts as a revalidation")
}

func TestFetch_NotFoundShortCircuits(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	env := newFetchEnv(t, testConfig())

	_, err := env.fetcher.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.False(t, fe.Retryable())

	// One attempt per candidate URL; the www-toggle alternate never
	// resolves, so only the original reaches the server.
	assert.Equal(t, 1, requests)
	assert.GreaterOrEqual(t, env.breaker.totalFailures(), 1)
}

func TestFetch_RetryableStatusRetries(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	env := newFetchEnv(t, testConfig())

	_, err := env.fetcher.fetchURL(context.Background(), srv.URL, "127.0.0.1")
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindHTTPStatus, fe.Kind)
	assert.Equal(t, 3, requests, "all attempts exhausted")
	assert.Equal(t, 1, env.breaker.totalFailures(), "exactly one failure recorded per call")
}

func TestFetch_RecoveryWithinRetryLoop(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	env := newFetchEnv(t, testConfig())

	feed, err := env.fetcher.fetchURL(context.Background(), srv.URL, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Test Feed", feed.Title)
	assert.Equal(t, 3, requests)
	assert.Zero(t, env.breaker.totalFailures())
	assert.Equal(t, 1, env.breaker.totalSuccesses())
}

func TestFetch_RateLimitedUsesProgressiveDelays(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	env := newFetchEnv(t, testConfig())

	_, err := env.fetcher.fetchURL(context.Background(), srv.URL, "127.0.0.1")
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindRateLimited, fe.Kind)
	assert.True(t, fe.Retryable())
	assert.Equal(t, 3, requests)
	assert.Equal(t, 1, env.breaker.totalFailures())
}

func TestFetch_CircuitOpenRejectsWithoutNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected while circuit open")
	}))
	defer srv.Close()

	env := newFetchEnv(t, testConfig())
	env.breaker.allow = false

	_, err := env.fetcher.fetchURL(context.Background(), srv.URL, "127.0.0.1")
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindCircuitOpen, fe.Kind)
	assert.False(t, fe.Retryable())
	assert.Zero(t, env.breaker.totalFailures(), "rejection is not a new breaker failure")
}

func TestFetch_BlockedURLFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for blocked url")
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BlockedURLPatterns = []string{`127\.0\.0\.1`}
	env := newFetchEnv(t, cfg)

	_, err := env.fetcher.fetchURL(context.Background(), srv.URL, "127.0.0.1")
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindBlocked, fe.Kind)
	assert.False(t, fe.Retryable())
	assert.Zero(t, env.limiter.waits)
	assert.Zero(t, env.breaker.totalFailures())
}

func TestFetch_HTMLPageRejected(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<!DOCTYPE html><html><body>moved</body></html>")
	}))
	defer srv.Close()

	env := newFetchEnv(t, testConfig())

	_, err := env.fetcher.fetchURL(context.Background(), srv.URL, "127.0.0.1")
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindHTMLPage, fe.Kind)
	assert.Equal(t, 1, requests, "non-retryable, no second attempt")
	assert.Equal(t, 1, env.breaker.totalFailures())
}

func TestFetch_InvalidURL(t *testing.T) {
	env := newFetchEnv(t, testConfig())

	_, err := env.fetcher.Fetch(context.Background(), "not a url")
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindInvalidURL, fe.Kind)
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected after cancellation")
	}))
	defer srv.Close()

	env := newFetchEnv(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.fetcher.fetchURL(ctx, srv.URL, "127.0.0.1")
	require.Error(t, err)
	assert.Zero(t, env.breaker.totalSuccesses())
	assert.Zero(t, env.breaker.totalFailures(), "cancelled attempt records nothing")
}

func TestFetch_AlternatePathGuess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/r/golang", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/r/golang.rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rules := &platform.Rules{Platforms: []*platform.Rule{{
		Name:            "local",
		IDPrefix:        "local",
		Domains:         []string{"127.0.0.1"},
		FeedPathGuesses: []string{".rss"},
	}}}

	env := &fetchEnv{
		cache:   feedcache.NewMemoryStore(),
		breaker: newFakeBreaker(),
		limiter: &fakeLimiter{},
	}
	f, err := New(testConfig(), Deps{
		Cache:   env.cache,
		Limiter: env.limiter,
		Breaker: env.breaker,
		Rules:   rules,
	})
	require.NoError(t, err)

	feed, err := f.Fetch(context.Background(), srv.URL+"/r/golang")
	require.NoError(t, err)
	assert.Equal(t, "Test Feed", feed.Title)
}
