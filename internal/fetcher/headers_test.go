package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotatingHeaderProvider(t *testing.T) {
	p := NewRotatingHeaderProvider("ua-1", "ua-2")

	h1 := p.HeadersFor("https://example.com/feed")
	h2 := p.HeadersFor("https://example.com/feed")
	h3 := p.HeadersFor("https://example.com/feed")

	assert.Equal(t, "ua-1", h1["User-Agent"])
	assert.Equal(t, "ua-2", h2["User-Agent"])
	assert.Equal(t, "ua-1", h3["User-Agent"], "rotation wraps around")

	assert.Equal(t, "no-cache", h1["Cache-Control"])
	assert.Contains(t, h1["Accept"], "application/rss+xml")
	assert.Contains(t, h1["Accept"], "application/feed+json")
	assert.NotEmpty(t, h1["Accept-Language"])
}

func TestRotatingHeaderProvider_Defaults(t *testing.T) {
	p := NewRotatingHeaderProvider()

	h := p.HeadersFor("https://example.com/feed")
	assert.NotEmpty(t, h["User-Agent"])
}
