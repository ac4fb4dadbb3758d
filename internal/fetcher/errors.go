package fetcher

import (
	"fmt"
	"net/http"
)

// Kind classifies a fetch failure. The classification drives retry policy:
// network and most HTTP status failures are worth another attempt, while
// the rest indicate something a retry cannot fix.
type Kind string

const (
	// KindNetwork is a transport-level failure (timeout, refused
	// connection, DNS). Retryable.
	KindNetwork Kind = "network"

	// KindHTTPStatus is a non-2xx response. Retryable unless the status
	// is in the non-retryable set.
	KindHTTPStatus Kind = "http_status"

	// KindRateLimited is an HTTP 429. Retryable with the domain-tuned
	// progressive delay table instead of generic backoff.
	KindRateLimited Kind = "rate_limited"

	// KindHTMLPage means the body was an HTML document where a feed was
	// expected, typically a redirect or error page. Non-retryable.
	KindHTMLPage Kind = "html_page"

	// KindBlocked means the URL matched the block list; no network call
	// was made. Non-retryable.
	KindBlocked Kind = "blocked"

	// KindCircuitOpen means the domain's circuit breaker rejected the
	// attempt. Non-retryable for this call; the circuit governs future
	// calls independently.
	KindCircuitOpen Kind = "circuit_open"

	// KindInvalidURL means the URL could not be parsed into a request.
	KindInvalidURL Kind = "invalid_url"

	// KindInvalidFeed means the body matched no supported feed format.
	KindInvalidFeed Kind = "invalid_feed"

	// KindParse means a recognized format failed to parse.
	KindParse Kind = "parse"
)

// Error is the structured failure the fetch pipeline produces. It never
// escapes as a panic; all attempts exhausted means the caller receives the
// last Error observed.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	err        error
	message    string
}

func (e *Error) Error() string {
	msg := e.message
	if msg == "" && e.err != nil {
		msg = e.err.Error()
	}
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.StatusCode)
	case msg != "":
		return fmt.Sprintf("fetch %s: %s: %s", e.URL, e.Kind, msg)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.err }

// Retryable reports whether another attempt against the same URL could
// plausibly succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindRateLimited:
		return true
	case KindHTTPStatus:
		switch e.StatusCode {
		case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden, http.StatusGone:
			return false
		}
		return true
	default:
		return false
	}
}

// statusError builds the Error for a non-2xx response, routing 429 to the
// rate-limited kind.
func statusError(url string, code int) *Error {
	if code == http.StatusTooManyRequests {
		return &Error{Kind: KindRateLimited, URL: url, StatusCode: code}
	}
	return &Error{Kind: KindHTTPStatus, URL: url, StatusCode: code}
}
