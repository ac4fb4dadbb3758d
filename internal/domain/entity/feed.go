// Package entity defines the core domain types for feed acquisition and
// change detection: normalized feeds, feed items, detection results, and
// feed sources with their alternate-URL candidates.
package entity

import "time"

// Format identifies the wire format of a fetched feed document.
type Format string

const (
	// FormatRSS is RSS 2.0 XML.
	FormatRSS Format = "rss2.0"
	// FormatAtom is Atom 1.0 XML.
	FormatAtom Format = "atom1.0"
	// FormatJSONFeed is JSON Feed 1.1.
	FormatJSONFeed Format = "jsonfeed1.1"
	// FormatUnknown means the document could not be classified as a feed.
	FormatUnknown Format = "unknown"
)

// Detection is the result of classifying a raw response body.
// Confidence is in [0, 1]. Issues collects structural problems observed
// during classification (for example an unexpected content type).
type Detection struct {
	Format     Format
	Confidence float64
	Features   []string
	Issues     []string
}

// NormalizedFeed is the format-independent representation of a feed.
// Items keep the source-declared order, conventionally newest first;
// the engine never re-sorts them.
type NormalizedFeed struct {
	Title       string
	Description string
	Link        string
	Format      Format
	Features    []string
	Items       []FeedItem
}

// FeedItem is one syndicated unit inside a feed. ID is the stable identity
// assigned during parsing; it is a deterministic function of the item's
// fields so that re-fetching an unchanged feed reproduces identical values.
type FeedItem struct {
	ID          string
	Title       string
	Link        string
	Description string
	Published   *time.Time
	Author      string
	Categories  []string
	GUID        string
}

// HasPublished reports whether the item carries a publish timestamp.
func (it *FeedItem) HasPublished() bool {
	return it.Published != nil && !it.Published.IsZero()
}
