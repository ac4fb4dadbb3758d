// Package identity derives stable identifiers for feed items. Identity is
// a pure function of item fields: re-fetching an unchanged feed must
// reproduce identical identifiers for identical items, otherwise change
// detection cannot recognize "no new items".
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// RawEntry carries the item fields identity derivation may consult.
// Link and GUID are the values as declared by the feed, before any
// aggregator link rewriting.
type RawEntry struct {
	Link      string
	GUID      string
	Title     string
	Published *time.Time
}

// Strategy is one platform-specific identity rule. Strategies are tried in
// order; the first that claims the entry wins.
type Strategy interface {
	// AssignID returns an identifier and true when the strategy applies
	// to the entry, or false to pass to the next strategy.
	AssignID(e RawEntry) (string, bool)
}

// Assigner evaluates an ordered strategy chain followed by the generic
// fallbacks: raw guid verbatim, raw link verbatim, then a slug built from
// title and publish timestamp.
type Assigner struct {
	strategies []Strategy
}

// NewAssigner creates an Assigner with the given strategy chain. A nil or
// empty chain leaves only the generic fallbacks.
func NewAssigner(strategies ...Strategy) *Assigner {
	return &Assigner{strategies: strategies}
}

// AssignID derives the item's stable identifier.
func (a *Assigner) AssignID(e RawEntry) string {
	for _, s := range a.strategies {
		if id, ok := s.AssignID(e); ok {
			return id
		}
	}
	if e.GUID != "" {
		return e.GUID
	}
	if e.Link != "" {
		return e.Link
	}
	return Slug(e.Title, e.Published)
}

var slugCollapse = regexp.MustCompile(`[^a-z0-9]+`)

// Slug builds an identifier from a title and optional publish timestamp:
// case-folded, with runs of non-alphanumeric characters collapsed to a
// single separator.
func Slug(title string, published *time.Time) string {
	raw := strings.ToLower(title)
	if published != nil && !published.IsZero() {
		raw += " " + published.UTC().Format("2006-01-02 15:04:05")
	}
	slug := slugCollapse.ReplaceAllString(raw, "-")
	return strings.Trim(slug, "-")
}

// ShortHash returns a short hex digest of the input, used when no natural
// identifier segment can be extracted.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
