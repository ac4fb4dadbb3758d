// Package feedparse classifies raw feed documents and parses them into the
// normalized representation. Detection and parsing are a closed set of
// variants (RSS 2.0, Atom 1.0, JSON Feed 1.1) dispatched from one place;
// each format parser applies the shared per-field fallback chains for
// dates, authors, and body content, assigns item identity, and runs
// aggregator link rewriting.
package feedparse

import (
	"fmt"
	"strings"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/identity"
	"feedwatch/internal/platform"
)

// Document is one fetched payload to classify and parse. It exists only for
// the duration of a single parse call.
type Document struct {
	Body        []byte
	ContentType string
	URL         string
}

// Parser turns raw documents into normalized feeds.
type Parser struct {
	assigner *identity.Assigner
	rewriter *platform.Rewriter
}

// New creates a Parser wired with the platform rule set used for identity
// extraction and aggregator link rewriting.
func New(rules *platform.Rules) *Parser {
	return &Parser{
		assigner: identity.NewAssigner(platform.NewIDStrategies(rules)...),
		rewriter: platform.NewRewriter(rules),
	}
}

// Parse detects the document's format and dispatches to the matching format
// parser. Unknown formats fail with the detection issues attached.
func (p *Parser) Parse(doc Document) (*entity.NormalizedFeed, error) {
	if len(strings.TrimSpace(string(doc.Body))) == 0 {
		return nil, ErrEmptyDocument
	}

	det := Detect(doc.Body, doc.ContentType)

	var (
		feed *entity.NormalizedFeed
		err  error
	)
	switch det.Format {
	case entity.FormatRSS:
		feed, err = p.parseRSS(doc.Body)
	case entity.FormatAtom:
		feed, err = p.parseAtom(doc.Body)
	case entity.FormatJSONFeed:
		feed, err = p.parseJSONFeed(doc.Body)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, strings.Join(det.Issues, "; "))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", det.Format, err)
	}

	feed.Format = det.Format
	feed.Features = det.Features
	return feed, nil
}

// buildItem finishes one item from its raw declared fields: identity is
// assigned from the pre-rewrite link and guid, then the link is rewritten
// away from aggregator domains and the body content is sanitized with any
// mined media appended.
func (p *Parser) buildItem(raw identity.RawEntry, contentHTML string, author string, categories []string) entity.FeedItem {
	id := p.assigner.AssignID(raw)

	rewritten := p.rewriter.Rewrite(raw.Link, contentHTML)

	description := Sanitize(contentHTML)
	if rewritten.MediaSummary != "" {
		if description != "" {
			description += "\n\n" + rewritten.MediaSummary
		} else {
			description = rewritten.MediaSummary
		}
	}

	return entity.FeedItem{
		ID:          id,
		Title:       raw.Title,
		Link:        rewritten.Link,
		Description: description,
		Published:   raw.Published,
		Author:      author,
		Categories:  categories,
		GUID:        raw.GUID,
	}
}

// firstNonEmpty returns the first non-empty string, implementing the body
// content fallback chain shared by the format parsers.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
