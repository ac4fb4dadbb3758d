package feedparse

import (
	"bytes"

	"github.com/mmcdole/gofeed/atom"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/identity"
)

// parseAtom normalizes an Atom 1.0 document. The publish time prefers the
// updated element over published; author prefers the structured person's
// name over its email; body content falls back from content to summary.
func (p *Parser) parseAtom(body []byte) (*entity.NormalizedFeed, error) {
	parsed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	feed := &entity.NormalizedFeed{
		Title:       parsed.Title,
		Description: parsed.Subtitle,
		Link:        alternateLink(parsed.Links),
		Items:       make([]entity.FeedItem, 0, len(parsed.Entries)),
	}

	for _, e := range parsed.Entries {
		author := personName(e.Authors)
		if author == "" {
			author = personName(parsed.Authors)
		}

		var categories []string
		for _, c := range e.Categories {
			if c != nil && c.Term != "" {
				categories = append(categories, c.Term)
			}
		}

		content := ""
		if e.Content != nil {
			content = e.Content.Value
		}
		content = firstNonEmpty(content, e.Summary)

		raw := identity.RawEntry{
			Link:      alternateLink(e.Links),
			GUID:      e.ID,
			Title:     e.Title,
			Published: firstTime(e.UpdatedParsed, e.Updated, e.PublishedParsed, e.Published),
		}

		feed.Items = append(feed.Items, p.buildItem(raw, content, author, categories))
	}
	return feed, nil
}

// alternateLink picks the entry's canonical link: the first link with
// rel="alternate" or no rel, else the first link at all.
func alternateLink(links []*atom.Link) string {
	for _, l := range links {
		if l != nil && (l.Rel == "" || l.Rel == "alternate") {
			return l.Href
		}
	}
	for _, l := range links {
		if l != nil && l.Href != "" {
			return l.Href
		}
	}
	return ""
}

func personName(people []*atom.Person) string {
	for _, p := range people {
		if p == nil {
			continue
		}
		if p.Name != "" {
			return p.Name
		}
		if p.Email != "" {
			return p.Email
		}
	}
	return ""
}
