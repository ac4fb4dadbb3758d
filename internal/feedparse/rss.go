package feedparse

import (
	"bytes"

	"github.com/mmcdole/gofeed/rss"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/identity"
)

// parseRSS normalizes an RSS 2.0 document. Author falls back from the
// Dublin Core creator element to the plain author string; body content from
// content:encoded to description.
func (p *Parser) parseRSS(body []byte) (*entity.NormalizedFeed, error) {
	parsed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	feed := &entity.NormalizedFeed{
		Title:       parsed.Title,
		Description: parsed.Description,
		Link:        parsed.Link,
		Items:       make([]entity.FeedItem, 0, len(parsed.Items)),
	}

	for _, it := range parsed.Items {
		guid := ""
		if it.GUID != nil {
			guid = it.GUID.Value
		}

		author := it.Author
		if it.DublinCoreExt != nil && len(it.DublinCoreExt.Creator) > 0 {
			author = it.DublinCoreExt.Creator[0]
		}

		var categories []string
		for _, c := range it.Categories {
			if c != nil && c.Value != "" {
				categories = append(categories, c.Value)
			}
		}

		raw := identity.RawEntry{
			Link:      it.Link,
			GUID:      guid,
			Title:     it.Title,
			Published: firstTime(it.PubDateParsed, it.PubDate),
		}
		content := firstNonEmpty(it.Content, it.Description)

		feed.Items = append(feed.Items, p.buildItem(raw, content, author, categories))
	}
	return feed, nil
}
