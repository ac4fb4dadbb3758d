package feedparse

import (
	"bytes"

	jsonfeed "github.com/mmcdole/gofeed/json"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/identity"
)

// parseJSONFeed normalizes a JSON Feed 1.1 document. The declared item id
// plays the role of the raw guid; external_url, when present, is preferred
// as the item link since it points at the actual subject of the post.
func (p *Parser) parseJSONFeed(body []byte) (*entity.NormalizedFeed, error) {
	parsed, err := (&jsonfeed.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	feed := &entity.NormalizedFeed{
		Title:       parsed.Title,
		Description: parsed.Description,
		Link:        parsed.HomePageURL,
		Items:       make([]entity.FeedItem, 0, len(parsed.Items)),
	}

	for _, it := range parsed.Items {
		if it == nil {
			continue
		}

		link := it.URL
		if it.ExternalURL != "" {
			link = it.ExternalURL
		}

		raw := identity.RawEntry{
			Link:      link,
			GUID:      it.ID,
			Title:     it.Title,
			Published: firstTime(it.DatePublished, it.DateModified),
		}
		content := firstNonEmpty(it.ContentHTML, it.ContentText, it.Summary)

		feed.Items = append(feed.Items, p.buildItem(raw, content, jsonAuthor(it, parsed), it.Tags))
	}
	return feed, nil
}

func jsonAuthor(it *jsonfeed.Item, feed *jsonfeed.Feed) string {
	pick := func(authors []*jsonfeed.Author, single *jsonfeed.Author) string {
		for _, a := range authors {
			if a != nil && a.Name != "" {
				return a.Name
			}
		}
		if single != nil {
			return single.Name
		}
		return ""
	}
	if name := pick(it.Authors, it.Author); name != "" {
		return name
	}
	return pick(feed.Authors, feed.Author)
}
