package platform

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Caps on how much mined media gets appended to a description, bounding
// worst-case message size downstream.
const (
	maxMinedImages = 3
	maxMinedVideos = 2
)

var (
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	videoExtensions = []string{".mp4", ".webm", ".gifv", ".mov"}
)

// RewriteResult is the outcome of aggregator link rewriting for one item.
type RewriteResult struct {
	// Link is the item's canonical link: the first external URL found in
	// the body when the declared link points at an aggregator, otherwise
	// the declared link unchanged.
	Link string

	// MediaSummary is a labeled bullet list of inline image/video URLs
	// mined from the aggregator content, to append to the sanitized
	// description. Empty when nothing was mined.
	MediaSummary string

	// Rewritten reports whether the link was replaced.
	Rewritten bool
}

// Rewriter applies aggregator link rewriting: when an entry's declared
// link points at a known aggregator and its body content references an
// external URL, the external URL becomes the canonical link.
type Rewriter struct {
	rules *Rules
}

// NewRewriter creates a Rewriter over the given rule set.
func NewRewriter(rules *Rules) *Rewriter {
	return &Rewriter{rules: rules}
}

// Rewrite examines a declared link and the raw body HTML. It is a no-op
// for links not owned by any configured platform.
func (r *Rewriter) Rewrite(link, contentHTML string) RewriteResult {
	result := RewriteResult{Link: link}

	rule := r.rules.RuleFor(link)
	if rule == nil || contentHTML == "" {
		return result
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	if err != nil {
		return result
	}

	var candidates []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			candidates = append(candidates, href)
		}
	})
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok {
			candidates = append(candidates, src)
		}
	})

	var images, videos []string
	var mediaLink string
	for _, raw := range candidates {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

		isMedia := hasExtension(u.Path, imageExtensions) || hasExtension(u.Path, videoExtensions)
		if !rule.OwnsHost(host) && !result.Rewritten {
			if !isMedia {
				result.Link = raw
				result.Rewritten = true
			} else if mediaLink == "" {
				mediaLink = raw
			}
		}

		switch {
		case hasExtension(u.Path, imageExtensions):
			if len(images) < maxMinedImages && !contains(images, raw) {
				images = append(images, raw)
			}
		case hasExtension(u.Path, videoExtensions):
			if len(videos) < maxMinedVideos && !contains(videos, raw) {
				videos = append(videos, raw)
			}
		}
	}

	// A media-only post still points somewhere external; better than
	// leaving the aggregator link in place.
	if !result.Rewritten && mediaLink != "" {
		result.Link = mediaLink
		result.Rewritten = true
	}

	result.MediaSummary = formatMediaSummary(images, videos)
	return result
}

func formatMediaSummary(images, videos []string) string {
	var b strings.Builder
	if len(images) > 0 {
		b.WriteString("Images:")
		for _, u := range images {
			b.WriteString("\n- ")
			b.WriteString(u)
		}
	}
	if len(videos) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Videos:")
		for _, u := range videos {
			b.WriteString("\n- ")
			b.WriteString(u)
		}
	}
	return b.String()
}

func hasExtension(path string, extensions []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
