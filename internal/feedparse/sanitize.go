package feedparse

import (
	stdhtml "html"
	"strings"

	"golang.org/x/net/html"
)

// Sanitize strips HTML markup from a content fragment, decodes character
// entities, and collapses whitespace runs to single spaces. Plain text
// passes through with only entity decoding and whitespace collapsing.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsRune(s, '<') {
		s = stripTags(s)
	} else {
		s = stdhtml.UnescapeString(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

// stripTags walks the tokenized fragment and keeps only text content. The
// tokenizer already decodes entities inside text tokens. Script and style
// bodies are dropped.
func stripTags(s string) string {
	var (
		b    strings.Builder
		z    = html.NewTokenizer(strings.NewReader(s))
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isSkippedTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isSkippedTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isSkippedTag(name []byte) bool {
	return string(name) == "script" || string(name) == "style"
}
