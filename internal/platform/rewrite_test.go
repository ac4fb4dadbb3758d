package platform

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriter_ReplacesAggregatorLink(t *testing.T) {
	r := NewRewriter(DefaultRules())

	content := `<p>submitted by u/someone</p>
<a href="https://www.reddit.com/r/golang/comments/1abc23/title/">[comments]</a>
<a href="https://blog.example.com/announcing-go-1-25/">[link]</a>`

	got := r.Rewrite("https://www.reddit.com/r/golang/comments/1abc23/title/", content)

	assert.True(t, got.Rewritten)
	assert.Equal(t, "https://blog.example.com/announcing-go-1-25/", got.Link)
}

func TestRewriter_KeepsLinkWhenOnlyAggregatorURLs(t *testing.T) {
	r := NewRewriter(DefaultRules())

	content := `<a href="https://www.reddit.com/r/golang/comments/1abc23/title/">[comments]</a>
<a href="https://i.redd.it/picture.jpg">[image]</a>`

	got := r.Rewrite("https://www.reddit.com/r/golang/comments/1abc23/title/", content)

	assert.False(t, got.Rewritten)
	assert.Equal(t, "https://www.reddit.com/r/golang/comments/1abc23/title/", got.Link)
}

func TestRewriter_NoOpForNonAggregatorLink(t *testing.T) {
	r := NewRewriter(DefaultRules())

	got := r.Rewrite("https://blog.example.com/post", `<a href="https://other.example.com/">x</a>`)

	assert.False(t, got.Rewritten)
	assert.Equal(t, "https://blog.example.com/post", got.Link)
	assert.Empty(t, got.MediaSummary)
}

func TestRewriter_MinesMediaWithCaps(t *testing.T) {
	r := NewRewriter(DefaultRules())

	var b strings.Builder
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, `<img src="https://i.redd.it/img%d.png">`, i)
	}
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&b, `<a href="https://v.redd.it/clip%d.mp4">video</a>`, i)
	}

	got := r.Rewrite("https://redd.it/1abc23", b.String())

	assert.Contains(t, got.MediaSummary, "Images:")
	assert.Contains(t, got.MediaSummary, "Videos:")
	assert.Equal(t, 3, strings.Count(got.MediaSummary, ".png"))
	assert.Equal(t, 2, strings.Count(got.MediaSummary, ".mp4"))
	assert.Contains(t, got.MediaSummary, "- https://i.redd.it/img1.png")
}

func TestRewriter_PrefersNonMediaCanonicalLink(t *testing.T) {
	r := NewRewriter(DefaultRules())

	content := `<a href="https://cdn.example.com/shot.png">image</a>
<a href="https://blog.example.com/article">article</a>`

	got := r.Rewrite("https://redd.it/1abc23", content)

	assert.True(t, got.Rewritten)
	assert.Equal(t, "https://blog.example.com/article", got.Link)
	assert.Contains(t, got.MediaSummary, "https://cdn.example.com/shot.png")
}

func TestRewriter_ExternalMediaIsLastResortLink(t *testing.T) {
	r := NewRewriter(DefaultRules())

	content := `<a href="https://www.reddit.com/r/pics/comments/1abc23/title/">[comments]</a>
<a href="https://cdn.example.com/shot.png">image</a>`

	got := r.Rewrite("https://redd.it/1abc23", content)

	assert.True(t, got.Rewritten)
	assert.Equal(t, "https://cdn.example.com/shot.png", got.Link)
	assert.Contains(t, got.MediaSummary, "https://cdn.example.com/shot.png")
}

func TestRewriter_DeduplicatesMedia(t *testing.T) {
	r := NewRewriter(DefaultRules())

	content := `<a href="https://i.redd.it/same.jpg">a</a><img src="https://i.redd.it/same.jpg">`

	got := r.Rewrite("https://redd.it/1abc23", content)

	assert.Equal(t, 1, strings.Count(got.MediaSummary, "same.jpg"))
}
