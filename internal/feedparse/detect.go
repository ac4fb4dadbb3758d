package feedparse

import (
	"bytes"
	"fmt"
	"strings"

	"feedwatch/internal/domain/entity"
)

const detectionHeadBytes = 2048

var (
	jsonFeedVersionMarker = []byte("https://jsonfeed.org/version/1")
	atomNamespaceMarker   = []byte("http://www.w3.org/2005/Atom")
	rssRootMarker         = []byte("<rss")
)

// Detect classifies a raw response body plus its declared content type into
// one of the supported feed formats. Evidence is weighed in order: a JSON
// Feed version field in the body, then a JSON content type, then the Atom
// namespace declaration, then an rss root element. Anything else is unknown
// with the observed content type recorded as an issue.
func Detect(body []byte, contentType string) entity.Detection {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")), " \t\r\n")
	head := trimmed
	if len(head) > detectionHeadBytes {
		head = head[:detectionHeadBytes]
	}

	if bytes.HasPrefix(trimmed, []byte("{")) && bytes.Contains(trimmed, jsonFeedVersionMarker) {
		return entity.Detection{
			Format:     entity.FormatJSONFeed,
			Confidence: 1.0,
			Features:   []string{"jsonfeed-version-field"},
		}
	}
	if isJSONContentType(contentType) && bytes.HasPrefix(trimmed, []byte("{")) {
		return entity.Detection{
			Format:     entity.FormatJSONFeed,
			Confidence: 0.8,
			Features:   []string{"json-content-type"},
		}
	}
	if bytes.Contains(head, atomNamespaceMarker) {
		return entity.Detection{
			Format:     entity.FormatAtom,
			Confidence: 0.95,
			Features:   []string{"atom-namespace"},
		}
	}
	if bytes.Contains(head, rssRootMarker) {
		return entity.Detection{
			Format:     entity.FormatRSS,
			Confidence: 0.9,
			Features:   []string{"rss-root-element"},
		}
	}

	return entity.Detection{
		Format:     entity.FormatUnknown,
		Confidence: 0.1,
		Issues:     []string{fmt.Sprintf("unrecognized content type %q", contentType)},
	}
}

func isJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)
	return ct == "application/feed+json" || ct == "application/json" || strings.HasSuffix(ct, "+json")
}
