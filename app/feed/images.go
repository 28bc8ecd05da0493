package feed

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Substrings marking tracking pixels, spacers and analytics beacons.
var imageDenylist = []string{
	"1x1",
	"pixel",
	"tracking",
	"beacon",
	"spacer",
	"blank",
	"clear",
	"transparent",
	"feedburner.com",
	"feedsportal.com",
	"statcounter.com",
	"google-analytics.com",
	"doubleclick.net",
}

type ImageResolver struct{}

func NewImageResolver() *ImageResolver {
	return &ImageResolver{}
}

// Run picks a representative image for an entry, or returns "" when none of
// the candidates is acceptable.
func (r *ImageResolver) Run(entry Entry) string {
	// Only the first enclosure is considered.
	if len(entry.Enclosures) > 0 {
		enclosure := entry.Enclosures[0]
		if enclosure.Type == "" || strings.HasPrefix(strings.ToLower(enclosure.Type), "image/") {
			if IsAcceptableImageURL(enclosure.URL) {
				return enclosure.URL
			}
		}
	}

	for _, media := range entry.MediaContents {
		if media.Medium == "image" || strings.HasPrefix(strings.ToLower(media.Type), "image/") || media.Medium == "" {
			if IsAcceptableImageURL(media.URL) {
				return media.URL
			}
		}
	}

	if len(entry.MediaThumbnails) > 0 && IsAcceptableImageURL(entry.MediaThumbnails[0]) {
		return entry.MediaThumbnails[0]
	}

	if src := firstImage(entry.Content); src != "" {
		return src
	}

	return firstImage(entry.Description)
}

// firstImage returns the first acceptable <img src> of an HTML fragment.
func firstImage(html string) string {
	if !strings.Contains(strings.ToLower(html), "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if IsAcceptableImageURL(src) {
			found = src
			return false
		}
		return true
	})

	return found
}

// IsAcceptableImageURL rejects non-http(s) URLs and known tracking images.
func IsAcceptableImageURL(raw string) bool {
	if raw == "" {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return false
	}

	lower := strings.ToLower(raw)
	for _, pattern := range imageDenylist {
		if strings.Contains(lower, pattern) {
			return false
		}
	}

	return true
}
