package feed

import "testing"

func TestImageResolverPriority(t *testing.T) {
	resolver := NewImageResolver()

	tests := []struct {
		name     string
		entry    Entry
		expected string
	}{
		{
			name: "untyped enclosure",
			entry: Entry{
				Enclosures:    []Enclosure{{URL: "https://example.com/enclosure"}},
				MediaContents: []MediaContent{{URL: "https://example.com/media.jpg"}},
			},
			expected: "https://example.com/enclosure",
		},
		{
			name: "audio enclosure is skipped",
			entry: Entry{
				Enclosures:    []Enclosure{{URL: "https://example.com/episode.mp3", Type: "audio/mpeg"}},
				MediaContents: []MediaContent{{URL: "https://example.com/media.jpg", Type: "image/jpeg"}},
			},
			expected: "https://example.com/media.jpg",
		},
		{
			name: "only the first enclosure is considered",
			entry: Entry{
				Enclosures: []Enclosure{
					{URL: "https://example.com/episode.mp3", Type: "audio/mpeg"},
					{URL: "https://example.com/second.jpg", Type: "image/jpeg"},
				},
				MediaContents: []MediaContent{{URL: "https://example.com/media.jpg", Medium: "image"}},
			},
			expected: "https://example.com/media.jpg",
		},
		{
			name: "video media content is skipped",
			entry: Entry{
				MediaContents: []MediaContent{
					{URL: "https://example.com/video.mp4", Medium: "video", Type: "video/mp4"},
					{URL: "https://example.com/still.jpg", Medium: "image"},
				},
			},
			expected: "https://example.com/still.jpg",
		},
		{
			name: "first thumbnail only",
			entry: Entry{
				MediaThumbnails: []string{"https://example.com/pixel.gif", "https://example.com/thumb.jpg"},
				Content:         `<p><img src="https://example.com/body.jpg"></p>`,
			},
			expected: "https://example.com/body.jpg",
		},
		{
			name: "first acceptable body image",
			entry: Entry{
				Content: `<img src="https://stats.example.com/tracking.gif"><img src="data:image/png;base64,AAA"><img src="https://example.com/photo.jpg">`,
			},
			expected: "https://example.com/photo.jpg",
		},
		{
			name: "description scanned when body has none",
			entry: Entry{
				Content:     "<p>No images</p>",
				Description: `<img src='https://example.com/desc.png'>`,
			},
			expected: "https://example.com/desc.png",
		},
		{
			name:     "no image",
			entry:    Entry{Content: "plain text"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Run(tt.entry); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestImageResolverRejectsAnalyticsAtEveryStage(t *testing.T) {
	resolver := NewImageResolver()
	beacon := "https://www.google-analytics.com/collect.jpg"

	entry := Entry{
		Enclosures:      []Enclosure{{URL: beacon, Type: "image/jpeg"}},
		MediaContents:   []MediaContent{{URL: beacon, Medium: "image"}},
		MediaThumbnails: []string{beacon},
		Content:         `<img src="` + beacon + `">`,
		Description:     `<img src="` + beacon + `">`,
	}

	if got := resolver.Run(entry); got != "" {
		t.Errorf("Expected no image, got '%s'", got)
	}
}

func TestIsAcceptableImageURL(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/photo.jpg", true},
		{"http://example.com/photo.png", true},
		{"HTTPS://example.com/PHOTO.JPG", true},
		{"ftp://example.com/photo.jpg", false},
		{"/relative/photo.jpg", false},
		{"", false},
		{"https://example.com/1x1.gif", false},
		{"https://example.com/Spacer.GIF", false},
		{"https://feeds.feedburner.com/~r/photo.jpg", false},
		{"https://ad.doubleclick.net/img.jpg", false},
		{"https://example.com/transparent.png", false},
	}

	for _, tt := range tests {
		if got := IsAcceptableImageURL(tt.url); got != tt.expected {
			t.Errorf("IsAcceptableImageURL(%q): expected %v, got %v", tt.url, tt.expected, got)
		}
	}
}
